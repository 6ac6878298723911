package territory

import (
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/sentinel/internal/domain"
)

// Snapshot is the wire envelope for a solve's inputs, serialized with
// msgpack for the archive and remote-replay paths — smaller and faster
// to decode than JSON for the account volumes a solve operates on.
type Snapshot struct {
	Accounts      []domain.Account      `msgpack:"accounts"`
	Reps          []domain.Rep          `msgpack:"reps"`
	Configuration domain.Configuration  `msgpack:"configuration"`
}

// EncodeSnapshot serializes a snapshot to msgpack bytes.
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	return msgpack.Marshal(s)
}

// DecodeSnapshot deserializes msgpack bytes produced by EncodeSnapshot.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// EncodeResult serializes a completed solve's result to msgpack bytes,
// for archival alongside the snapshot that produced it.
func EncodeResult(r SolveResult) ([]byte, error) {
	return msgpack.Marshal(r)
}

// DecodeResult deserializes msgpack bytes produced by EncodeResult.
func DecodeResult(data []byte) (SolveResult, error) {
	var r SolveResult
	if err := msgpack.Unmarshal(data, &r); err != nil {
		return SolveResult{}, err
	}
	return r, nil
}
