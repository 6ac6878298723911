package archive

import (
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_RejectsIncompleteCredentials(t *testing.T) {
	log := zerolog.New(io.Discard)

	tests := []struct {
		name  string
		creds Credentials
	}{
		{"missing account id", Credentials{AccessKeyID: "k", SecretAccessKey: "s", Bucket: "b"}},
		{"missing access key", Credentials{AccountID: "a", SecretAccessKey: "s", Bucket: "b"}},
		{"missing secret key", Credentials{AccountID: "a", AccessKeyID: "k", Bucket: "b"}},
		{"missing bucket", Credentials{AccountID: "a", AccessKeyID: "k", SecretAccessKey: "s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.creds, log)
			assert.ErrorContains(t, err, "archive credentials incomplete")
		})
	}
}

func TestNewClient_SucceedsWithCompleteCredentials(t *testing.T) {
	log := zerolog.New(io.Discard)
	creds := Credentials{AccountID: "acct", AccessKeyID: "key", SecretAccessKey: "secret", Bucket: "territory-archive"}

	client, err := NewClient(creds, log)

	require.NoError(t, err)
	require.NotNil(t, client)
	assert.Equal(t, "territory-archive", client.bucket)
	assert.NotNil(t, client.client)
	assert.NotNil(t, client.uploader)
	assert.NotNil(t, client.downloader)
}

func TestSnapshotKey_IsSortableByTime(t *testing.T) {
	earlier := time.Date(2026, 1, 1, 3, 0, 0, 0, time.UTC)
	later := time.Date(2026, 1, 1, 4, 0, 0, 0, time.UTC)

	assert.Less(t, SnapshotKey(earlier), SnapshotKey(later))
}

func TestResultKey_DistinctFromSnapshotKey(t *testing.T) {
	now := time.Date(2026, 1, 1, 3, 0, 0, 0, time.UTC)

	assert.NotEqual(t, SnapshotKey(now), ResultKey(now))
	assert.Contains(t, SnapshotKey(now), "snapshots/")
	assert.Contains(t, ResultKey(now), "results/")
}

func TestByteReader_ReadsFullPayloadThenEOF(t *testing.T) {
	r := newByteReader([]byte("hello"))

	buf := make([]byte, 3)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "hel", string(buf[:n]))

	n, err = r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "lo", string(buf[:n]))

	_, err = r.Read(buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestWriteAtBuffer_AssemblesOutOfOrderWrites(t *testing.T) {
	w := newWriteAtBuffer()

	_, err := w.WriteAt([]byte("World"), 5)
	require.NoError(t, err)
	_, err = w.WriteAt([]byte("Hello"), 0)
	require.NoError(t, err)

	assert.Equal(t, "HelloWorld", string(w.Bytes()))
}
