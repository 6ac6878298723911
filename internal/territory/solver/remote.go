package solver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// RemoteClient calls the external MIP service over HTTP per §6.2: LP
// text in, a JSON status/objective/columns/solveTimeMs response out.
// Grounded on the teacher's alphavantage client's retry/timeout shape —
// a single retry with backoff on 5xx or network error, after which Solve
// returns the error and the dispatcher moves on to its next strategy. The
// failure is not recorded: a later Dispatch call in the same solve tries
// the remote service again while the session's quota lasts.
type RemoteClient struct {
	endpoint string
	client   *http.Client
	log      zerolog.Logger
}

var _ Solve = (*RemoteClient)(nil)

// RemoteConfig configures the remote MIP service client.
type RemoteConfig struct {
	Endpoint string
	Log      zerolog.Logger
}

// NewRemoteClient constructs a client bound to one remote endpoint.
func NewRemoteClient(cfg RemoteConfig) *RemoteClient {
	return &RemoteClient{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: 300 * time.Second},
		log:      cfg.Log.With().Str("component", "remote_solver").Logger(),
	}
}

type remoteResponse struct {
	Status         string                      `json:"status"`
	ObjectiveValue float64                     `json:"objectiveValue"`
	Columns        map[string]remoteColumn     `json:"columns"`
	SolveTimeMs    int64                       `json:"solveTimeMs"`
}

type remoteColumn struct {
	Primal float64 `json:"Primal"`
}

// Solve posts the LP text to the remote service, retrying once on a 5xx
// response or network error with a 1s backoff, per §6.2.
func (c *RemoteClient) Solve(ctx context.Context, lpText string, budget time.Duration) (Solution, error) {
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	resp, err := c.post(ctx, lpText)
	if err != nil || (resp != nil && resp.StatusCode >= 500) {
		c.log.Warn().Err(err).Msg("remote solver attempt failed, retrying once")
		time.Sleep(1 * time.Second)
		resp, err = c.post(ctx, lpText)
	}
	if err != nil {
		return Solution{Status: StatusError}, fmt.Errorf("remote solver unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		body, _ := io.ReadAll(resp.Body)
		return Solution{Status: StatusError}, fmt.Errorf("remote solver rejected model (status %d): %s", resp.StatusCode, string(body))
	}
	if resp.StatusCode >= 500 {
		return Solution{Status: StatusError}, fmt.Errorf("remote solver unavailable (status %d)", resp.StatusCode)
	}

	var parsed remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Solution{Status: StatusError}, fmt.Errorf("decoding remote solver response: %w", err)
	}

	columns := make(map[string]float64, len(parsed.Columns))
	for name, col := range parsed.Columns {
		columns[name] = col.Primal
	}

	return Solution{
		Status:         mapRemoteStatus(parsed.Status),
		ObjectiveValue: parsed.ObjectiveValue,
		Columns:        columns,
		SolveTimeMs:    parsed.SolveTimeMs,
	}, nil
}

func (c *RemoteClient) post(ctx context.Context, lpText string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBufferString(lpText))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/plain")
	return c.client.Do(req)
}

func mapRemoteStatus(s string) Status {
	switch s {
	case "Optimal":
		return StatusOptimal
	case "Infeasible":
		return StatusInfeasible
	case "Unbounded":
		return StatusUnbounded
	case "Time limit":
		return StatusTimeLimit
	default:
		return StatusError
	}
}
