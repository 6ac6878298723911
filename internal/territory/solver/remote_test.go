package solver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteClient_Solve_ParsesOptimalResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "text/plain", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "Maximize")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"Optimal","objectiveValue":-1.5,"columns":{"x_a1_r1":{"Primal":1}},"solveTimeMs":42}`))
	}))
	defer srv.Close()

	c := NewRemoteClient(RemoteConfig{Endpoint: srv.URL, Log: zerolog.Nop()})
	sol, err := c.Solve(context.Background(), "Maximize\n obj: x_a1_r1\nEnd\n", 5*time.Second)

	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, sol.Status)
	assert.Equal(t, -1.5, sol.ObjectiveValue)
	assert.Equal(t, 1.0, sol.Columns["x_a1_r1"])
	assert.Equal(t, int64(42), sol.SolveTimeMs)
}

func TestRemoteClient_Solve_RetriesOnceOn5xxThenSucceeds(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"Optimal","objectiveValue":0,"columns":{},"solveTimeMs":1}`))
	}))
	defer srv.Close()

	c := NewRemoteClient(RemoteConfig{Endpoint: srv.URL, Log: zerolog.Nop()})
	sol, err := c.Solve(context.Background(), "lp", 5*time.Second)

	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, sol.Status)
	assert.Equal(t, 2, attempts)
}

func TestRemoteClient_Solve_FailsAfterTwoConsecutive5xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewRemoteClient(RemoteConfig{Endpoint: srv.URL, Log: zerolog.Nop()})
	sol, err := c.Solve(context.Background(), "lp", 5*time.Second)

	require.Error(t, err)
	assert.Equal(t, StatusError, sol.Status)
}

func TestRemoteClient_Solve_4xxFailsWithoutRetry(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("malformed LP"))
	}))
	defer srv.Close()

	c := NewRemoteClient(RemoteConfig{Endpoint: srv.URL, Log: zerolog.Nop()})
	sol, err := c.Solve(context.Background(), "lp", 5*time.Second)

	require.Error(t, err)
	assert.Equal(t, StatusError, sol.Status)
	assert.Equal(t, 1, attempts)
	assert.ErrorContains(t, err, "malformed LP")
}

func TestMapRemoteStatus(t *testing.T) {
	tests := map[string]Status{
		"Optimal":     StatusOptimal,
		"Infeasible":  StatusInfeasible,
		"Unbounded":   StatusUnbounded,
		"Time limit":  StatusTimeLimit,
		"Unknown odd": StatusError,
	}
	for input, want := range tests {
		assert.Equal(t, want, mapRemoteStatus(input))
	}
}
