// Package snapshot is the reference SnapshotReader/ProposalSink
// implementation: a single SQLite database holding the current account and
// rep snapshot, the active configuration, and a rolling history of solve
// runs. Records are stored as JSON blobs keyed by id, mirroring the
// inventory's JSON-column convention rather than a fully normalized schema —
// the optimizer core never queries these tables directly, so the storage
// shape is free to change without touching domain types.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/aristath/sentinel/internal/database"
	"github.com/aristath/sentinel/internal/domain"
)

// Store implements domain.SnapshotReader and domain.ProposalSink against a
// single SQLite database.
type Store struct {
	db *database.DB
}

// New wraps an already-migrated database connection.
func New(db *database.DB) *Store {
	return &Store{db: db}
}

var _ domain.SnapshotReader = (*Store)(nil)
var _ domain.ProposalSink = (*Store)(nil)

// LoadAccounts returns every account row, decoded from its JSON blob.
func (s *Store) LoadAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := s.db.Conn().QueryContext(ctx, "SELECT data FROM accounts ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		var a domain.Account
		if err := json.Unmarshal([]byte(blob), &a); err != nil {
			return nil, fmt.Errorf("decode account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// LoadReps returns every rep row, decoded from its JSON blob.
func (s *Store) LoadReps(ctx context.Context) ([]domain.Rep, error) {
	rows, err := s.db.Conn().QueryContext(ctx, "SELECT data FROM reps ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query reps: %w", err)
	}
	defer rows.Close()

	var reps []domain.Rep
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("scan rep: %w", err)
		}
		var r domain.Rep
		if err := json.Unmarshal([]byte(blob), &r); err != nil {
			return nil, fmt.Errorf("decode rep: %w", err)
		}
		reps = append(reps, r)
	}
	return reps, rows.Err()
}

// LoadConfiguration returns the single active configuration row.
func (s *Store) LoadConfiguration(ctx context.Context) (domain.Configuration, error) {
	var blob string
	err := s.db.Conn().QueryRowContext(ctx, "SELECT data FROM configuration WHERE id = 1").Scan(&blob)
	if err == sql.ErrNoRows {
		return domain.Configuration{}, fmt.Errorf("no configuration has been set")
	}
	if err != nil {
		return domain.Configuration{}, fmt.Errorf("query configuration: %w", err)
	}

	var cfg domain.Configuration
	if err := json.Unmarshal([]byte(blob), &cfg); err != nil {
		return domain.Configuration{}, fmt.Errorf("decode configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfiguration upserts the active configuration. It is not part of the
// domain.SnapshotReader contract — it's how test fixtures seed a solve.
func (s *Store) SaveConfiguration(ctx context.Context, cfg domain.Configuration) error {
	blob, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode configuration: %w", err)
	}
	_, err = s.db.Conn().ExecContext(ctx,
		"INSERT INTO configuration (id, data) VALUES (1, ?) ON CONFLICT(id) DO UPDATE SET data = excluded.data",
		string(blob))
	return err
}

// ReplaceAccounts atomically replaces the full account snapshot, used when
// a fresh CRM extract lands.
func (s *Store) ReplaceAccounts(ctx context.Context, accounts []domain.Account) error {
	return database.WithTransaction(s.db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM accounts"); err != nil {
			return fmt.Errorf("clear accounts: %w", err)
		}
		for _, a := range accounts {
			blob, err := json.Marshal(a)
			if err != nil {
				return fmt.Errorf("encode account %s: %w", a.ID, err)
			}
			if _, err := tx.ExecContext(ctx, "INSERT INTO accounts (id, data) VALUES (?, ?)", a.ID, string(blob)); err != nil {
				return fmt.Errorf("insert account %s: %w", a.ID, err)
			}
		}
		return nil
	})
}

// ReplaceReps atomically replaces the full rep roster.
func (s *Store) ReplaceReps(ctx context.Context, reps []domain.Rep) error {
	return database.WithTransaction(s.db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM reps"); err != nil {
			return fmt.Errorf("clear reps: %w", err)
		}
		for _, r := range reps {
			blob, err := json.Marshal(r)
			if err != nil {
				return fmt.Errorf("encode rep %s: %w", r.ID, err)
			}
			if _, err := tx.ExecContext(ctx, "INSERT INTO reps (id, data) VALUES (?, ?)", r.ID, string(blob)); err != nil {
				return fmt.Errorf("insert rep %s: %w", r.ID, err)
			}
		}
		return nil
	})
}

// Accept records a completed solve's proposals and unassigned accounts as a
// new solve_runs row, timestamped now.
func (s *Store) Accept(ctx context.Context, proposals []domain.Proposal, unassigned []domain.UnassignedAccount) error {
	proposalsBlob, err := json.Marshal(proposals)
	if err != nil {
		return fmt.Errorf("encode proposals: %w", err)
	}
	unassignedBlob, err := json.Marshal(unassigned)
	if err != nil {
		return fmt.Errorf("encode unassigned accounts: %w", err)
	}

	_, err = s.db.Conn().ExecContext(ctx,
		`INSERT INTO solve_runs (started_at, completed_at, proposals, unassigned) VALUES (unixepoch(), unixepoch(), ?, ?)`,
		string(proposalsBlob), string(unassignedBlob))
	if err != nil {
		return fmt.Errorf("insert solve run: %w", err)
	}
	return nil
}

// LatestRun returns the most recently recorded solve, or sql.ErrNoRows if
// none has run yet.
func (s *Store) LatestRun(ctx context.Context) ([]domain.Proposal, []domain.UnassignedAccount, error) {
	var proposalsBlob, unassignedBlob string
	err := s.db.Conn().QueryRowContext(ctx,
		"SELECT proposals, unassigned FROM solve_runs ORDER BY id DESC LIMIT 1").
		Scan(&proposalsBlob, &unassignedBlob)
	if err != nil {
		return nil, nil, err
	}

	var proposals []domain.Proposal
	if err := json.Unmarshal([]byte(proposalsBlob), &proposals); err != nil {
		return nil, nil, fmt.Errorf("decode proposals: %w", err)
	}
	var unassigned []domain.UnassignedAccount
	if err := json.Unmarshal([]byte(unassignedBlob), &unassigned); err != nil {
		return nil, nil, fmt.Errorf("decode unassigned accounts: %w", err)
	}
	return proposals, unassigned, nil
}
