// Package domain provides core domain interfaces.
//
// These interfaces describe the boundary between the optimizer core and
// everything external to it: wherever a snapshot of accounts/reps/config
// comes from, and wherever a solve's proposals end up, is someone else's
// concern. The core only ever sees these two contracts.
package domain

import "context"

// SnapshotReader loads the immutable inputs for a single solve: the
// account set, the rep set, and the configuration governing how they're
// matched. Implementations own whatever storage backs them — the core
// never depends on a concrete store.
type SnapshotReader interface {
	// LoadAccounts returns every account eligible for consideration by a
	// solve. Eligibility filtering beyond "exists in the snapshot" is the
	// core's job, not the reader's.
	LoadAccounts(ctx context.Context) ([]Account, error)

	// LoadReps returns every rep known to the snapshot, active or not —
	// Rep.Eligible() distinguishes them.
	LoadReps(ctx context.Context) ([]Rep, error)

	// LoadConfiguration returns the policy snapshot for the solve.
	LoadConfiguration(ctx context.Context) (Configuration, error)
}

// ProposalSink accepts the result of a completed solve. A sink is free to
// persist, forward, or discard what it's given; the core has no further
// obligation once Accept returns.
type ProposalSink interface {
	Accept(ctx context.Context, proposals []Proposal, unassigned []UnassignedAccount) error
}
