// Package di wires the territory optimizer's dependencies in the correct
// order: database, snapshot store, solver strategies, the event bus, the
// engine, the HTTP server, and the periodic resolve scheduler.
package di

import (
	"github.com/aristath/sentinel/internal/archive"
	"github.com/aristath/sentinel/internal/database"
	"github.com/aristath/sentinel/internal/events"
	"github.com/aristath/sentinel/internal/scheduler"
	"github.com/aristath/sentinel/internal/server"
	"github.com/aristath/sentinel/internal/snapshot"
	"github.com/aristath/sentinel/internal/territory"
	"github.com/aristath/sentinel/internal/territory/solver"
)

// Container holds every wired component for one process lifetime.
type Container struct {
	DB         *database.DB
	Snapshot   *snapshot.Store
	Archive    *archive.Client // nil when archival credentials are unset
	Dispatcher *solver.Dispatcher
	Session    *solver.Session
	Bus        *events.Bus
	Events     *events.Manager
	Engine     *territory.Engine
	Server     *server.Server
	Scheduler  *scheduler.Scheduler
}

// Close releases everything the container owns that needs explicit
// cleanup. It is safe to call on a partially-initialized container.
func (c *Container) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
