package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/sentinel/internal/archive"
	"github.com/aristath/sentinel/internal/config"
	"github.com/aristath/sentinel/internal/database"
	"github.com/aristath/sentinel/internal/events"
	"github.com/aristath/sentinel/internal/scheduler"
	"github.com/aristath/sentinel/internal/server"
	"github.com/aristath/sentinel/internal/snapshot"
	"github.com/aristath/sentinel/internal/territory"
	"github.com/aristath/sentinel/internal/territory/solver"
)

// Wire initializes every dependency in order and returns a fully
// configured Container. On error it closes anything it already opened.
//
//  1. Open and migrate the snapshot database.
//  2. Build the snapshot store (reader + sink).
//  3. Build the optional archive client.
//  4. Build the solver dispatcher (local, remote, secondary) and session.
//  5. Build the event bus/manager.
//  6. Build the engine.
//  7. Build the HTTP server.
//  8. Build the periodic resolve scheduler.
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	db, err := database.New(database.Config{Path: cfg.SnapshotDBPath, Name: "territory"})
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate snapshot database: %w", err)
	}
	container.DB = db

	container.Snapshot = snapshot.New(db)

	if cfg.ArchiveBucket != "" {
		archiveClient, err := archive.NewClient(archive.Credentials{
			AccountID:       cfg.ArchiveAccountID,
			AccessKeyID:     cfg.ArchiveAccessKey,
			SecretAccessKey: cfg.ArchiveSecretKey,
			Bucket:          cfg.ArchiveBucket,
		}, log)
		if err != nil {
			log.Warn().Err(err).Msg("archive client unavailable, solves will not be archived")
		} else {
			container.Archive = archiveClient
		}
	}

	local := solver.NewLocalSolver()
	secondary := solver.NewHeuristicSolver()
	remote := solver.NewRemoteClient(solver.RemoteConfig{Endpoint: cfg.RemoteSolverURL, Log: log})
	container.Dispatcher = solver.NewDispatcher(local, remote, secondary, solver.DefaultThresholdsForHardware(), log)
	container.Session = solver.NewSession(cfg.DailyRemoteQuota)

	container.Bus = events.NewBus(log)
	container.Events = events.NewManager(container.Bus, log)

	container.Engine = territory.NewEngine(
		container.Snapshot,
		container.Snapshot,
		container.Dispatcher,
		container.Session,
		territory.DefaultScoringConfig(),
		container.Events,
		log,
	)

	container.Server = server.New(server.Config{
		Port:    cfg.Port,
		Log:     log,
		Engine:  container.Engine,
		Events:  container.Events,
		DevMode: cfg.DevMode,
	})

	resolveJob := scheduler.NewResolveJob(scheduler.ResolveJobConfig{Log: log, Solver: container.Engine})
	sched, err := scheduler.New(cfg.SolveScheduleCron, resolveJob, log)
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to configure scheduler: %w", err)
	}
	container.Scheduler = sched

	log.Info().Msg("dependency wiring completed")
	return container, nil
}
