package appcore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/txfleet/txcore/internal/configsync"
	"github.com/txfleet/txcore/internal/mibmap"
	"github.com/txfleet/txcore/internal/pollscheduler"
	"github.com/txfleet/txcore/internal/snmpsession"
	"github.com/txfleet/txcore/internal/store"
	"github.com/txfleet/txcore/internal/trapreceiver"
)

// Application bundles the persistence store, poll scheduler, and trap
// receiver, and owns their startup/shutdown order:
//
//  1. connect to storage and run InitializeSchema;
//  2. build the MIB mapper and session manager;
//  3. scheduler.ReloadFromStore to populate the device table;
//  4. start the scheduler's tick loop and the trap receiver.
//
// Shutdown reverses that order: stop the trap receiver and scheduler, then
// close storage.
type Application struct {
	cfg    Config
	logger *slog.Logger

	Store     store.Store
	Scheduler *pollscheduler.Scheduler
	Trap      *trapreceiver.Receiver
	Notifier  *configsync.Notifier

	cancel context.CancelFunc
}

// New constructs an Application from cfg without starting anything.
func New(cfg Config, logger *slog.Logger) *Application {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(discardWriter{}, nil))
	}
	return &Application{cfg: cfg, logger: logger}
}

// Start runs the lifecycle described on Application's doc comment. The
// returned error is fatal: storage unreachable, schema init failure, or a
// trap-receiver bind failure without a usable fallback (§6 exit codes).
func (a *Application) Start(ctx context.Context) error {
	st, err := store.Open(ctx, a.cfg.DatabaseURL, a.logger)
	if err != nil {
		return fmt.Errorf("appcore: connect storage: %w", err)
	}

	if err := st.InitializeSchema(ctx); err != nil {
		st.Close()
		return fmt.Errorf("appcore: initialize schema: %w", err)
	}

	mapper, err := mibmap.New(a.cfg.MibMapDir, a.logger)
	if err != nil {
		st.Close()
		return fmt.Errorf("appcore: load MIB mappings: %w", err)
	}

	// The scheduler is a configsync.Reloader but configsync.New needs one
	// to build the Notifier that the store decorator below needs — break
	// the cycle with a deferred-binding indirection, resolved before
	// anything actually calls AfterWrite.
	reloader := &schedulerReloader{}
	a.Notifier = configsync.New(reloader, a.logger)
	syncedStore := configsync.Wrap(st, a.Notifier)
	a.Store = syncedStore

	sessions := snmpsession.New(a.logger)
	a.Scheduler = pollscheduler.New(syncedStore, sessions, mapper, a.logger)
	reloader.scheduler = a.Scheduler

	if err := a.Scheduler.ReloadFromStore(ctx); err != nil {
		st.Close()
		return fmt.Errorf("appcore: initial reload: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	go a.Scheduler.Start(runCtx)

	a.Trap = trapreceiver.New(trapreceiver.Config{
		PrimaryPort:       a.cfg.TrapPrimaryPort,
		FallbackPort:      a.cfg.TrapFallbackPort,
		RequirePrivileged: a.cfg.TrapRequirePrivileged,
		AutoFallback:      a.cfg.TrapAutoFallback,
	}, syncedStore, mapper, a.logger)

	if err := a.Trap.Start(runCtx); err != nil {
		cancel()
		a.Scheduler.Stop()
		st.Close()
		return fmt.Errorf("appcore: start trap receiver: %w", err)
	}

	a.logger.Info("appcore: started", "trap_port", a.Trap.BoundPort())
	return nil
}

// Stop shuts down the trap receiver and scheduler, then closes storage.
// Safe to call once after a successful Start.
func (a *Application) Stop() {
	if a.Trap != nil {
		a.Trap.Stop()
	}
	if a.cancel != nil {
		a.cancel()
	}
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.Store != nil {
		a.Store.Close()
	}
	a.logger.Info("appcore: stopped")
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// schedulerReloader defers binding to the real *pollscheduler.Scheduler
// until after it's constructed, letting configsync.New run before the
// scheduler exists.
type schedulerReloader struct {
	scheduler *pollscheduler.Scheduler
}

func (r *schedulerReloader) ReloadFromStore(ctx context.Context) error {
	return r.scheduler.ReloadFromStore(ctx)
}
