// Package configsync is the thin glue between configuration writes and the
// poll scheduler (§4.7): "every write operation on sites or transmitters
// invokes poll_scheduler.reload_from_store() after commit. Deletes are
// also reloads."
package configsync

import (
	"context"
	"log/slog"
)

// Reloader is the subset of pollscheduler.Scheduler this package depends
// on, kept as a narrow interface to avoid a configsync -> pollscheduler
// import cycle risk and to let callers inject a fake in tests.
type Reloader interface {
	ReloadFromStore(ctx context.Context) error
}

// Notifier invokes a Reloader's reload after every site/transmitter
// write. It carries no state of its own beyond the reloader and logger —
// intentionally thin, matching spec.md's own "thin glue" framing.
type Notifier struct {
	reloader Reloader
	logger   *slog.Logger
}

// New constructs a Notifier bound to reloader.
func New(reloader Reloader, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	return &Notifier{reloader: reloader, logger: logger}
}

// AfterWrite is called by the store layer's CRUD handlers immediately
// after a successful commit to a site or transmitter row, including
// deletes. A reload failure is logged, not propagated — the write itself
// already succeeded, and the scheduler will pick up the change on its
// next reload trigger regardless.
func (n *Notifier) AfterWrite(ctx context.Context) {
	if err := n.reloader.ReloadFromStore(ctx); err != nil {
		n.logger.Warn("configsync: reload after write failed", "error", err.Error())
	}
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
