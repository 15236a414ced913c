// Package store implements the Persistence Store (§4.2): sites,
// transmitters, metric rows, traps, and alarms, behind a Store interface so
// the scheduler, trap receiver, and config sync depend on an abstraction
// rather than a concrete driver — the same house style as the teacher's
// Decoder/Producer/Poller interfaces.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/txfleet/txcore/internal/models"
)

// Sentinel errors, errors.Is-comparable, letting a future REST layer map to
// HTTP status codes without leaking driver-specific pgx error types (§7).
var (
	ErrNotFound            = errors.New("store: not found")
	ErrConstraintViolation = errors.New("store: constraint violation")
	ErrTransient           = errors.New("store: transient failure")
)

// Store is the full persistence contract. *PostgresStore is the production
// implementation; MemStore is an in-memory fake used by other packages'
// tests.
type Store interface {
	// Sites
	ListSites(ctx context.Context) ([]models.Site, error)
	GetSite(ctx context.Context, id string) (models.Site, error)
	CreateSite(ctx context.Context, s models.Site) (models.Site, error)
	UpdateSite(ctx context.Context, id string, patch models.SitePatch) (models.Site, error)
	DeleteSite(ctx context.Context, id string) error
	IsSiteActive(ctx context.Context, id string) (bool, error)

	// Transmitters
	ListTransmitters(ctx context.Context) ([]models.Transmitter, error)
	GetTransmitter(ctx context.Context, id string) (models.Transmitter, error)
	CreateTransmitter(ctx context.Context, t models.Transmitter) (models.Transmitter, error)
	UpdateTransmitter(ctx context.Context, id string, patch models.TransmitterPatch) (models.Transmitter, error)
	DeleteTransmitter(ctx context.Context, id string) error
	IsTransmitterActive(ctx context.Context, id string) (bool, error)
	FindTransmitterByHost(ctx context.Context, host string) ([]models.Transmitter, error)

	// UpdateTransmitterName persists the §4.3 radio-name passthrough: a
	// poll result carrying a radio-name OID whose value differs from the
	// stored transmitter name updates it here.
	UpdateTransmitterName(ctx context.Context, id, name string) error

	// Metrics
	StoreMetric(ctx context.Context, row models.TransmitterMetricRow) error
	ListMetrics(ctx context.Context, transmitterID string, since time.Time, limit int) ([]models.TransmitterMetricRow, error)

	// Traps
	StoreTrap(ctx context.Context, trap models.SnmpTrap) error
	ListTraps(ctx context.Context, limit int) ([]models.SnmpTrap, error)

	// Alarms — referential integrity only; write path owned by an external
	// policy engine (§3 Alarm).
	ListAlarms(ctx context.Context, transmitterID string) ([]models.Alarm, error)

	// InitializeSchema runs idempotent, additive-only DDL. Safe to call on
	// every process start.
	InitializeSchema(ctx context.Context) error

	Close()
}
