// Package pollscheduler implements the Poll Scheduler (§4.5): a per-device
// state machine that gates polls against transmitter/site activity flags,
// expands configured OIDs into the wire OID set, enforces at-most-one
// concurrent poll per device, and records results into a bounded ring.
//
// Grounded on the teacher's scheduler/scheduler.go (sorted next-run
// scanning loop, mutex-protected entry table, time.Timer) generalized from
// "one entry per hostname with static pre-resolved jobs" to "one entry per
// transmitter, gated per-tick against the store" — and on pool.go's
// semaphore pattern, narrowed here to capacity 1 per device (§5).
package pollscheduler

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/txfleet/txcore/internal/mibmap"
	"github.com/txfleet/txcore/internal/metricparser"
	"github.com/txfleet/txcore/internal/models"
	"github.com/txfleet/txcore/internal/store"
)

const defaultPollInterval = 10 * time.Second

// sessionManager is the subset of *snmpsession.Manager the scheduler needs.
// Declared here so tests can substitute a fake session source without a
// live UDP target.
type sessionManager interface {
	Open(deviceID string, params models.SNMPParams) error
	Get(deviceID string, oids []string) ([]models.Varbind, error)
	CloseAll()
}

// entry tracks one device's next-fire time and poll configuration.
type entry struct {
	transmitterID string
	interval      time.Duration
	nextRun       time.Time
	sem           chan struct{} // capacity 1: at-most-one concurrent poll per device
}

// Scheduler is the production Poll Scheduler.
type Scheduler struct {
	store    store.Store
	sessions sessionManager
	mapper   *mibmap.Mapper
	results  *resultStore
	logger   *slog.Logger

	mu      sync.Mutex
	entries []*entry

	done chan struct{}
}

// New constructs a Scheduler. It does not start automatically — call Start.
func New(st store.Store, sessions sessionManager, mapper *mibmap.Mapper, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	return &Scheduler{
		store:    st,
		sessions: sessions,
		mapper:   mapper,
		results:  newResultStore(),
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start runs the scheduling loop; blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	defer close(s.done)

	for {
		s.mu.Lock()
		if len(s.entries) == 0 {
			s.mu.Unlock()
			select {
			case <-ctx.Done():
				return
			case <-time.After(500 * time.Millisecond):
				continue
			}
		}

		sort.Slice(s.entries, func(i, j int) bool {
			return s.entries[i].nextRun.Before(s.entries[j].nextRun)
		})
		next := s.entries[0].nextRun
		s.mu.Unlock()

		delay := time.Until(next)
		if delay < 0 {
			delay = 0
		}
		timer := time.NewTimer(delay)

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		now := time.Now()
		s.mu.Lock()
		var due []*entry
		for _, e := range s.entries {
			if e.nextRun.After(now) {
				break
			}
			due = append(due, e)
			e.nextRun = now.Add(e.interval)
		}
		s.mu.Unlock()

		for _, e := range due {
			go s.tick(ctx, e)
		}
	}
}

// Stop waits for the scheduling loop to exit. The caller must cancel the
// context passed to Start first.
func (s *Scheduler) Stop() {
	<-s.done
}

// tick fires one poll attempt for e, subject to gating and the per-device
// concurrency limit (invariant 2: no two overlapping polls for one device).
func (s *Scheduler) tick(ctx context.Context, e *entry) {
	select {
	case e.sem <- struct{}{}:
	default:
		// A previous poll for this device is still in flight; skip this tick
		// rather than queueing, matching the "at most one concurrent poll"
		// invariant.
		return
	}
	defer func() { <-e.sem }()

	s.pollOnce(ctx, e.transmitterID)
}

// pollOnce performs the full gate-check/GET/parse/record/store sequence for
// one transmitter. Gating is re-checked here (not just at schedule time) to
// close the race between scheduling and execution (§4.5).
func (s *Scheduler) pollOnce(ctx context.Context, transmitterID string) {
	now := time.Now()

	allowed := s.gateAllows(ctx, transmitterID)
	if !allowed {
		return
	}

	tx, err := s.store.GetTransmitter(ctx, transmitterID)
	if err != nil {
		s.recordFailure(transmitterID, now, err)
		return
	}

	if err := s.sessions.Open(transmitterID, tx.SNMPParams()); err != nil {
		s.recordFailure(transmitterID, now, err)
		return
	}

	oids := ExpandOIDs(tx.OIDs)
	varbinds, err := s.sessions.Get(transmitterID, oids)
	if err != nil {
		s.recordFailure(transmitterID, now, err)
		return
	}

	s.annotateTypes(varbinds)

	raw := make(metricparser.RawMap, len(varbinds))
	for _, v := range varbinds {
		raw[v.OID] = v.Value
	}

	parsed := metricparser.Parse(transmitterID, now, raw, varbinds)
	metric := parsed.Metric

	s.results.Add(models.DeviceResult{
		TransmitterID: transmitterID,
		Timestamp:     now,
		Success:       true,
		Metric:        &metric,
	})

	// store_metrics is fire-and-forget: errors are logged and swallowed,
	// never propagated to the poll loop (§4.2, §7).
	if err := s.store.StoreMetric(ctx, metric); err != nil {
		s.logger.Warn("pollscheduler: store metric failed", "device", transmitterID, "error", err.Error())
	}

	// §4.3 radio-name passthrough: persist the proposed name only when it
	// differs from what's on record, avoiding a write (and the config-sync
	// reload it triggers) on every poll.
	if parsed.ProposedName != "" && parsed.ProposedName != tx.Name {
		if err := s.store.UpdateTransmitterName(ctx, transmitterID, parsed.ProposedName); err != nil {
			s.logger.Warn("pollscheduler: update transmitter name failed", "device", transmitterID, "error", err.Error())
		}
	}
}

// gateAllows consults transmitter.is_active and the owning site's
// is_active. If the gate check itself fails (storage error), it defaults
// to allow — a transient storage fault must never block polling (§4.5).
func (s *Scheduler) gateAllows(ctx context.Context, transmitterID string) bool {
	active, err := s.store.IsTransmitterActive(ctx, transmitterID)
	if err != nil {
		s.logger.Warn("pollscheduler: gate check failed, defaulting to allow", "device", transmitterID, "error", err.Error())
		return true
	}
	if !active {
		return false
	}

	tx, err := s.store.GetTransmitter(ctx, transmitterID)
	if err != nil {
		s.logger.Warn("pollscheduler: gate check failed, defaulting to allow", "device", transmitterID, "error", err.Error())
		return true
	}

	siteActive, err := s.store.IsSiteActive(ctx, tx.SiteID)
	if err != nil {
		s.logger.Warn("pollscheduler: site gate check failed, defaulting to allow", "device", transmitterID, "error", err.Error())
		return true
	}
	return siteActive
}

func (s *Scheduler) recordFailure(transmitterID string, at time.Time, err error) {
	s.results.Add(models.DeviceResult{
		TransmitterID: transmitterID,
		Timestamp:     at,
		Success:       false,
		Error:         err.Error(),
	})
	s.logger.Warn("pollscheduler: poll failed", "device", transmitterID, "error", err.Error())
}

// annotateTypes fills each varbind's Type with its MIB-mapped readable
// name, leaving it empty when unresolved (§4.1).
func (s *Scheduler) annotateTypes(varbinds []models.Varbind) {
	if s.mapper == nil {
		return
	}
	for i := range varbinds {
		varbinds[i].Type = s.mapper.Map(varbinds[i].OID)
	}
}

// ReloadFromStore stops tracking every current device, closes all open
// sessions, rebuilds the device table from store.ListTransmitters, and
// resumes scheduling. Historical results in the ring are preserved (§4.5).
func (s *Scheduler) ReloadFromStore(ctx context.Context) error {
	s.sessions.CloseAll()

	transmitters, err := s.store.ListTransmitters(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	entries := make([]*entry, 0, len(transmitters))
	for _, tx := range transmitters {
		interval := time.Duration(tx.PollIntervalMillis) * time.Millisecond
		if interval <= 0 {
			interval = defaultPollInterval
		}
		entries = append(entries, &entry{
			transmitterID: tx.ID,
			interval:      interval,
			nextRun:       now,
			sem:           make(chan struct{}, 1),
		})
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()

	s.logger.Info("pollscheduler: reloaded from store", "devices", len(entries))
	return nil
}

// DeviceStatus computes {online, last_seen, error_count} from the last 10
// recorded results for id (§4.5).
func (s *Scheduler) DeviceStatus(id string) models.DeviceStatus {
	return deriveDeviceStatus(id, s.results.Device(id, 10))
}

// Results returns up to limit results for a single device, newest first.
func (s *Scheduler) Results(deviceID string, limit int) []models.DeviceResult {
	return s.results.Device(deviceID, limit)
}

// ResultsAll returns the aggregate, capped view across every device.
func (s *Scheduler) ResultsAll() []models.DeviceResult {
	return s.results.All()
}

// ClearResults discards all recorded in-memory results.
func (s *Scheduler) ClearResults() {
	s.results.Clear()
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
