package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/txfleet/txcore/internal/models"
)

// MemStore is an in-memory Store fake for tests in other packages
// (pollscheduler, trapreceiver, configsync) that need a Store without a
// real database, matching the teacher's house style of testing against
// hand-rolled fakes rather than mocks of a concrete driver.
type MemStore struct {
	mu sync.Mutex

	sites        map[string]models.Site
	transmitters map[string]models.Transmitter
	metrics      []models.TransmitterMetricRow
	traps        []models.SnmpTrap
	alarms       map[string][]models.Alarm
}

// NewMemStore constructs an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		sites:        make(map[string]models.Site),
		transmitters: make(map[string]models.Transmitter),
		alarms:       make(map[string][]models.Alarm),
	}
}

func (m *MemStore) Close() {}

func (m *MemStore) InitializeSchema(ctx context.Context) error { return nil }

// PutSite and PutTransmitter are test-only helpers to seed fixtures.
func (m *MemStore) PutSite(s models.Site) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sites[s.ID] = s
}

func (m *MemStore) PutTransmitter(t models.Transmitter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transmitters[t.ID] = t
}

func (m *MemStore) ListSites(ctx context.Context) ([]models.Site, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Site, 0, len(m.sites))
	for _, s := range m.sites {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) GetSite(ctx context.Context, id string) (models.Site, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sites[id]
	if !ok {
		return models.Site{}, fmt.Errorf("memstore: site %s: %w", id, ErrNotFound)
	}
	return s, nil
}

func (m *MemStore) CreateSite(ctx context.Context, s models.Site) (models.Site, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now
	m.sites[s.ID] = s
	return s, nil
}

func (m *MemStore) UpdateSite(ctx context.Context, id string, patch models.SitePatch) (models.Site, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sites[id]
	if !ok {
		return models.Site{}, fmt.Errorf("memstore: site %s: %w", id, ErrNotFound)
	}
	applySitePatch(&s, patch)
	s.UpdatedAt = time.Now().UTC()
	m.sites[id] = s
	return s, nil
}

func (m *MemStore) DeleteSite(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sites, id)
	for tid, t := range m.transmitters {
		if t.SiteID == id {
			delete(m.transmitters, tid)
		}
	}
	return nil
}

func (m *MemStore) IsSiteActive(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sites[id]
	if !ok {
		return false, fmt.Errorf("memstore: site %s: %w", id, ErrNotFound)
	}
	return s.IsActive, nil
}

func (m *MemStore) ListTransmitters(ctx context.Context) ([]models.Transmitter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Transmitter, 0, len(m.transmitters))
	for _, t := range m.transmitters {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) GetTransmitter(ctx context.Context, id string) (models.Transmitter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transmitters[id]
	if !ok {
		return models.Transmitter{}, fmt.Errorf("memstore: transmitter %s: %w", id, ErrNotFound)
	}
	return t, nil
}

func (m *MemStore) CreateTransmitter(ctx context.Context, t models.Transmitter) (models.Transmitter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	m.transmitters[t.ID] = t
	return t, nil
}

func (m *MemStore) UpdateTransmitter(ctx context.Context, id string, patch models.TransmitterPatch) (models.Transmitter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transmitters[id]
	if !ok {
		return models.Transmitter{}, fmt.Errorf("memstore: transmitter %s: %w", id, ErrNotFound)
	}
	applyTransmitterPatch(&t, patch)
	t.UpdatedAt = time.Now().UTC()
	m.transmitters[id] = t
	return t, nil
}

func (m *MemStore) DeleteTransmitter(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.transmitters, id)
	return nil
}

func (m *MemStore) UpdateTransmitterName(ctx context.Context, id, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transmitters[id]
	if !ok {
		return fmt.Errorf("memstore: transmitter %s: %w", id, ErrNotFound)
	}
	t.Name = name
	t.UpdatedAt = time.Now().UTC()
	m.transmitters[id] = t
	return nil
}

func (m *MemStore) IsTransmitterActive(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transmitters[id]
	if !ok {
		return false, fmt.Errorf("memstore: transmitter %s: %w", id, ErrNotFound)
	}
	return t.IsActive, nil
}

func (m *MemStore) FindTransmitterByHost(ctx context.Context, host string) ([]models.Transmitter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Transmitter
	for _, t := range m.transmitters {
		if t.Host == host {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) StoreMetric(ctx context.Context, row models.TransmitterMetricRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics = append(m.metrics, row)
	return nil
}

func (m *MemStore) ListMetrics(ctx context.Context, transmitterID string, since time.Time, limit int) ([]models.TransmitterMetricRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.TransmitterMetricRow
	for i := len(m.metrics) - 1; i >= 0; i-- {
		row := m.metrics[i]
		if row.TransmitterID != transmitterID || row.Timestamp.Before(since) {
			continue
		}
		out = append(out, row)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MemStore) StoreTrap(ctx context.Context, trap models.SnmpTrap) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.traps = append(m.traps, trap)
	return nil
}

func (m *MemStore) ListTraps(ctx context.Context, limit int) ([]models.SnmpTrap, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.SnmpTrap
	for i := len(m.traps) - 1; i >= 0; i-- {
		out = append(out, m.traps[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MemStore) ListAlarms(ctx context.Context, transmitterID string) ([]models.Alarm, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Alarm(nil), m.alarms[transmitterID]...), nil
}
