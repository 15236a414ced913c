package pollscheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/txfleet/txcore/internal/models"
	"github.com/txfleet/txcore/internal/store"
)

// fakeSessions is a sessionManager test double. Get can be made to block
// briefly and records the peak number of concurrent calls per device, so
// tests can assert invariant 2 (at most one concurrent poll per device).
type fakeSessions struct {
	mu       sync.Mutex
	inFlight map[string]int
	peak     map[string]int
	delay    time.Duration
	getCalls int32
}

func newFakeSessions(delay time.Duration) *fakeSessions {
	return &fakeSessions{
		inFlight: make(map[string]int),
		peak:     make(map[string]int),
		delay:    delay,
	}
}

func (f *fakeSessions) Open(deviceID string, params models.SNMPParams) error { return nil }

func (f *fakeSessions) Get(deviceID string, oids []string) ([]models.Varbind, error) {
	atomic.AddInt32(&f.getCalls, 1)

	f.mu.Lock()
	f.inFlight[deviceID]++
	if f.inFlight[deviceID] > f.peak[deviceID] {
		f.peak[deviceID] = f.inFlight[deviceID]
	}
	f.mu.Unlock()

	time.Sleep(f.delay)

	f.mu.Lock()
	f.inFlight[deviceID]--
	f.mu.Unlock()

	return []models.Varbind{
		{OID: "1.3.6.1.4.1.31946.4.2.6.10.1", Value: int64(500)},
		{OID: "1.3.6.1.4.1.31946.4.2.6.10.2", Value: int64(10)},
	}, nil
}

func (f *fakeSessions) CloseAll() {}

func (f *fakeSessions) peakFor(deviceID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.peak[deviceID]
}

func seedTransmitter(t *testing.T, st *store.MemStore, id string, active bool) {
	t.Helper()
	st.PutSite(models.Site{ID: "site-1", Name: "Site One", IsActive: true})
	st.PutTransmitter(models.Transmitter{
		ID:                 id,
		SiteID:             "site-1",
		Name:               "TX " + id,
		Host:               "10.0.0.1",
		Port:               161,
		Community:          "public",
		Version:            1,
		PollIntervalMillis: 1,
		OIDs:               []string{"1.3.6.1.4.1.31946.4.2.6.10.1"},
		IsActive:           active,
	})
}

// TestScheduler_GatingBlocksInactiveTransmitter covers invariant 1: an
// inactive transmitter is never polled, even when due.
func TestScheduler_GatingBlocksInactiveTransmitter(t *testing.T) {
	st := store.NewMemStore()
	seedTransmitter(t, st, "tx-1", false)

	fs := newFakeSessions(0)
	sched := New(st, fs, nil, nil)

	sched.pollOnce(context.Background(), "tx-1")

	if got := atomic.LoadInt32(&fs.getCalls); got != 0 {
		t.Errorf("Get called %d times for an inactive transmitter, want 0", got)
	}
}

// TestScheduler_GatingBlocksInactiveSite covers the site half of invariant 1.
func TestScheduler_GatingBlocksInactiveSite(t *testing.T) {
	st := store.NewMemStore()
	st.PutSite(models.Site{ID: "site-1", Name: "Site One", IsActive: false})
	st.PutTransmitter(models.Transmitter{
		ID: "tx-1", SiteID: "site-1", Host: "10.0.0.1", Port: 161,
		Community: "public", Version: 1, PollIntervalMillis: 1,
		OIDs: []string{"1.3.6.1.4.1.31946.4.2.6.10.1"}, IsActive: true,
	})

	fs := newFakeSessions(0)
	sched := New(st, fs, nil, nil)

	sched.pollOnce(context.Background(), "tx-1")

	if got := atomic.LoadInt32(&fs.getCalls); got != 0 {
		t.Errorf("Get called %d times for a transmitter at an inactive site, want 0", got)
	}
}

// TestScheduler_AtMostOneConcurrentPollPerDevice covers invariant 2: firing
// many overlapping ticks for one device never runs more than one GET at a
// time for that device.
func TestScheduler_AtMostOneConcurrentPollPerDevice(t *testing.T) {
	st := store.NewMemStore()
	seedTransmitter(t, st, "tx-1", true)

	fs := newFakeSessions(30 * time.Millisecond)
	sched := New(st, fs, nil, nil)

	e := &entry{transmitterID: "tx-1", interval: time.Second, sem: make(chan struct{}, 1)}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sched.tick(context.Background(), e)
		}()
	}
	wg.Wait()

	if peak := fs.peakFor("tx-1"); peak > 1 {
		t.Errorf("peak concurrent Get calls for tx-1 = %d, want <= 1", peak)
	}
}

// TestScheduler_PollOnceRecordsSuccessResult covers the happy-path S1
// scenario end to end through pollOnce into the result ring.
func TestScheduler_PollOnceRecordsSuccessResult(t *testing.T) {
	st := store.NewMemStore()
	seedTransmitter(t, st, "tx-1", true)

	fs := newFakeSessions(0)
	sched := New(st, fs, nil, nil)

	sched.pollOnce(context.Background(), "tx-1")

	results := sched.Results("tx-1", 1)
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if !results[0].Success {
		t.Fatalf("result.Success = false, want true: %s", results[0].Error)
	}
	if results[0].Metric == nil || results[0].Metric.ForwardPower == nil {
		t.Fatalf("metric missing forward power")
	}
	if *results[0].Metric.ForwardPower != 500 {
		t.Errorf("ForwardPower = %v, want 500", *results[0].Metric.ForwardPower)
	}

	status := sched.DeviceStatus("tx-1")
	if !status.Online {
		t.Errorf("DeviceStatus.Online = false after a successful poll")
	}
}

// TestScheduler_PollOnceRecordsFailureOnGetError covers S2/S5-style
// transient-error handling: a GET failure records a failed result but must
// not tear down the scheduler or panic.
func TestScheduler_PollOnceRecordsFailureOnGetError(t *testing.T) {
	st := store.NewMemStore()
	seedTransmitter(t, st, "tx-1", true)

	sched := New(st, failingSessions{}, nil, nil)
	sched.pollOnce(context.Background(), "tx-1")

	results := sched.Results("tx-1", 1)
	if len(results) != 1 || results[0].Success {
		t.Fatalf("expected one failed result, got %+v", results)
	}
}

type failingSessions struct{}

func (failingSessions) Open(deviceID string, params models.SNMPParams) error { return nil }
func (failingSessions) Get(deviceID string, oids []string) ([]models.Varbind, error) {
	return nil, fmt.Errorf("simulated transport failure")
}
func (failingSessions) CloseAll() {}

// TestScheduler_ReloadFromStoreRebuildsEntries covers ReloadFromStore
// picking up transmitters added after the scheduler was constructed, while
// preserving prior result history.
func TestScheduler_ReloadFromStoreRebuildsEntries(t *testing.T) {
	st := store.NewMemStore()
	fs := newFakeSessions(0)
	sched := New(st, fs, nil, nil)

	sched.results.Add(models.DeviceResult{TransmitterID: "tx-1", Timestamp: time.Now(), Success: true})

	seedTransmitter(t, st, "tx-1", true)
	if err := sched.ReloadFromStore(context.Background()); err != nil {
		t.Fatalf("ReloadFromStore: %v", err)
	}

	sched.mu.Lock()
	n := len(sched.entries)
	sched.mu.Unlock()
	if n != 1 {
		t.Fatalf("len(entries) after reload = %d, want 1", n)
	}

	if got := sched.Results("tx-1", 0); len(got) != 1 {
		t.Errorf("result history lost across reload: got %d, want 1", len(got))
	}
}

// radioNameSessions returns a radio-name varbind alongside forward power,
// so pollOnce's §4.3 passthrough has something to propose.
type radioNameSessions struct{}

func (radioNameSessions) Open(deviceID string, params models.SNMPParams) error { return nil }
func (radioNameSessions) Get(deviceID string, oids []string) ([]models.Varbind, error) {
	return []models.Varbind{
		{OID: "1.3.6.1.4.1.31946.4.2.6.10.1", Value: int64(500)},
		{OID: "1.3.6.1.4.1.31946.3.1.7.0", Value: "Tower East"},
	}, nil
}
func (radioNameSessions) CloseAll() {}

// TestScheduler_PollOnceUpdatesTransmitterNameFromRadioNamePassthrough
// covers the §4.2 persistence contract: a differing radio-name OID value
// updates the stored transmitter name.
func TestScheduler_PollOnceUpdatesTransmitterNameFromRadioNamePassthrough(t *testing.T) {
	st := store.NewMemStore()
	seedTransmitter(t, st, "tx-1", true)

	sched := New(st, radioNameSessions{}, nil, nil)
	sched.pollOnce(context.Background(), "tx-1")

	tx, err := st.GetTransmitter(context.Background(), "tx-1")
	if err != nil {
		t.Fatalf("GetTransmitter: %v", err)
	}
	if tx.Name != "Tower East" {
		t.Errorf("transmitter name = %q, want %q", tx.Name, "Tower East")
	}
}

// TestScheduler_PollOnceSkipsNameUpdateWhenUnchanged ensures a matching
// radio-name value doesn't trigger a spurious store write.
func TestScheduler_PollOnceSkipsNameUpdateWhenUnchanged(t *testing.T) {
	st := store.NewMemStore()
	seedTransmitter(t, st, "tx-1", true)
	tx, _ := st.GetTransmitter(context.Background(), "tx-1")
	tx.Name = "Tower East"
	st.PutTransmitter(tx)

	sched := New(st, radioNameSessions{}, nil, nil)
	sched.pollOnce(context.Background(), "tx-1")

	got, err := st.GetTransmitter(context.Background(), "tx-1")
	if err != nil {
		t.Fatalf("GetTransmitter: %v", err)
	}
	if got.UpdatedAt != tx.UpdatedAt {
		t.Errorf("UpdatedAt changed despite an unchanged radio name")
	}
}
