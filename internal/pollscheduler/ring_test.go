package pollscheduler

import (
	"testing"
	"time"

	"github.com/txfleet/txcore/internal/models"
)

func TestResultRing_BoundedAt100(t *testing.T) {
	ring := newResultRing(perDeviceRingCapacity)
	base := time.Now()
	for i := 0; i < 150; i++ {
		ring.Add(models.DeviceResult{
			TransmitterID: "tx-1",
			Timestamp:     base.Add(time.Duration(i) * time.Second),
			Success:       true,
		})
	}

	got := ring.Recent(0)
	if len(got) != perDeviceRingCapacity {
		t.Fatalf("len = %d, want %d", len(got), perDeviceRingCapacity)
	}
	// Newest-first: the last Add call (i=149) should be got[0].
	want := base.Add(149 * time.Second)
	if !got[0].Timestamp.Equal(want) {
		t.Errorf("got[0].Timestamp = %v, want %v", got[0].Timestamp, want)
	}
}

func TestResultStore_PerDeviceIsolation(t *testing.T) {
	rs := newResultStore()
	base := time.Now()

	// One very active device...
	for i := 0; i < 500; i++ {
		rs.Add(models.DeviceResult{TransmitterID: "busy", Timestamp: base.Add(time.Duration(i) * time.Millisecond), Success: true})
	}
	// ...must not evict a quiet device's single result.
	rs.Add(models.DeviceResult{TransmitterID: "quiet", Timestamp: base, Success: true})

	quiet := rs.Device("quiet", 0)
	if len(quiet) != 1 {
		t.Fatalf("quiet device results = %d, want 1 (not evicted by busy device)", len(quiet))
	}
}

func TestResultStore_AllCapsAtAggregateView(t *testing.T) {
	rs := newResultStore()
	base := time.Now()
	// 12 devices with a full per-device ring each: 1200 retained results >
	// aggregateViewCapacity.
	for d := 0; d < 12; d++ {
		id := string(rune('a' + d))
		for i := 0; i < perDeviceRingCapacity; i++ {
			rs.Add(models.DeviceResult{TransmitterID: id, Timestamp: base.Add(time.Duration(i) * time.Millisecond), Success: true})
		}
	}

	all := rs.All()
	if len(all) > aggregateViewCapacity {
		t.Fatalf("len(all) = %d, want <= %d", len(all), aggregateViewCapacity)
	}
}

func TestResultStore_Clear(t *testing.T) {
	rs := newResultStore()
	rs.Add(models.DeviceResult{TransmitterID: "tx-1", Timestamp: time.Now(), Success: true})
	rs.Clear()
	if got := rs.Device("tx-1", 0); len(got) != 0 {
		t.Errorf("after Clear, got %d results, want 0", len(got))
	}
}
