package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/txfleet/txcore/internal/models"
	"github.com/txfleet/txcore/internal/store"
)

func TestMemStore_DeleteSiteCascadesTransmitters(t *testing.T) {
	ms := store.NewMemStore()
	ctx := context.Background()

	ms.PutSite(models.Site{ID: "site-1", IsActive: true})
	ms.PutTransmitter(models.Transmitter{ID: "tx-1", SiteID: "site-1"})

	if err := ms.DeleteSite(ctx, "site-1"); err != nil {
		t.Fatalf("DeleteSite: %v", err)
	}

	if _, err := ms.GetTransmitter(ctx, "tx-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetTransmitter after cascade delete: err = %v, want ErrNotFound", err)
	}
}

func TestMemStore_GetMissingReturnsErrNotFound(t *testing.T) {
	ms := store.NewMemStore()
	if _, err := ms.GetSite(context.Background(), "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMemStore_FindTransmitterByHost(t *testing.T) {
	ms := store.NewMemStore()
	ms.PutTransmitter(models.Transmitter{ID: "tx-1", Host: "10.0.0.5"})
	ms.PutTransmitter(models.Transmitter{ID: "tx-2", Host: "10.0.0.6"})

	got, err := ms.FindTransmitterByHost(context.Background(), "10.0.0.5")
	if err != nil {
		t.Fatalf("FindTransmitterByHost: %v", err)
	}
	if len(got) != 1 || got[0].ID != "tx-1" {
		t.Errorf("got %+v, want single tx-1", got)
	}
}

func TestMemStore_ListMetricsOrderedNewestFirst(t *testing.T) {
	ms := store.NewMemStore()
	ctx := context.Background()

	base := models.TransmitterMetricRow{TransmitterID: "tx-1", Timestamp: time.Unix(1000, 0).UTC()}
	for i := 0; i < 3; i++ {
		row := base
		row.Timestamp = base.Timestamp.Add(time.Duration(i) * time.Second)
		row.Status = "active"
		_ = ms.StoreMetric(ctx, row)
	}

	got, err := ms.ListMetrics(ctx, "tx-1", base.Timestamp, 2)
	if err != nil {
		t.Fatalf("ListMetrics: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2 (limit respected)", len(got))
	}
	if want := base.Timestamp.Add(2 * time.Second); !got[0].Timestamp.Equal(want) {
		t.Errorf("got[0].Timestamp = %v, want newest %v", got[0].Timestamp, want)
	}
}
