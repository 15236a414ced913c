package configsync_test

import (
	"context"
	"testing"

	"github.com/txfleet/txcore/internal/configsync"
	"github.com/txfleet/txcore/internal/models"
	"github.com/txfleet/txcore/internal/store"
)

type countingReloader struct{ calls int }

func (r *countingReloader) ReloadFromStore(ctx context.Context) error {
	r.calls++
	return nil
}

func TestSyncedStore_WriteMethodsTriggerReload(t *testing.T) {
	ms := store.NewMemStore()
	reloader := &countingReloader{}
	notifier := configsync.New(reloader, nil)
	synced := configsync.Wrap(ms, notifier)
	ctx := context.Background()

	if _, err := synced.CreateSite(ctx, models.Site{ID: "site-1", IsActive: true}); err != nil {
		t.Fatalf("CreateSite: %v", err)
	}
	if _, err := synced.CreateTransmitter(ctx, models.Transmitter{ID: "tx-1", SiteID: "site-1"}); err != nil {
		t.Fatalf("CreateTransmitter: %v", err)
	}
	if err := synced.UpdateTransmitterName(ctx, "tx-1", "renamed"); err != nil {
		t.Fatalf("UpdateTransmitterName: %v", err)
	}
	if err := synced.DeleteTransmitter(ctx, "tx-1"); err != nil {
		t.Fatalf("DeleteTransmitter: %v", err)
	}
	if err := synced.DeleteSite(ctx, "site-1"); err != nil {
		t.Fatalf("DeleteSite: %v", err)
	}

	if reloader.calls != 5 {
		t.Errorf("reload calls = %d, want 5", reloader.calls)
	}
}

func TestSyncedStore_ReadMethodsDoNotTriggerReload(t *testing.T) {
	ms := store.NewMemStore()
	ms.PutSite(models.Site{ID: "site-1", IsActive: true})
	reloader := &countingReloader{}
	synced := configsync.Wrap(ms, configsync.New(reloader, nil))

	if _, err := synced.ListSites(context.Background()); err != nil {
		t.Fatalf("ListSites: %v", err)
	}
	if reloader.calls != 0 {
		t.Errorf("reload calls = %d, want 0", reloader.calls)
	}
}
