package configsync

import (
	"context"

	"github.com/txfleet/txcore/internal/models"
	"github.com/txfleet/txcore/internal/store"
)

// SyncedStore wraps a store.Store and calls a Notifier's AfterWrite after
// every committed site/transmitter create/update/delete (§4.7). It embeds
// the inner store so every other method (reads, metrics, traps) passes
// through unchanged — only the site/transmitter write methods are
// overridden.
type SyncedStore struct {
	store.Store
	notifier *Notifier
}

// Wrap returns a Store identical to inner except that site/transmitter
// writes trigger notifier.AfterWrite once they commit.
func Wrap(inner store.Store, notifier *Notifier) *SyncedStore {
	return &SyncedStore{Store: inner, notifier: notifier}
}

func (s *SyncedStore) CreateSite(ctx context.Context, site models.Site) (models.Site, error) {
	out, err := s.Store.CreateSite(ctx, site)
	if err == nil {
		s.notifier.AfterWrite(ctx)
	}
	return out, err
}

func (s *SyncedStore) UpdateSite(ctx context.Context, id string, patch models.SitePatch) (models.Site, error) {
	out, err := s.Store.UpdateSite(ctx, id, patch)
	if err == nil {
		s.notifier.AfterWrite(ctx)
	}
	return out, err
}

func (s *SyncedStore) DeleteSite(ctx context.Context, id string) error {
	err := s.Store.DeleteSite(ctx, id)
	if err == nil {
		s.notifier.AfterWrite(ctx)
	}
	return err
}

func (s *SyncedStore) CreateTransmitter(ctx context.Context, t models.Transmitter) (models.Transmitter, error) {
	out, err := s.Store.CreateTransmitter(ctx, t)
	if err == nil {
		s.notifier.AfterWrite(ctx)
	}
	return out, err
}

func (s *SyncedStore) UpdateTransmitter(ctx context.Context, id string, patch models.TransmitterPatch) (models.Transmitter, error) {
	out, err := s.Store.UpdateTransmitter(ctx, id, patch)
	if err == nil {
		s.notifier.AfterWrite(ctx)
	}
	return out, err
}

func (s *SyncedStore) DeleteTransmitter(ctx context.Context, id string) error {
	err := s.Store.DeleteTransmitter(ctx, id)
	if err == nil {
		s.notifier.AfterWrite(ctx)
	}
	return err
}

func (s *SyncedStore) UpdateTransmitterName(ctx context.Context, id, name string) error {
	err := s.Store.UpdateTransmitterName(ctx, id, name)
	if err == nil {
		s.notifier.AfterWrite(ctx)
	}
	return err
}
