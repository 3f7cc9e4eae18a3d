package ports

import (
	"context"
	"hue-bridge-integration/internal/domain/model"
)

// EntryStore persists config entries.
type EntryStore interface {
	ListEntries(ctx context.Context, domain string) ([]*model.ConfigEntry, error)
	GetEntry(ctx context.Context, entryID string) (*model.ConfigEntry, error)
	AddEntry(ctx context.Context, entry *model.ConfigEntry) (*model.ConfigEntry, error)
	UpdateEntry(ctx context.Context, entryID string, update model.EntryUpdate) (*model.ConfigEntry, error)
	RemoveEntry(ctx context.Context, entryID string) error
}

// FlowInitiator schedules creation of a config entry. Init never waits for
// the entry to be created.
type FlowInitiator interface {
	Init(ctx context.Context, req model.FlowRequest)
}
