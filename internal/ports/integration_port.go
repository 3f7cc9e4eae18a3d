package ports

import (
	"context"
	"hue-bridge-integration/internal/domain/model"
)

// IntegrationPort is what the admin API drives.
type IntegrationPort interface {
	ListEntries(ctx context.Context) ([]*model.ConfigEntry, error)
	GetEntry(ctx context.Context, entryID string) (*model.ConfigEntry, error)
	SetupEntryByID(ctx context.Context, entryID string) (bool, error)
	UnloadEntryByID(ctx context.Context, entryID string) (bool, error)
	// RemoveEntryByID unloads the entry when loaded and deletes it.
	RemoveEntryByID(ctx context.Context, entryID string) error
	// Bridge returns the descriptor of a loaded entry.
	Bridge(entryID string) (model.BridgeDescriptor, bool)
	Status(entryID string) (model.BridgeStatus, bool)
	// LegacyConfig returns the imported YAML record for host.
	LegacyConfig(host string) (model.LegacyBridgeConfig, bool)
}
