package ports

import (
	"context"
	"hue-bridge-integration/internal/domain/model"
)

// BridgeConnection is a live handle to one physical bridge.
type BridgeConnection interface {
	// Setup connects to the bridge. A non-nil error leaves the connection unusable.
	Setup(ctx context.Context) error
	// Reset releases the connection and reports whether that succeeded.
	Reset(ctx context.Context) bool
	// Config is only meaningful after a successful Setup.
	Config() model.BridgeDescriptor
	Status() model.BridgeStatus
}

// BridgeConnector builds a connection bound to an entry. It performs no I/O.
type BridgeConnector interface {
	Connect(entry *model.ConfigEntry) BridgeConnection
}

// BridgeLinker registers a new API user on a bridge whose link button was pressed.
type BridgeLinker interface {
	Link(ctx context.Context, host string) (username string, err error)
}
