package ports

import (
	"context"
	"hue-bridge-integration/internal/domain/model"
)

type NotificationSink interface {
	Create(ctx context.Context, n model.Notification) error
}

// NotificationDismisser removes a notification from an external system.
type NotificationDismisser interface {
	Dismiss(ctx context.Context, id string) error
}

// NotificationStore keeps created notifications for listing.
type NotificationStore interface {
	NotificationSink
	List(ctx context.Context) []model.Notification
	Dismiss(ctx context.Context, id string) bool
}

type DeviceRegistry interface {
	GetOrCreate(ctx context.Context, spec model.DeviceSpec) (*model.Device, error)
	Get(ctx context.Context, id string) (*model.Device, error)
	List(ctx context.Context) ([]*model.Device, error)
}
