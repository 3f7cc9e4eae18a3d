package notify

import (
	"context"
	"errors"
	"hue-bridge-integration/internal/domain/model"
	"hue-bridge-integration/internal/ports"

	"github.com/rs/zerolog"
)

// Fanout delivers every notification to all sinks. A failing sink does not
// stop delivery to the others; the failures are joined into the result.
type Fanout struct {
	sinks  []ports.NotificationSink
	logger zerolog.Logger
}

func NewFanout(logger zerolog.Logger, sinks ...ports.NotificationSink) *Fanout {
	return &Fanout{sinks: sinks, logger: logger}
}

func (f *Fanout) Add(sink ports.NotificationSink) {
	f.sinks = append(f.sinks, sink)
}

func (f *Fanout) Create(ctx context.Context, n model.Notification) error {
	var errs []error
	for _, sink := range f.sinks {
		if err := sink.Create(ctx, n); err != nil {
			f.logger.Error().Err(err).Str("notification_id", n.ID).Msg("Notification delivery failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Dismiss forwards to every sink that supports dismissal.
func (f *Fanout) Dismiss(ctx context.Context, id string) error {
	var errs []error
	for _, sink := range f.sinks {
		d, ok := sink.(ports.NotificationDismisser)
		if !ok {
			continue
		}
		if err := d.Dismiss(ctx, id); err != nil {
			f.logger.Error().Err(err).Str("notification_id", id).Msg("Notification dismissal failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
