package reload

import (
	"context"

	"github.com/okian/followrank/internal/domain/model"
	"github.com/okian/followrank/pkg/logger"
)

// Option applies a configuration option to the Reloader.
type Option func(*Reloader)

// WithSchedule reloads on a standard five-field cron expression.
func WithSchedule(spec string) Option {
	return func(r *Reloader) {
		r.schedule = spec
	}
}

// WithOnPublish is called after every successfully published snapshot.
func WithOnPublish(fn func(ctx context.Context, snapshot *model.Snapshot)) Option {
	return func(r *Reloader) {
		r.onPublish = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Reloader) {
		if l != nil {
			r.logger = l
		}
	}
}
