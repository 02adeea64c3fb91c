package source

import (
	"context"

	"github.com/okian/followrank/internal/domain/model"
	"github.com/okian/followrank/pkg/logger"
)

// Fallback serves secondary whenever primary fails to fetch.
type Fallback struct {
	primary   Source
	secondary Source
	logger    logger.Logger
}

// NewFallback wraps primary with secondary.
func NewFallback(primary, secondary Source, log logger.Logger) *Fallback {
	return &Fallback{primary: primary, secondary: secondary, logger: log}
}

// Name implements Source.
func (f *Fallback) Name() string { return f.primary.Name() }

// Fetch implements Source.
func (f *Fallback) Fetch(ctx context.Context) ([]model.RankedEntity, error) {
	entities, err := f.primary.Fetch(ctx)
	if err == nil {
		return entities, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}
	if f.logger != nil {
		f.logger.Warn(ctx, "primary source failed, using fallback",
			logger.String("primary", f.primary.Name()),
			logger.String("fallback", f.secondary.Name()),
			logger.Error(err))
	}
	return f.secondary.Fetch(ctx)
}
