package session

import "github.com/okian/followrank/internal/domain/ranking"

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithMaxSize sets the maximum number of live sessions. Values <= 0 keep the default.
func WithMaxSize(maxSize int) Option {
	return func(r *Registry) {
		if maxSize > 0 {
			r.maxSize = maxSize
		}
	}
}

// WithCache shares a view-model cache between all session controllers.
func WithCache(c *ranking.Cache) Option {
	return func(r *Registry) {
		r.cache = c
	}
}
