package repository

import "github.com/okian/followrank/internal/domain/ranking"

// Option applies a configuration option to the SnapshotStore.
type Option func(*SnapshotStore)

// WithCache resets c whenever a new snapshot is published.
func WithCache(c *ranking.Cache) Option {
	return func(s *SnapshotStore) {
		s.cache = c
	}
}
