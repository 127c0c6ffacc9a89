package token

import (
	"context"

	"github.com/kayrahq/fetchkit/logger"
)

// Source bundles a Storage and a Coordinator into the credential view the
// HTTP layer consumes: Current reads, Refresh goes through single-flight.
type Source struct {
	storage     Storage
	coordinator *Coordinator
}

// NewSource creates a Source over in-flight-deduplicated refreshes.
func NewSource(storage Storage, refresh RefreshFunc, log *logger.Logger) *Source {
	return &Source{
		storage:     storage,
		coordinator: NewCoordinator(storage, refresh, log),
	}
}

// Current returns the stored token pair, or nil when none exists.
func (s *Source) Current(ctx context.Context) (*Token, error) {
	return s.storage.Get(ctx)
}

// Refresh exchanges the stored pair for a fresh one. Concurrent calls share
// one upstream refresh.
func (s *Source) Refresh(ctx context.Context) (*Token, error) {
	return s.coordinator.Refresh(ctx, nil)
}

// Coordinator exposes the underlying refresh coordinator.
func (s *Source) Coordinator() *Coordinator {
	return s.coordinator
}
