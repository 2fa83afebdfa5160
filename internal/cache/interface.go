package cache

import (
	"context"

	"github.com/llehouerou/trackvault/internal/track"
)

// Interface defines the metadata cache contract for dependency injection and testing.
type Interface interface {
	ReadAll(ctx context.Context) ([]track.Track, error)
	WriteAll(ctx context.Context, tracks []track.Track) error
	Upsert(ctx context.Context, t track.Track) error
	Delete(ctx context.Context, id track.ID) error
	ReadOrder(ctx context.Context) ([]track.ID, error)
	WriteOrder(ctx context.Context, ids []track.ID) error
	Close() error
}

// Verify Store implements Interface at compile time.
var _ Interface = (*Store)(nil)
