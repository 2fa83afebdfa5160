package remote

import (
	"context"

	"github.com/llehouerou/trackvault/internal/track"
)

// Interface defines the remote catalogue contract. Every method returns
// domain tracks; the wire shape stays inside this package.
type Interface interface {
	List(ctx context.Context) ([]track.Track, error)
	Get(ctx context.Context, id track.ID) (track.Track, error)
	Create(ctx context.Context, t track.Track) (track.Track, error)
	Update(ctx context.Context, id track.ID, t track.Track) (track.Track, error)
	Delete(ctx context.Context, id track.ID) error
	SearchByTitle(ctx context.Context, q string) ([]track.Track, error)
	SearchByArtist(ctx context.Context, q string) ([]track.Track, error)
	ByCategory(ctx context.Context, c track.Category) ([]track.Track, error)
}

// Verify Client implements Interface at compile time.
var _ Interface = (*Client)(nil)
