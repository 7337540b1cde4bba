package services

import (
	"context"

	"github.com/desertthunder/spotlink/internal/models"
)

// Authorizer supplies the Authorization header value for catalog requests.
//
// It is read at request-send time, so a renewal that lands mid-flight is picked up by the next request.
type Authorizer interface {
	Authorization() (string, error)
}

// CatalogSource is the read surface of the Spotify catalog used by the resolver and [CachedCatalog].
type CatalogSource interface {
	Track(ctx context.Context, trackID string) (*models.CatalogTrack, error)
	AlbumTracks(ctx context.Context, albumID string) ([]models.CatalogTrack, error)
	PlaylistTotal(ctx context.Context, playlistID string) (int, error)
	PlaylistTracks(ctx context.Context, playlistID string, limit, offset int) ([]models.CatalogTrack, error)
}

// AuthorizerFunc adapts a function to [Authorizer].
type AuthorizerFunc func() (string, error)

func (f AuthorizerFunc) Authorization() (string, error) { return f() }
