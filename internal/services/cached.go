package services

import (
	"context"
	"fmt"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/desertthunder/spotlink/internal/models"
)

// CachedCatalog fronts a [CatalogSource] with LRU caches for track and album lookups.
//
// Catalog tracks and album listings are immutable, so entries never expire. Playlist
// reads always pass through since playlists change.
type CachedCatalog struct {
	source CatalogSource
	tracks *lru.Cache[string, models.CatalogTrack]
	albums *lru.Cache[string, []models.CatalogTrack]
}

// NewCachedCatalog wraps source with caches holding up to size entries each.
func NewCachedCatalog(source CatalogSource, size int) (*CachedCatalog, error) {
	tracks, err := lru.New[string, models.CatalogTrack](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create track cache: %w", err)
	}
	albums, err := lru.New[string, []models.CatalogTrack](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create album cache: %w", err)
	}
	return &CachedCatalog{source: source, tracks: tracks, albums: albums}, nil
}

func (c *CachedCatalog) Track(ctx context.Context, trackID string) (*models.CatalogTrack, error) {
	if t, ok := c.tracks.Get(trackID); ok {
		return &t, nil
	}
	t, err := c.source.Track(ctx, trackID)
	if err != nil {
		return nil, err
	}
	c.tracks.Add(trackID, *t)
	return t, nil
}

func (c *CachedCatalog) AlbumTracks(ctx context.Context, albumID string) ([]models.CatalogTrack, error) {
	if tracks, ok := c.albums.Get(albumID); ok {
		return slices.Clone(tracks), nil
	}
	tracks, err := c.source.AlbumTracks(ctx, albumID)
	if err != nil {
		return nil, err
	}
	c.albums.Add(albumID, slices.Clone(tracks))
	return tracks, nil
}

func (c *CachedCatalog) PlaylistTotal(ctx context.Context, playlistID string) (int, error) {
	return c.source.PlaylistTotal(ctx, playlistID)
}

func (c *CachedCatalog) PlaylistTracks(ctx context.Context, playlistID string, limit, offset int) ([]models.CatalogTrack, error) {
	return c.source.PlaylistTracks(ctx, playlistID, limit, offset)
}

// Len reports the number of cached tracks and albums.
func (c *CachedCatalog) Len() (tracks, albums int) {
	return c.tracks.Len(), c.albums.Len()
}
