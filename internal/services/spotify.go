// Spotify Web API catalog client
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/spotlink/internal/models"
	"github.com/desertthunder/spotlink/internal/shared"
)

const (
	spotifyBaseURL = "https://api.spotify.com/v1"

	// AlbumPageLimit is the page size used for album track listings; only one page is read.
	AlbumPageLimit = 50
	// PlaylistPageLimit is the maximum page size for playlist items.
	PlaylistPageLimit = 100
)

type externalIDs struct {
	ISRC string `json:"isrc"`
}

// SpotifyTrack represents a Spotify track (full or simplified).
type SpotifyTrack struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	DurationMS  int             `json:"duration_ms"`
	ExternalIDs externalIDs     `json:"external_ids"`
	URI         string          `json:"uri"`
}

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyPage is the paging object wrapping list responses.
type SpotifyPage[T any] struct {
	Items  []T     `json:"items"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
	Next   *string `json:"next"`
}

// SpotifyPlaylistItem is one entry of a playlist. Track is null for unavailable or local items.
type SpotifyPlaylistItem struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

// SpotifyPlaylist represents the playlist object; only the item total is read.
type SpotifyPlaylist struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Tracks struct {
		Total int `json:"total"`
	} `json:"tracks"`
	URI string `json:"uri"`
}

// CatalogTrack converts the API object into the domain DTO.
func (t SpotifyTrack) CatalogTrack() models.CatalogTrack {
	artists := make([]models.CatalogArtist, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, models.CatalogArtist{ID: a.ID, Name: a.Name})
	}
	return models.CatalogTrack{
		ID:         t.ID,
		Name:       t.Name,
		Artists:    artists,
		DurationMS: t.DurationMS,
		ISRC:       t.ExternalIDs.ISRC,
		URI:        t.URI,
	}
}

// SpotifyService reads catalog metadata from the Spotify Web API using a bearer token from an [Authorizer].
type SpotifyService struct {
	auth       Authorizer
	baseURL    string
	httpClient *http.Client
}

// NewSpotifyService creates a catalog client. An empty baseURL uses the public API and a nil client uses [http.DefaultClient].
func NewSpotifyService(auth Authorizer, baseURL string, client *http.Client) *SpotifyService {
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &SpotifyService{auth: auth, baseURL: baseURL, httpClient: client}
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// doRequest performs an authenticated GET against the API and decodes the JSON body into result.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, query url.Values, result any) error {
	if s.auth == nil {
		return fmt.Errorf("%w: no authorizer configured", shared.ErrNotAuthenticated)
	}
	header, err := s.auth.Authorization()
	if err != nil {
		return err
	}

	apiURL := s.baseURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", header)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", shared.ErrNotFound, endpoint)
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: spotify rejected the access token", shared.ErrNotAuthenticated)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: spotify API error: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// Track retrieves a single track by ID.
func (s *SpotifyService) Track(ctx context.Context, trackID string) (*models.CatalogTrack, error) {
	var track SpotifyTrack
	if err := s.doRequest(ctx, "/tracks/"+url.PathEscape(trackID), nil, &track); err != nil {
		return nil, err
	}
	ct := track.CatalogTrack()
	return &ct, nil
}

// AlbumTracks retrieves the first page (up to [AlbumPageLimit]) of an album's tracks.
func (s *SpotifyService) AlbumTracks(ctx context.Context, albumID string) ([]models.CatalogTrack, error) {
	var page SpotifyPage[SpotifyTrack]
	query := url.Values{"limit": {strconv.Itoa(AlbumPageLimit)}}
	if err := s.doRequest(ctx, "/albums/"+url.PathEscape(albumID)+"/tracks", query, &page); err != nil {
		return nil, err
	}

	tracks := make([]models.CatalogTrack, 0, len(page.Items))
	for _, item := range page.Items {
		tracks = append(tracks, item.CatalogTrack())
	}
	return tracks, nil
}

// Playlist retrieves a playlist object by ID.
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (*SpotifyPlaylist, error) {
	var playlist SpotifyPlaylist
	if err := s.doRequest(ctx, "/playlists/"+url.PathEscape(playlistID), nil, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// PlaylistTotal returns the playlist's item count.
func (s *SpotifyService) PlaylistTotal(ctx context.Context, playlistID string) (int, error) {
	p, err := s.Playlist(ctx, playlistID)
	if err != nil {
		return 0, err
	}
	return p.Tracks.Total, nil
}

// PlaylistTracks retrieves one page of playlist items.
//
// Items without a track object are kept as empty [models.CatalogTrack] values so the page stays positionally aligned.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, playlistID string, limit, offset int) ([]models.CatalogTrack, error) {
	if limit <= 0 || limit > PlaylistPageLimit {
		limit = PlaylistPageLimit
	}
	if offset < 0 {
		offset = 0
	}

	query := url.Values{
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(offset)},
	}

	var page SpotifyPage[SpotifyPlaylistItem]
	if err := s.doRequest(ctx, "/playlists/"+url.PathEscape(playlistID)+"/tracks", query, &page); err != nil {
		return nil, err
	}

	tracks := make([]models.CatalogTrack, 0, len(page.Items))
	for _, item := range page.Items {
		if item.Track == nil {
			tracks = append(tracks, models.CatalogTrack{})
			continue
		}
		tracks = append(tracks, item.Track.CatalogTrack())
	}
	return tracks, nil
}
