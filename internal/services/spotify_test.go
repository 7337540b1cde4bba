package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/spotlink/internal/shared"
	tu "github.com/desertthunder/spotlink/internal/testing"
)

const trackJSON = `{
	"id": "4uLU6hMCjMI75M1A2tKUQC",
	"name": "Never Gonna Give You Up",
	"artists": [{"id": "0gxyHStUsqpMadRV0Di1Qt", "name": "Rick Astley"}, {"id": "x", "name": "Someone Else"}],
	"duration_ms": 213573,
	"external_ids": {"isrc": "GBARL9300135"},
	"uri": "spotify:track:4uLU6hMCjMI75M1A2tKUQC"
}`

func TestSpotifyService(t *testing.T) {
	auth := tu.StaticAuthorizer{Header: "Bearer test-token"}

	t.Run("New", func(t *testing.T) {
		srv := NewSpotifyService(auth, "", nil)
		if srv.baseURL != spotifyBaseURL {
			t.Errorf("expected default base url, got %s", srv.baseURL)
		}
		if srv.httpClient != http.DefaultClient {
			t.Error("expected http.DefaultClient to be used")
		}
		if srv.Name() != "Spotify" {
			t.Errorf("expected service name 'Spotify', got %s", srv.Name())
		}
	})

	t.Run("Track", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/tracks/4uLU6hMCjMI75M1A2tKUQC" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
				t.Errorf("expected bearer header, got %q", got)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(trackJSON))
		}))
		defer server.Close()

		srv := NewSpotifyService(auth, server.URL, nil)
		track, err := srv.Track(context.Background(), "4uLU6hMCjMI75M1A2tKUQC")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if track.Name != "Never Gonna Give You Up" {
			t.Errorf("unexpected name %q", track.Name)
		}
		if track.PrimaryArtist() != "Rick Astley" {
			t.Errorf("unexpected primary artist %q", track.PrimaryArtist())
		}
		if len(track.Artists) != 2 {
			t.Errorf("expected 2 artists, got %d", len(track.Artists))
		}
		if track.DurationMS != 213573 || track.ISRC != "GBARL9300135" {
			t.Errorf("unexpected duration/isrc %d/%s", track.DurationMS, track.ISRC)
		}
	})

	t.Run("AlbumTracks Reads One Page", func(t *testing.T) {
		var requests int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
			if r.URL.Path != "/albums/album1/tracks" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if got := r.URL.Query().Get("limit"); got != "50" {
				t.Errorf("expected limit=50, got %q", got)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"items":[` + trackJSON + `,` + trackJSON + `],"total":60,"limit":50,"offset":0,"next":"https://api.spotify.com/v1/albums/album1/tracks?offset=50"}`))
		}))
		defer server.Close()

		srv := NewSpotifyService(auth, server.URL, nil)
		tracks, err := srv.AlbumTracks(context.Background(), "album1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(tracks) != 2 {
			t.Errorf("expected 2 tracks, got %d", len(tracks))
		}
		if requests != 1 {
			t.Errorf("expected a single request, got %d", requests)
		}
	})

	t.Run("PlaylistTotal", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/playlists/pl1" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"pl1","name":"Mix","tracks":{"total":250}}`))
		}))
		defer server.Close()

		srv := NewSpotifyService(auth, server.URL, nil)
		total, err := srv.PlaylistTotal(context.Background(), "pl1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if total != 250 {
			t.Errorf("expected 250, got %d", total)
		}
	})

	t.Run("PlaylistTracks", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/playlists/pl1/tracks" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			q := r.URL.Query()
			if q.Get("limit") != "100" || q.Get("offset") != "200" {
				t.Errorf("expected limit=100 offset=200, got %s", r.URL.RawQuery)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"items":[{"added_at":"2024-01-01T00:00:00Z","track":` + trackJSON + `},{"track":null}],"total":202}`))
		}))
		defer server.Close()

		srv := NewSpotifyService(auth, server.URL, nil)
		tracks, err := srv.PlaylistTracks(context.Background(), "pl1", 500, 200)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(tracks) != 2 {
			t.Fatalf("expected null items to be kept, got %d tracks", len(tracks))
		}
		if tracks[1].Name != "" {
			t.Errorf("expected empty track for null item, got %+v", tracks[1])
		}
	})

	t.Run("Error Mapping", func(t *testing.T) {
		tt := []struct {
			name    string
			status  int
			wantErr error
		}{
			{name: "not found", status: http.StatusNotFound, wantErr: shared.ErrNotFound},
			{name: "unauthorized", status: http.StatusUnauthorized, wantErr: shared.ErrNotAuthenticated},
			{name: "server error", status: http.StatusInternalServerError, wantErr: shared.ErrAPIRequest},
			{name: "rate limited", status: http.StatusTooManyRequests, wantErr: shared.ErrAPIRequest},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tc.status)
				}))
				defer server.Close()

				srv := NewSpotifyService(auth, server.URL, nil)
				_, err := srv.Track(context.Background(), "abc")
				if !errors.Is(err, tc.wantErr) {
					t.Errorf("expected %v, got %v", tc.wantErr, err)
				}
			})
		}
	})

	t.Run("Authorizer Error Skips Request", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("should not be called"))}
		srv := NewSpotifyService(tu.StaticAuthorizer{Err: shared.ErrInvalidCredentials}, "http://example.invalid", client)

		_, err := srv.Track(context.Background(), "abc")
		if !errors.Is(err, shared.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("Transport Error", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("network down"))}
		srv := NewSpotifyService(auth, "http://example.invalid", client)

		_, err := srv.Track(context.Background(), "abc")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Nil Authorizer", func(t *testing.T) {
		srv := NewSpotifyService(nil, "http://example.invalid", nil)
		if _, err := srv.Track(context.Background(), "abc"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}
