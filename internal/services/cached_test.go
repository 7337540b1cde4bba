package services

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/spotlink/internal/models"
	tu "github.com/desertthunder/spotlink/internal/testing"
)

func TestCachedCatalog(t *testing.T) {
	source := &tu.FakeCatalog{
		Tracks: map[string]models.CatalogTrack{"t1": tu.Track("t1", "Song", "Artist", 200000)},
		Albums: map[string][]models.CatalogTrack{"a1": {
			tu.Track("t2", "One", "Band", 100000),
			tu.Track("t3", "Two", "Band", 120000),
		}},
		Playlists: map[string][]models.CatalogTrack{"p1": {tu.Track("t4", "Four", "X", 1)}},
	}

	cached, err := NewCachedCatalog(source, 8)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	ctx := context.Background()

	t.Run("Track Is Fetched Once", func(t *testing.T) {
		for range 3 {
			track, err := cached.Track(ctx, "t1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if track.Name != "Song" {
				t.Errorf("unexpected track %+v", track)
			}
		}
		if got := countCalls(source, "track:t1"); got != 1 {
			t.Errorf("expected 1 upstream call, got %d", got)
		}
	})

	t.Run("Album Copies Are Independent", func(t *testing.T) {
		first, err := cached.AlbumTracks(ctx, "a1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		first[0].Name = "mutated"

		second, err := cached.AlbumTracks(ctx, "a1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if second[0].Name != "One" {
			t.Errorf("cache entry was mutated through a returned slice: %q", second[0].Name)
		}
		if got := countCalls(source, "album:a1"); got != 1 {
			t.Errorf("expected 1 upstream call, got %d", got)
		}
	})

	t.Run("Playlists Pass Through", func(t *testing.T) {
		for range 2 {
			if _, err := cached.PlaylistTotal(ctx, "p1"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if _, err := cached.PlaylistTracks(ctx, "p1", 100, 0); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		}
		if got := countCalls(source, "playlist:p1"); got != 2 {
			t.Errorf("expected playlist total to hit upstream twice, got %d", got)
		}
	})

	t.Run("Errors Are Not Cached", func(t *testing.T) {
		failing := &tu.FakeCatalog{Err: errors.New("boom")}
		c, _ := NewCachedCatalog(failing, 4)
		for range 2 {
			if _, err := c.Track(ctx, "x"); err == nil {
				t.Fatal("expected error")
			}
		}
		if failing.CallCount() != 2 {
			t.Errorf("expected both calls to reach upstream, got %d", failing.CallCount())
		}
		tracks, albums := c.Len()
		if tracks != 0 || albums != 0 {
			t.Errorf("expected empty cache, got %d/%d", tracks, albums)
		}
	})

	t.Run("Invalid Size", func(t *testing.T) {
		if _, err := NewCachedCatalog(source, 0); err == nil {
			t.Error("expected error for zero size")
		}
	})
}

func countCalls(f *tu.FakeCatalog, call string) int {
	n := 0
	for _, c := range f.Calls {
		if c == call {
			n++
		}
	}
	return n
}
