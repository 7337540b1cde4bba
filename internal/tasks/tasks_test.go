package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/spotlink/internal/matcher"
	"github.com/desertthunder/spotlink/internal/models"
	"github.com/desertthunder/spotlink/internal/shared"
	tu "github.com/desertthunder/spotlink/internal/testing"
)

const (
	trackID    = "4uLU6hMCjMI75M1A2tKUQC"
	albumID    = "1DFixLWuPkv3KT3TnV35m3"
	playlistID = "37i9dQZF1DXcBWIGoYBM5M"
)

type mockCredentials struct {
	startErr error
	started  int
	closed   int
}

func (m *mockCredentials) Start(context.Context) error {
	m.started++
	return m.startErr
}

func (m *mockCredentials) Close() { m.closed++ }

type mockRecorder struct {
	mu      sync.Mutex
	records []string
	err     error
}

func (m *mockRecorder) RecordMatch(track models.CatalogTrack, candidate *models.Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := ""
	if candidate != nil {
		id = candidate.Info.Identifier
	}
	m.records = append(m.records, track.ID+"="+id)
	return m.err
}

type mockObserver struct {
	mu      sync.Mutex
	fetches []string
	matches int
}

func (m *mockObserver) ObserveFetch(kind string, _ error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches = append(m.fetches, kind)
}

func (m *mockObserver) ObserveMatch(bool, error, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matches++
}

func newResolver(t *testing.T, catalog Catalog, searcher matcher.Searcher, opts ...func(*ResolverOpts)) *Resolver {
	t.Helper()
	o := ResolverOpts{Catalog: catalog, Matcher: matcher.New(searcher, nil)}
	for _, fn := range opts {
		fn(&o)
	}
	r, err := NewResolver(o)
	if err != nil {
		t.Fatalf("failed to create resolver: %v", err)
	}
	return r
}

func queryFor(track models.CatalogTrack) string {
	return matcher.BuildQuery(&track)
}

func TestNewResolver(t *testing.T) {
	m := matcher.New(&tu.FakeSearcher{}, nil)
	if _, err := NewResolver(ResolverOpts{Matcher: m}); !errors.Is(err, shared.ErrServiceUnavailable) {
		t.Errorf("expected ErrServiceUnavailable without catalog, got %v", err)
	}
	if _, err := NewResolver(ResolverOpts{Catalog: &tu.FakeCatalog{}}); !errors.Is(err, shared.ErrServiceUnavailable) {
		t.Errorf("expected ErrServiceUnavailable without matcher, got %v", err)
	}
	if _, err := NewResolver(ResolverOpts{Catalog: &tu.FakeCatalog{}, Matcher: m, Concurrency: -1}); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for negative concurrency, got %v", err)
	}
}

func TestResolverLifecycle(t *testing.T) {
	creds := &mockCredentials{}
	r := newResolver(t, &tu.FakeCatalog{}, &tu.FakeSearcher{}, func(o *ResolverOpts) { o.Credentials = creds })

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	r.Close()
	if creds.started != 1 || creds.closed != 1 {
		t.Errorf("expected one start and one close, got %d/%d", creds.started, creds.closed)
	}

	failing := &mockCredentials{startErr: shared.ErrInvalidCredentials}
	r = newResolver(t, &tu.FakeCatalog{}, &tu.FakeSearcher{}, func(o *ResolverOpts) { o.Credentials = failing })
	if err := r.Start(context.Background()); !errors.Is(err, shared.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}

	bare := newResolver(t, &tu.FakeCatalog{}, &tu.FakeSearcher{})
	if err := bare.Start(context.Background()); err != nil {
		t.Errorf("start without credentials should be a no-op, got %v", err)
	}
	bare.Close()
}

func TestResolverReferences(t *testing.T) {
	ctx := context.Background()
	catalog := &tu.FakeCatalog{}
	searcher := &tu.FakeSearcher{}
	r := newResolver(t, catalog, searcher)

	t.Run("Missing", func(t *testing.T) {
		if _, err := r.GetTrack(ctx, "", true, nil); !errors.Is(err, shared.ErrMissingReference) {
			t.Errorf("track: expected ErrMissingReference, got %v", err)
		}
		if _, err := r.GetAlbumTracks(ctx, "", true, nil, nil); !errors.Is(err, shared.ErrMissingReference) {
			t.Errorf("album: expected ErrMissingReference, got %v", err)
		}
		if _, err := r.GetPlaylistTracks(ctx, " ", true, nil, nil); !errors.Is(err, shared.ErrMissingReference) {
			t.Errorf("playlist: expected ErrMissingReference, got %v", err)
		}
	})

	t.Run("Wrong Type", func(t *testing.T) {
		if _, err := r.GetTrack(ctx, "spotify:album:"+albumID, true, nil); !errors.Is(err, shared.ErrInvalidType) {
			t.Errorf("track: expected ErrInvalidType, got %v", err)
		}
		if _, err := r.GetAlbumTracks(ctx, "https://open.spotify.com/playlist/"+playlistID, true, nil, nil); !errors.Is(err, shared.ErrInvalidType) {
			t.Errorf("album: expected ErrInvalidType, got %v", err)
		}
		if _, err := r.GetPlaylistTracks(ctx, "spotify:track:"+trackID, true, nil, nil); !errors.Is(err, shared.ErrInvalidType) {
			t.Errorf("playlist: expected ErrInvalidType, got %v", err)
		}
	})

	if catalog.CallCount() != 0 || searcher.QueryCount() != 0 {
		t.Errorf("invalid references reached the network: %d catalog calls, %d searches", catalog.CallCount(), searcher.QueryCount())
	}
}

func TestResolverGetTrack(t *testing.T) {
	ctx := context.Background()
	track := tu.Track(trackID, "Song X", "Artist A", 200000)

	t.Run("Metadata Only", func(t *testing.T) {
		searcher := &tu.FakeSearcher{}
		r := newResolver(t, &tu.FakeCatalog{Tracks: map[string]models.CatalogTrack{trackID: track}}, searcher)

		res, err := r.GetTrack(ctx, "spotify:track:"+trackID, false, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.Track.Name != "Song X" || res.Match != nil {
			t.Errorf("unexpected resolution %+v", res)
		}
		if searcher.QueryCount() != 0 {
			t.Error("metadata-only lookup should not search")
		}
	})

	t.Run("Converts With Duration Fast Path", func(t *testing.T) {
		searcher := &tu.FakeSearcher{Results: map[string][]models.Candidate{
			queryFor(track): {tu.Candidate("yt", "Song X", "Artist A", 200800)},
		}}
		recorder := &mockRecorder{}
		observer := &mockObserver{}
		r := newResolver(t, &tu.FakeCatalog{Tracks: map[string]models.CatalogTrack{trackID: track}}, searcher, func(o *ResolverOpts) {
			o.Recorder = recorder
			o.Observer = observer
		})

		policy := &matcher.Policy{
			PrioritizeSameDuration: true,
			Filter: func(models.Candidate, *models.CatalogTrack) bool {
				t.Error("filter should not run on the fast path")
				return true
			},
		}
		res, err := r.GetTrack(ctx, trackID, true, policy)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !res.Matched() || res.Match.Info.Identifier != "yt" {
			t.Fatalf("expected yt match, got %+v", res.Match)
		}
		if !slices.Equal(recorder.records, []string{trackID + "=yt"}) {
			t.Errorf("unexpected records %v", recorder.records)
		}
		if observer.matches != 1 || !slices.Equal(observer.fetches, []string{"track"}) {
			t.Errorf("unexpected observations %+v", observer)
		}
	})

	t.Run("Match Errors Propagate", func(t *testing.T) {
		r := newResolver(t, &tu.FakeCatalog{Tracks: map[string]models.CatalogTrack{trackID: track}}, &tu.FakeSearcher{Err: shared.ErrLoadFailed})
		if _, err := r.GetTrack(ctx, trackID, true, nil); !errors.Is(err, shared.ErrLoadFailed) {
			t.Errorf("expected ErrLoadFailed, got %v", err)
		}
	})

	t.Run("Catalog Errors Propagate", func(t *testing.T) {
		r := newResolver(t, &tu.FakeCatalog{Err: shared.ErrNotFound}, &tu.FakeSearcher{})
		if _, err := r.GetTrack(ctx, trackID, false, nil); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Recorder Failure Is Ignored", func(t *testing.T) {
		searcher := &tu.FakeSearcher{Results: map[string][]models.Candidate{
			queryFor(track): {tu.Candidate("yt", "", "", 1)},
		}}
		r := newResolver(t, &tu.FakeCatalog{Tracks: map[string]models.CatalogTrack{trackID: track}}, searcher, func(o *ResolverOpts) {
			o.Recorder = &mockRecorder{err: errors.New("disk full")}
		})
		if _, err := r.GetTrack(ctx, trackID, true, nil); err != nil {
			t.Errorf("recorder errors should not surface, got %v", err)
		}
	})
}

func TestResolverGetAlbumTracks(t *testing.T) {
	ctx := context.Background()
	tracks := []models.CatalogTrack{
		tu.Track("t0", "Hit", "Band", 100000),
		tu.Track("t1", "Broken", "Band", 100000),
		tu.Track("t2", "Obscure", "Band", 100000),
		{ID: "t3", Name: "No Artist"},
	}
	searcher := &tu.FakeSearcher{Fn: func(_ context.Context, query string) ([]models.Candidate, error) {
		switch {
		case strings.HasPrefix(query, "Hit "):
			return []models.Candidate{tu.Candidate("hit", "Hit", "Band", 100000)}, nil
		case strings.HasPrefix(query, "Broken "):
			return nil, shared.ErrLoadFailed
		default:
			return nil, nil
		}
	}}
	catalog := &tu.FakeCatalog{Albums: map[string][]models.CatalogTrack{albumID: tracks}}
	r := newResolver(t, catalog, searcher)

	progress := make(chan ProgressUpdate, 16)
	results, err := r.GetAlbumTracks(ctx, "https://open.spotify.com/album/"+albumID, true, nil, progress)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(results) != len(tracks) {
		t.Fatalf("expected %d results, got %d", len(tracks), len(results))
	}
	for i, res := range results {
		if res.Index != i || res.Track.ID != tracks[i].ID {
			t.Errorf("result %d misaligned: index %d track %s", i, res.Index, res.Track.ID)
		}
	}

	if !results[0].Matched() || results[0].Match.Info.Identifier != "hit" {
		t.Errorf("expected first track matched, got %+v", results[0])
	}
	if results[1].Matched() || !errors.Is(results[1].Err, shared.ErrLoadFailed) {
		t.Errorf("expected second track to carry ErrLoadFailed, got %+v", results[1])
	}
	if results[2].Matched() || results[2].Err != nil {
		t.Errorf("expected third track to be a clean miss, got %+v", results[2])
	}
	if !errors.Is(results[3].Err, matcher.ErrMissingArtists) {
		t.Errorf("expected fourth track to fail validation, got %+v", results[3])
	}

	matched, failed := Summarize(results)
	if matched != 1 || failed != 2 {
		t.Errorf("expected 1 matched and 2 failed, got %d/%d", matched, failed)
	}

	close(progress)
	var phases []Phase
	for u := range progress {
		phases = append(phases, u.Phase)
	}
	if len(phases) != 1+len(tracks) || phases[0] != FetchCatalog {
		t.Errorf("unexpected progress phases %v", phases)
	}
}

func TestResolverGetPlaylistTracks(t *testing.T) {
	ctx := context.Background()

	t.Run("Pages In Order", func(t *testing.T) {
		items := make([]models.CatalogTrack, 250)
		for i := range items {
			items[i] = tu.Track(fmt.Sprintf("t%03d", i), fmt.Sprintf("Song %d", i), "Artist", 1000)
		}
		catalog := &tu.FakeCatalog{Playlists: map[string][]models.CatalogTrack{playlistID: items}}
		r := newResolver(t, catalog, &tu.FakeSearcher{})

		results, err := r.GetPlaylistTracks(ctx, playlistID, false, nil, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		pages := slices.Clone(catalog.Pages)
		slices.Sort(pages)
		if !slices.Equal(pages, []int{0, 100, 200}) {
			t.Errorf("expected pages at 0/100/200, got %v", catalog.Pages)
		}
		if len(results) != 250 {
			t.Fatalf("expected 250 results, got %d", len(results))
		}
		for i, res := range results {
			if res.Index != i || res.Track.ID != items[i].ID {
				t.Fatalf("result %d out of order: %s", i, res.Track.ID)
			}
		}
	})

	t.Run("Empty Playlist Fetches No Pages", func(t *testing.T) {
		catalog := &tu.FakeCatalog{Playlists: map[string][]models.CatalogTrack{}}
		r := newResolver(t, catalog, &tu.FakeSearcher{})

		results, err := r.GetPlaylistTracks(ctx, playlistID, true, nil, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(results) != 0 || len(catalog.Pages) != 0 {
			t.Errorf("expected no results and no pages, got %d/%v", len(results), catalog.Pages)
		}
	})

	t.Run("Page Failure Fails The Call", func(t *testing.T) {
		catalog := &tu.FakeCatalog{Err: shared.ErrAPIRequest}
		r := newResolver(t, catalog, &tu.FakeSearcher{})
		if _, err := r.GetPlaylistTracks(ctx, playlistID, false, nil, nil); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Malformed Total", func(t *testing.T) {
		for _, total := range []int{-1, MaxPlaylistTotal + 1} {
			catalog := &tu.FakeCatalog{
				Playlists: map[string][]models.CatalogTrack{},
				Totals:    map[string]int{playlistID: total},
			}
			r := newResolver(t, catalog, &tu.FakeSearcher{})

			results, err := r.GetPlaylistTracks(ctx, playlistID, false, nil, nil)
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("total %d: expected ErrAPIRequest, got %v", total, err)
			}
			if results != nil {
				t.Errorf("total %d: expected no results, got %d", total, len(results))
			}
			if len(catalog.Pages) != 0 || catalog.CallCount() != 1 {
				t.Errorf("total %d: expected only the total request, got %v", total, catalog.Calls)
			}
		}
	})

	t.Run("Short Pages", func(t *testing.T) {
		items := []models.CatalogTrack{tu.Track("t0", "Song", "Artist", 1000)}
		catalog := &tu.FakeCatalog{
			Playlists: map[string][]models.CatalogTrack{playlistID: items},
			Totals:    map[string]int{playlistID: 150},
		}
		r := newResolver(t, catalog, &tu.FakeSearcher{})

		results, err := r.GetPlaylistTracks(ctx, playlistID, false, nil, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(results) != 1 || len(catalog.Pages) != 2 {
			t.Errorf("expected 1 result from 2 pages, got %d from %v", len(results), catalog.Pages)
		}
	})

	t.Run("Concurrency Limit", func(t *testing.T) {
		items := make([]models.CatalogTrack, 20)
		for i := range items {
			items[i] = tu.Track(fmt.Sprintf("t%d", i), fmt.Sprintf("Song %d", i), "Artist", 1000)
		}

		var inFlight, peak atomic.Int32
		searcher := &tu.FakeSearcher{Fn: func(context.Context, string) ([]models.Candidate, error) {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
			return []models.Candidate{tu.Candidate("x", "", "", 1000)}, nil
		}}

		catalog := &tu.FakeCatalog{Playlists: map[string][]models.CatalogTrack{playlistID: items}}
		r := newResolver(t, catalog, searcher, func(o *ResolverOpts) { o.Concurrency = 3 })

		results, err := r.GetPlaylistTracks(ctx, playlistID, true, nil, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if matched, _ := Summarize(results); matched != 20 {
			t.Errorf("expected 20 matches, got %d", matched)
		}
		if got := peak.Load(); got > 3 {
			t.Errorf("expected at most 3 concurrent searches, saw %d", got)
		}
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		items := []models.CatalogTrack{tu.Track("t0", "Song", "Artist", 1)}
		searcher := &tu.FakeSearcher{Fn: func(ctx context.Context, _ string) ([]models.Candidate, error) {
			return nil, ctx.Err()
		}}
		catalog := &tu.FakeCatalog{Playlists: map[string][]models.CatalogTrack{playlistID: items}}
		r := newResolver(t, catalog, searcher)

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := r.GetPlaylistTracks(cctx, playlistID, true, nil, nil); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestPageOffsets(t *testing.T) {
	tt := []struct {
		total int
		want  []int
	}{
		{total: 0, want: nil},
		{total: 1, want: []int{0}},
		{total: 100, want: []int{0}},
		{total: 101, want: []int{0, 100}},
		{total: 250, want: []int{0, 100, 200}},
	}
	for _, tc := range tt {
		t.Run(fmt.Sprint(tc.total), func(t *testing.T) {
			if got := PageOffsets(tc.total, 100); !slices.Equal(got, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestResolutionJSON(t *testing.T) {
	track := tu.Track("t1", "Song", "Artist", 1000)
	res := Resolution{Index: 2, Track: &track, Err: shared.ErrLoadFailed}

	data, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if decoded["error"] != shared.ErrLoadFailed.Error() {
		t.Errorf("expected error message, got %v", decoded["error"])
	}
	if decoded["match"] != nil {
		t.Errorf("expected null match, got %v", decoded["match"])
	}
}

func TestSendProgress(t *testing.T) {
	sendProgress(nil, ProgressUpdate{})

	ch := make(chan ProgressUpdate, 1)
	sendProgress(ch, ProgressUpdate{Phase: FetchPage})
	sendProgress(ch, ProgressUpdate{Phase: MatchTracks}) // full, dropped

	if got := <-ch; got.Phase != FetchPage {
		t.Errorf("expected first update to be kept, got %v", got.Phase)
	}
	if FetchPage.String() != "fetch_page" || Phase(99).String() != "" {
		t.Error("unexpected phase names")
	}
}
