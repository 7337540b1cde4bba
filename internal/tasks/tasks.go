package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/spotlink/internal/matcher"
	"github.com/desertthunder/spotlink/internal/models"
	"github.com/desertthunder/spotlink/internal/services"
	"github.com/desertthunder/spotlink/internal/shared"
)

// Catalog is the subset of the Spotify catalog the resolver reads.
type Catalog interface {
	Track(ctx context.Context, trackID string) (*models.CatalogTrack, error)
	AlbumTracks(ctx context.Context, albumID string) ([]models.CatalogTrack, error)
	PlaylistTotal(ctx context.Context, playlistID string) (int, error)
	PlaylistTracks(ctx context.Context, playlistID string, limit, offset int) ([]models.CatalogTrack, error)
}

// TrackMatcher selects a node candidate for one catalog track.
type TrackMatcher interface {
	FetchTrack(ctx context.Context, track *models.CatalogTrack, policy *matcher.Policy) (*models.Candidate, error)
}

// Credentials is the lifecycle of the catalog token owned by the resolver.
type Credentials interface {
	Start(ctx context.Context) error
	Close()
}

// MatchRecorder persists conversion outcomes. A nil candidate records a miss.
type MatchRecorder interface {
	RecordMatch(track models.CatalogTrack, candidate *models.Candidate) error
}

// Observer receives timing and outcome events, e.g. for metrics.
type Observer interface {
	ObserveFetch(kind string, err error)
	ObserveMatch(matched bool, err error, elapsed time.Duration)
}

// Resolution is the outcome for one catalog track. Index is its position in the source listing.
type Resolution struct {
	Index int
	Track *models.CatalogTrack
	Match *models.Candidate
	Err   error
}

// Matched reports whether a candidate was selected.
func (r Resolution) Matched() bool {
	return r.Match != nil
}

func (r Resolution) MarshalJSON() ([]byte, error) {
	out := struct {
		Index int                  `json:"index"`
		Track *models.CatalogTrack `json:"track"`
		Match *models.Candidate    `json:"match"`
		Error string               `json:"error,omitempty"`
	}{Index: r.Index, Track: r.Track, Match: r.Match}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}

// ResolverOpts wires a [Resolver]. Catalog and Matcher are required.
type ResolverOpts struct {
	Catalog     Catalog
	Matcher     TrackMatcher
	Credentials Credentials   // optional; started by Start and stopped by Close
	Recorder    MatchRecorder // optional
	Observer    Observer      // optional
	Concurrency int           // max concurrent matches in bulk conversion; 0 is unbounded
	Logger      *log.Logger
}

// Resolver fetches catalog metadata and converts it to node candidates.
type Resolver struct {
	catalog     Catalog
	matcher     TrackMatcher
	creds       Credentials
	recorder    MatchRecorder
	observer    Observer
	concurrency int
	logger      *log.Logger
}

// NewResolver creates a Resolver from opts.
func NewResolver(opts ResolverOpts) (*Resolver, error) {
	if opts.Catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}
	if opts.Matcher == nil {
		return nil, fmt.Errorf("%w: matcher not initialized", shared.ErrServiceUnavailable)
	}
	if opts.Concurrency < 0 {
		return nil, fmt.Errorf("%w: concurrency must not be negative", shared.ErrInvalidArgument)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{
		catalog:     opts.Catalog,
		matcher:     opts.Matcher,
		creds:       opts.Credentials,
		recorder:    opts.Recorder,
		observer:    opts.Observer,
		concurrency: opts.Concurrency,
		logger:      shared.WithLogger(logger, "component", "resolver"),
	}, nil
}

// Start obtains the first catalog token and begins background renewal.
func (r *Resolver) Start(ctx context.Context) error {
	if r.creds == nil {
		return nil
	}
	return r.creds.Start(ctx)
}

// Close stops background token renewal.
func (r *Resolver) Close() {
	if r.creds != nil {
		r.creds.Close()
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// GetTrack fetches one track and, when convert is set, selects its candidate.
// Errors from either step are returned to the caller.
func (r *Resolver) GetTrack(ctx context.Context, ref string, convert bool, policy *matcher.Policy) (*Resolution, error) {
	id, err := services.ParseSpotifyRef(services.RefTrack, ref)
	if err != nil {
		return nil, err
	}

	track, err := r.catalog.Track(ctx, id)
	r.observeFetch("track", err)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch track %s: %w", id, err)
	}

	res := &Resolution{Track: track}
	if !convert {
		return res, nil
	}

	match, err := r.FetchTrack(ctx, track, policy)
	if err != nil {
		return nil, err
	}
	res.Match = match
	return res, nil
}

// GetAlbumTracks fetches the first page of an album's tracks and optionally converts each one.
func (r *Resolver) GetAlbumTracks(ctx context.Context, ref string, convert bool, policy *matcher.Policy, progress chan<- ProgressUpdate) ([]Resolution, error) {
	id, err := services.ParseSpotifyRef(services.RefAlbum, ref)
	if err != nil {
		return nil, err
	}

	sendProgress(progress, fetchCatalogUpdate("album", id))
	tracks, err := r.catalog.AlbumTracks(ctx, id)
	r.observeFetch("album", err)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch album %s: %w", id, err)
	}

	r.logger.Info("fetched album", "id", id, "tracks", len(tracks))
	return r.resolveAll(ctx, tracks, convert, policy, progress)
}

// MaxPlaylistTotal bounds the track count a playlist may report before any page is requested.
const MaxPlaylistTotal = 100_000

// GetPlaylistTracks fetches every page of a playlist and optionally converts each track.
//
// Pages of [services.PlaylistPageLimit] are requested concurrently and concatenated in page order.
// Any page failure fails the whole call.
func (r *Resolver) GetPlaylistTracks(ctx context.Context, ref string, convert bool, policy *matcher.Policy, progress chan<- ProgressUpdate) ([]Resolution, error) {
	id, err := services.ParseSpotifyRef(services.RefPlaylist, ref)
	if err != nil {
		return nil, err
	}

	sendProgress(progress, fetchCatalogUpdate("playlist", id))
	total, err := r.catalog.PlaylistTotal(ctx, id)
	r.observeFetch("playlist", err)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlist %s: %w", id, err)
	}
	if total < 0 {
		return nil, fmt.Errorf("%w: playlist %s reported negative total %d", shared.ErrAPIRequest, id, total)
	}
	if total > MaxPlaylistTotal {
		return nil, fmt.Errorf("%w: playlist %s reported total %d above %d", shared.ErrAPIRequest, id, total, MaxPlaylistTotal)
	}

	offsets := PageOffsets(total, services.PlaylistPageLimit)
	pages := make([][]models.CatalogTrack, len(offsets))

	g, gctx := errgroup.WithContext(ctx)
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}
	var fetched atomic.Int32
	for i, offset := range offsets {
		g.Go(func() error {
			page, err := r.catalog.PlaylistTracks(gctx, id, services.PlaylistPageLimit, offset)
			r.observeFetch("playlist_page", err)
			if err != nil {
				return fmt.Errorf("failed to fetch playlist %s page at offset %d: %w", id, offset, err)
			}
			pages[i] = page
			sendProgress(progress, fetchPageUpdate(int(fetched.Add(1)), len(offsets), offset))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	size := 0
	for _, page := range pages {
		size += len(page)
	}
	tracks := make([]models.CatalogTrack, 0, size)
	for _, page := range pages {
		tracks = append(tracks, page...)
	}

	r.logger.Info("fetched playlist", "id", id, "total", total, "pages", len(offsets), "tracks", len(tracks))
	return r.resolveAll(ctx, tracks, convert, policy, progress)
}

// FetchTrack converts metadata the caller already holds. The outcome is recorded when a recorder is configured.
func (r *Resolver) FetchTrack(ctx context.Context, track *models.CatalogTrack, policy *matcher.Policy) (*models.Candidate, error) {
	start := time.Now()
	match, err := r.matcher.FetchTrack(ctx, track, policy)
	if r.observer != nil {
		r.observer.ObserveMatch(match != nil, err, time.Since(start))
	}
	if err != nil {
		return nil, err
	}

	if r.recorder != nil {
		if recErr := r.recorder.RecordMatch(*track, match); recErr != nil {
			r.logger.Debug("failed to record match", "track", track.ID, "err", recErr)
		}
	}
	return match, nil
}

// resolveAll returns one Resolution per track in input order, converting concurrently when asked.
func (r *Resolver) resolveAll(ctx context.Context, tracks []models.CatalogTrack, convert bool, policy *matcher.Policy, progress chan<- ProgressUpdate) ([]Resolution, error) {
	results := make([]Resolution, len(tracks))
	for i := range tracks {
		results[i] = Resolution{Index: i, Track: &tracks[i]}
	}
	if !convert || len(results) == 0 {
		return results, nil
	}

	// Siblings never cancel each other, so no derived context here.
	var g errgroup.Group
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}

	var done atomic.Int32
	for i := range results {
		g.Go(func() error {
			res := &results[i]
			res.Match, res.Err = r.FetchTrack(ctx, res.Track, policy)
			sendProgress(progress, matchTrackUpdate(int(done.Add(1)), len(results), res))
			return nil
		})
	}
	_ = g.Wait()

	matched, failed := Summarize(results)
	r.logger.Info("converted tracks", "total", len(results), "matched", matched, "failed", failed)

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func (r *Resolver) observeFetch(kind string, err error) {
	if r.observer != nil {
		r.observer.ObserveFetch(kind, err)
	}
}

// PageOffsets returns the offsets of ceil(total/limit) pages.
func PageOffsets(total, limit int) []int {
	if total <= 0 || limit <= 0 {
		return nil
	}
	n := (total + limit - 1) / limit
	offsets := make([]int, n)
	for k := range offsets {
		offsets[k] = k * limit
	}
	return offsets
}

// Summarize counts matched and failed resolutions.
func Summarize(results []Resolution) (matched, failed int) {
	for _, res := range results {
		switch {
		case res.Err != nil:
			failed++
		case res.Match != nil:
			matched++
		}
	}
	return matched, failed
}
