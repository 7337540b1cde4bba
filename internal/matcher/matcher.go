package matcher

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/spotlink/internal/models"
	"github.com/desertthunder/spotlink/internal/shared"
)

// DurationTolerance is the inclusive distance, in milliseconds, accepted by the duration fast path.
const DurationTolerance = 1500

// QuerySuffix restricts searches to auto-generated topic uploads.
const QuerySuffix = `description:("Auto-generated by YouTube.")`

var (
	ErrMissingTrack   = fmt.Errorf("%w: catalog track is nil", shared.ErrMissingReference)
	ErrMissingArtists = fmt.Errorf("%w: catalog track has no artists", shared.ErrMissingReference)
	ErrMissingName    = fmt.Errorf("%w: catalog track has no name", shared.ErrMissingReference)
)

// Searcher runs one search on the audio node and returns candidates in node order.
type Searcher interface {
	Search(ctx context.Context, query string) ([]models.Candidate, error)
}

// Matcher resolves catalog tracks to node candidates. It holds no per-call state.
type Matcher struct {
	searcher Searcher
	logger   *log.Logger
}

// New creates a Matcher backed by searcher. A nil logger uses [log.Default].
func New(searcher Searcher, logger *log.Logger) *Matcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Matcher{searcher: searcher, logger: shared.WithLogger(logger, "component", "matcher")}
}

// Validate reports why track cannot be matched, or nil.
func Validate(track *models.CatalogTrack) error {
	switch {
	case track == nil:
		return ErrMissingTrack
	case len(track.Artists) == 0:
		return ErrMissingArtists
	case track.Name == "":
		return ErrMissingName
	}
	return nil
}

// BuildQuery returns "<name> <first artist> description:(...)" for a validated track.
func BuildQuery(track *models.CatalogTrack) string {
	return track.Name + " " + track.Artists[0].Name + " " + QuerySuffix
}

// FetchTrack searches for track and selects one candidate with policy. A nil policy uses [DefaultPolicy].
//
// No acceptable candidate is (nil, nil). Validation errors are returned before any search is issued.
func (m *Matcher) FetchTrack(ctx context.Context, track *models.CatalogTrack, policy *Policy) (*models.Candidate, error) {
	if err := Validate(track); err != nil {
		return nil, err
	}

	query := BuildQuery(track)
	candidates, err := m.searcher.Search(ctx, query)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			m.logger.Warn("search failed", "track", track.ID, "err", err)
		}
		return nil, err
	}

	selected := Select(candidates, track, policy)
	if selected == nil {
		m.logger.Debug("no candidate selected", "track", track.ID, "candidates", len(candidates))
	} else {
		m.logger.Debug("candidate selected", "track", track.ID, "identifier", selected.Info.Identifier)
	}
	return selected, nil
}

// Select picks one candidate for track. It never mutates candidates.
func Select(candidates []models.Candidate, track *models.CatalogTrack, policy *Policy) *models.Candidate {
	if len(candidates) == 0 {
		return nil
	}

	if policy != nil && policy.PrioritizeSameDuration {
		target := int64(track.DurationMS)
		for i := range candidates {
			if absDiff(candidates[i].Info.Length, target) <= DurationTolerance {
				c := candidates[i]
				return &c
			}
		}
	}

	keep := policy.filter()
	filtered := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if keep(c, track) {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 {
		return nil
	}

	compare := policy.sort()
	slices.SortStableFunc(filtered, func(a, b models.Candidate) int {
		return compare(a, b, track)
	})
	return &filtered[0]
}
