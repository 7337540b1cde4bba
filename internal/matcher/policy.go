package matcher

import (
	"cmp"
	"fmt"

	"github.com/desertthunder/spotlink/internal/models"
	"github.com/desertthunder/spotlink/internal/shared"
)

// FilterFunc keeps a candidate when it returns true.
type FilterFunc func(candidate models.Candidate, track *models.CatalogTrack) bool

// SortFunc is a three-way comparator: negative ranks a first, positive ranks b first, zero keeps node order.
type SortFunc func(a, b models.Candidate, track *models.CatalogTrack) int

// Policy controls candidate selection for a single resolution. Nil funcs accept every
// candidate and keep node order.
type Policy struct {
	PrioritizeSameDuration bool
	Filter                 FilterFunc
	Sort                   SortFunc
}

// DefaultPolicy accepts every candidate, keeps node order and skips the duration fast path.
func DefaultPolicy() Policy {
	return Policy{}
}

func (p *Policy) filter() FilterFunc {
	if p == nil || p.Filter == nil {
		return acceptAll
	}
	return p.Filter
}

func (p *Policy) sort() SortFunc {
	if p == nil || p.Sort == nil {
		return noPreference
	}
	return p.Sort
}

func acceptAll(models.Candidate, *models.CatalogTrack) bool { return true }

func noPreference(models.Candidate, models.Candidate, *models.CatalogTrack) int { return 0 }

// variantMarkers are title words that usually mean a different recording.
var variantMarkers = []string{
	"live", "remix", "cover", "karaoke", "instrumental", "acoustic",
	"sped up", "slowed", "nightcore", "8d audio", "reverb", "extended",
}

// ExcludeVariants drops candidates whose title carries a variant marker the catalog title lacks.
func ExcludeVariants(candidate models.Candidate, track *models.CatalogTrack) bool {
	for _, marker := range variantMarkers {
		if containsPhrase(candidate.Info.Title, marker) && !containsPhrase(track.Name, marker) {
			return false
		}
	}
	return true
}

// RequireArtist keeps candidates that credit any catalog artist in their author or title.
func RequireArtist(candidate models.Candidate, track *models.CatalogTrack) bool {
	for _, a := range track.Artists {
		if containsPhrase(candidate.Info.Author, a.Name) || containsPhrase(candidate.Info.Title, a.Name) {
			return true
		}
	}
	return false
}

// PreferClosestDuration ranks candidates by distance from the catalog duration.
func PreferClosestDuration(a, b models.Candidate, track *models.CatalogTrack) int {
	target := int64(track.DurationMS)
	return cmp.Compare(absDiff(a.Info.Length, target), absDiff(b.Info.Length, target))
}

// AllOf keeps a candidate only when every filter keeps it.
func AllOf(filters ...FilterFunc) FilterFunc {
	return func(candidate models.Candidate, track *models.CatalogTrack) bool {
		for _, f := range filters {
			if f != nil && !f(candidate, track) {
				return false
			}
		}
		return true
	}
}

// Sort names accepted by [PolicyFromConfig].
const (
	SortNone     = "none"
	SortDuration = "duration"
)

// PolicyOptions is the serializable form of a [Policy].
type PolicyOptions struct {
	PrioritizeSameDuration bool
	ExcludeVariants        bool
	RequireArtist          bool
	Sort                   string
}

// PolicyFromConfig assembles a Policy from the built-in filters and comparators.
func PolicyFromConfig(opts PolicyOptions) (Policy, error) {
	p := Policy{PrioritizeSameDuration: opts.PrioritizeSameDuration}

	var filters []FilterFunc
	if opts.ExcludeVariants {
		filters = append(filters, ExcludeVariants)
	}
	if opts.RequireArtist {
		filters = append(filters, RequireArtist)
	}
	switch len(filters) {
	case 0:
	case 1:
		p.Filter = filters[0]
	default:
		p.Filter = AllOf(filters...)
	}

	switch opts.Sort {
	case "", SortNone:
	case SortDuration:
		p.Sort = PreferClosestDuration
	default:
		return Policy{}, fmt.Errorf("%w: unknown sort %q", shared.ErrInvalidArgument, opts.Sort)
	}
	return p, nil
}

func absDiff(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}
