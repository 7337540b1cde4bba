package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or HTTP layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchCatalog Phase = iota
	FetchPage
	MatchTracks
)

func (p Phase) String() string {
	switch p {
	case FetchCatalog:
		return "fetch_catalog"
	case FetchPage:
		return "fetch_page"
	case MatchTracks:
		return "match_tracks"
	default:
		return ""
	}
}

func fetchCatalogUpdate(kind, id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCatalog,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching %s %s from Spotify...", kind, id),
	}
}

func fetchPageUpdate(step, total, offset int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPage,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetched playlist page at offset %d", step, total, offset),
	}
}

func matchTrackUpdate(step, total int, res *Resolution) ProgressUpdate {
	status := "✓"
	switch {
	case res.Err != nil:
		status = "✗"
	case res.Match == nil:
		status = "-"
	}
	return ProgressUpdate{
		Phase:   MatchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s - %s", step, total, status, res.Track.PrimaryArtist(), res.Track.Name),
		Data:    res,
	}
}
