package repositories

import (
	"errors"
	"fmt"
	"sync"

	"github.com/desertthunder/spotlink/internal/models"
	"github.com/desertthunder/spotlink/internal/shared"
)

// MatchRecorder implements tasks.MatchRecorder using MatchRepository.
//
// Keeps one live record per catalog track: a repeat conversion updates the existing row.
type MatchRecorder struct {
	repo *MatchRepository
	mu   sync.Mutex
}

// NewMatchRecorder creates a new MatchRecorder with the given repository
func NewMatchRecorder(repo *MatchRepository) *MatchRecorder {
	return &MatchRecorder{repo: repo}
}

// RecordMatch stores the outcome for track. A nil candidate records a miss.
// Tracks without an ID (local or unavailable playlist items) are skipped.
func (a *MatchRecorder) RecordMatch(track models.CatalogTrack, candidate *models.Candidate) error {
	if track.ID == "" {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	existing, err := a.repo.GetByCatalogID(track.ID)
	switch {
	case err == nil:
		existing.SetCandidate(candidate)
		if err := a.repo.Update(existing); err != nil {
			return fmt.Errorf("failed to record match: %w", err)
		}
		return nil
	case !errors.Is(err, shared.ErrNotFound):
		return fmt.Errorf("failed to look up match: %w", err)
	}

	if err := a.repo.Create(models.NewPersistedMatch(0, track, candidate)); err != nil {
		return fmt.Errorf("failed to record match: %w", err)
	}
	return nil
}
