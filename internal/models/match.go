package models

import (
	"fmt"
	"time"
)

// PersistedMatch records how one catalog track was converted.
//
// A match with Matched() == false is a recorded miss: the node returned nothing acceptable.
type PersistedMatch struct {
	id        string
	sequence  int
	catalogID string
	title     string
	artist    string
	duration  int
	matched   bool
	candidate CandidateInfo
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewPersistedMatch builds an unsaved record from a catalog track and the selected candidate, which may be nil.
func NewPersistedMatch(sequence int, track CatalogTrack, candidate *Candidate) *PersistedMatch {
	now := time.Now()
	m := &PersistedMatch{
		sequence:  sequence,
		catalogID: track.ID,
		title:     track.Name,
		artist:    track.PrimaryArtist(),
		duration:  track.DurationMS,
		createdAt: now,
		updatedAt: now,
	}
	if candidate != nil {
		m.matched = true
		m.candidate = candidate.Info
	}
	return m
}

func (m *PersistedMatch) ID() string { return m.id }
func (m *PersistedMatch) Sequence() int { return m.sequence }
func (m *PersistedMatch) CatalogID() string { return m.catalogID }
func (m *PersistedMatch) Title() string { return m.title }
func (m *PersistedMatch) Artist() string { return m.artist }
func (m *PersistedMatch) DurationMS() int { return m.duration }
func (m *PersistedMatch) Matched() bool { return m.matched }
func (m *PersistedMatch) Candidate() CandidateInfo { return m.candidate }
func (m *PersistedMatch) CreatedAt() time.Time { return m.createdAt }
func (m *PersistedMatch) UpdatedAt() time.Time { return m.updatedAt }
func (m *PersistedMatch) DeletedAt() *time.Time { return m.deletedAt }

func (m *PersistedMatch) SetID(id string) { m.id = id }
func (m *PersistedMatch) SetSequence(seq int) { m.sequence = seq }
func (m *PersistedMatch) SetCreatedAt(t time.Time) { m.createdAt = t }
func (m *PersistedMatch) SetUpdatedAt(t time.Time) { m.updatedAt = t }
func (m *PersistedMatch) SetDeletedAt(t *time.Time) { m.deletedAt = t }

// SetCandidate replaces the selected candidate; nil marks the record as a miss.
func (m *PersistedMatch) SetCandidate(c *Candidate) {
	if c == nil {
		m.matched = false
		m.candidate = CandidateInfo{}
		return
	}
	m.matched = true
	m.candidate = c.Info
}

// Validate checks the fields required by the matches table.
func (m *PersistedMatch) Validate() error {
	if m.catalogID == "" {
		return fmt.Errorf("catalog id is required")
	}
	if m.title == "" {
		return fmt.Errorf("title is required")
	}
	if m.matched && m.candidate.Identifier == "" && m.candidate.URI == "" {
		return fmt.Errorf("matched record needs an identifier or uri")
	}
	return nil
}
