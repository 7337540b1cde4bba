package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spotlink/internal/models"
	"github.com/desertthunder/spotlink/internal/shared"
)

const matchColumns = `id, sequence, catalog_id, title, artist, duration_ms, matched,
	identifier, uri, candidate_title, candidate_author, candidate_length_ms,
	created_at, updated_at, deleted_at`

// MatchRepository implements models.Repository[*models.PersistedMatch] for match history.
type MatchRepository struct {
	db *sql.DB
}

// NewMatchRepository creates a new MatchRepository with the given database connection
func NewMatchRepository(db *sql.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// Create inserts a new [models.PersistedMatch] with a generated ID and sequence
func (r *MatchRepository) Create(match *models.PersistedMatch) error {
	if err := match.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "matches")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	match.SetID(id)
	match.SetSequence(sequence)

	c := match.Candidate()
	query := `
		INSERT INTO matches (` + matchColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		match.CatalogID(),
		match.Title(),
		match.Artist(),
		match.DurationMS(),
		match.Matched(),
		c.Identifier,
		c.URI,
		c.Title,
		c.Author,
		c.Length,
		match.CreatedAt(),
		match.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert match: %w", err)
	}

	return nil
}

// Get retrieves a match by ID, excluding soft-deleted records
func (r *MatchRepository) Get(id string) (*models.PersistedMatch, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByCatalogID retrieves the live record for a catalog track
func (r *MatchRepository) GetByCatalogID(catalogID string) (*models.PersistedMatch, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE catalog_id = ? AND deleted_at IS NULL
		ORDER BY sequence DESC
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRow(query, catalogID))
}

// Update replaces the candidate fields of an existing match
func (r *MatchRepository) Update(match *models.PersistedMatch) error {
	if err := match.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	match.SetUpdatedAt(now)

	c := match.Candidate()
	query := `
		UPDATE matches
		SET title = ?, artist = ?, duration_ms = ?, matched = ?, identifier = ?, uri = ?,
			candidate_title = ?, candidate_author = ?, candidate_length_ms = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		match.Title(),
		match.Artist(),
		match.DurationMS(),
		match.Matched(),
		c.Identifier,
		c.URI,
		c.Title,
		c.Author,
		c.Length,
		now,
		match.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update match: %w", err)
	}

	return expectRow(result, match.ID())
}

// Delete soft-deletes a match by ID
func (r *MatchRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE matches SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}
	return expectRow(result, id)
}

// DeleteAll soft-deletes every live match and returns how many were removed
func (r *MatchRepository) DeleteAll() (int64, error) {
	result, err := r.db.Exec(`UPDATE matches SET deleted_at = ? WHERE deleted_at IS NULL`, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to clear matches: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n, nil
}

// List retrieves live matches filtered by criteria.
//
// Supported keys: "catalog_id" (string), "matched" (bool), "newest_first" (bool), "limit" (int).
func (r *MatchRepository) List(criteria map[string]any) ([]*models.PersistedMatch, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE deleted_at IS NULL`
	args := []any{}

	if catalogID, ok := criteria["catalog_id"].(string); ok && catalogID != "" {
		query += " AND catalog_id = ?"
		args = append(args, catalogID)
	}

	if matched, ok := criteria["matched"].(bool); ok {
		query += " AND matched = ?"
		args = append(args, matched)
	}

	if newest, ok := criteria["newest_first"].(bool); ok && newest {
		query += " ORDER BY sequence DESC"
	} else {
		query += " ORDER BY sequence ASC"
	}

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var matches []*models.PersistedMatch
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return matches, nil
}

// scanOne scans a single [sql.Row] into a [models.PersistedMatch]
func (r *MatchRepository) scanOne(row *sql.Row) (*models.PersistedMatch, error) {
	match, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: match", shared.ErrNotFound)
	}
	return match, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMatch(s scanner) (*models.PersistedMatch, error) {
	var (
		id        string
		sequence  int
		catalogID string
		title     string
		artist    string
		duration  int
		matched   bool
		info      models.CandidateInfo
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := s.Scan(&id, &sequence, &catalogID, &title, &artist, &duration, &matched,
		&info.Identifier, &info.URI, &info.Title, &info.Author, &info.Length,
		&createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan match: %w", err)
	}

	track := models.CatalogTrack{ID: catalogID, Name: title, DurationMS: duration}
	if artist != "" {
		track.Artists = []models.CatalogArtist{{Name: artist}}
	}

	var candidate *models.Candidate
	if matched {
		candidate = &models.Candidate{Info: info}
	}

	match := models.NewPersistedMatch(sequence, track, candidate)
	match.SetID(id)
	match.SetCreatedAt(createdAt)
	match.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		match.SetDeletedAt(&deletedAt.Time)
	}

	return match, nil
}

func expectRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: match not found or already deleted: %s", shared.ErrNotFound, id)
	}
	return nil
}
