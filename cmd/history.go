package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotlink/internal/models"
	"github.com/desertthunder/spotlink/internal/shared"
	"github.com/urfave/cli/v3"
)

type historyEntry struct {
	Sequence   int    `json:"sequence"`
	CatalogID  string `json:"catalog_id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	DurationMS int    `json:"duration_ms"`
	Matched    bool   `json:"matched"`
	Identifier string `json:"identifier,omitempty"`
	URI        string `json:"uri,omitempty"`
	UpdatedAt  string `json:"updated_at"`
}

func newHistoryEntry(m *models.PersistedMatch) historyEntry {
	c := m.Candidate()
	return historyEntry{
		Sequence:   m.Sequence(),
		CatalogID:  m.CatalogID(),
		Title:      m.Title(),
		Artist:     m.Artist(),
		DurationMS: m.DurationMS(),
		Matched:    m.Matched(),
		Identifier: c.Identifier,
		URI:        c.URI,
		UpdatedAt:  m.UpdatedAt().Format("2006-01-02 15:04:05"),
	}
}

// HistoryList prints recorded conversions, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.requireHistory()
	if err != nil {
		return err
	}

	if cmd.Bool("hits") && cmd.Bool("misses") {
		return fmt.Errorf("%w: --hits and --misses are mutually exclusive", shared.ErrInvalidArgument)
	}

	criteria := map[string]any{"newest_first": true, "limit": int(cmd.Int("limit"))}
	switch {
	case cmd.Bool("hits"):
		criteria["matched"] = true
	case cmd.Bool("misses"):
		criteria["matched"] = false
	}
	if id := cmd.String("id"); id != "" {
		criteria["catalog_id"] = id
	}

	matches, err := repo.List(criteria)
	if err != nil {
		return err
	}

	entries := make([]historyEntry, 0, len(matches))
	for _, m := range matches {
		entries = append(entries, newHistoryEntry(m))
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, cmd.Bool("pretty"))
	}

	if len(entries) == 0 {
		return r.writePlain("No recorded matches\n")
	}
	for _, e := range entries {
		target := r.palette.Warn("no match")
		if e.Matched {
			target = r.palette.OK(e.URI)
		}
		if err := r.writePlain("%4d  %s  %s - %s [%s] => %s\n", e.Sequence, e.CatalogID, e.Artist, e.Title, shared.FormatDuration(e.DurationMS), target); err != nil {
			return err
		}
	}
	return nil
}

// HistoryClear soft-deletes every recorded conversion.
func (r *Runner) HistoryClear(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.requireHistory()
	if err != nil {
		return err
	}

	n, err := repo.DeleteAll()
	if err != nil {
		return err
	}

	r.logger.Info("cleared match history", "count", n)
	return r.writePlain("✓ Cleared %d recorded matches\n", n)
}
