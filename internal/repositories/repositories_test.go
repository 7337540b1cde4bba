package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/desertthunder/spotlink/internal/models"
	"github.com/desertthunder/spotlink/internal/shared"
	tu "github.com/desertthunder/spotlink/internal/testing"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func hit(identifier string) *models.Candidate {
	c := tu.Candidate(identifier, "Song", "Artist - Topic", 200800)
	return &c
}

func TestMatchRepository(t *testing.T) {
	track := tu.Track("t1", "Song", "Artist", 200000)

	t.Run("Create & Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMatchRepository(db)
		match := models.NewPersistedMatch(0, track, hit("yt1"))

		if err := repo.Create(match); err != nil {
			t.Fatalf("failed to create match: %v", err)
		}
		if match.ID() == "" || match.Sequence() != 1 {
			t.Errorf("expected id and sequence 1 after creation, got %q/%d", match.ID(), match.Sequence())
		}

		retrieved, err := repo.Get(match.ID())
		if err != nil {
			t.Fatalf("failed to get match: %v", err)
		}
		if retrieved.CatalogID() != "t1" || retrieved.Artist() != "Artist" || retrieved.DurationMS() != 200000 {
			t.Errorf("unexpected record %+v", retrieved)
		}
		if !retrieved.Matched() || retrieved.Candidate().Identifier != "yt1" || retrieved.Candidate().Length != 200800 {
			t.Errorf("unexpected candidate %+v", retrieved.Candidate())
		}
	})

	t.Run("Create Miss", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMatchRepository(db)
		match := models.NewPersistedMatch(0, track, nil)
		if err := repo.Create(match); err != nil {
			t.Fatalf("failed to create miss: %v", err)
		}

		retrieved, err := repo.GetByCatalogID("t1")
		if err != nil {
			t.Fatalf("failed to get by catalog id: %v", err)
		}
		if retrieved.Matched() {
			t.Error("expected a miss")
		}
	})

	t.Run("Create Validation Error", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMatchRepository(db)
		if err := repo.Create(models.NewPersistedMatch(0, models.CatalogTrack{Name: "x"}, nil)); err == nil {
			t.Fatal("expected validation error for missing catalog id")
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMatchRepository(db)
		match := models.NewPersistedMatch(0, track, nil)
		if err := repo.Create(match); err != nil {
			t.Fatalf("failed to create match: %v", err)
		}

		match.SetCandidate(hit("yt2"))
		if err := repo.Update(match); err != nil {
			t.Fatalf("failed to update match: %v", err)
		}

		retrieved, err := repo.Get(match.ID())
		if err != nil {
			t.Fatalf("failed to get match: %v", err)
		}
		if !retrieved.Matched() || retrieved.Candidate().Identifier != "yt2" {
			t.Errorf("update not persisted: %+v", retrieved.Candidate())
		}
	})

	t.Run("Update NotFound", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMatchRepository(db)
		match := models.NewPersistedMatch(0, track, nil)
		match.SetID("nonexistent-id")
		if err := repo.Update(match); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMatchRepository(db)
		match := models.NewPersistedMatch(0, track, nil)
		if err := repo.Create(match); err != nil {
			t.Fatalf("failed to create match: %v", err)
		}

		if err := repo.Delete(match.ID()); err != nil {
			t.Fatalf("failed to delete match: %v", err)
		}
		if _, err := repo.Get(match.ID()); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound for deleted match, got %v", err)
		}
		if err := repo.Delete(match.ID()); err == nil {
			t.Error("expected error deleting twice")
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMatchRepository(db)
		for i := range 5 {
			var c *models.Candidate
			if i%2 == 0 {
				c = hit(fmt.Sprintf("yt%d", i))
			}
			m := models.NewPersistedMatch(0, tu.Track(fmt.Sprintf("t%d", i), "Song", "Artist", 1000), c)
			if err := repo.Create(m); err != nil {
				t.Fatalf("failed to create match: %v", err)
			}
		}

		all, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(all) != 5 || all[0].CatalogID() != "t0" {
			t.Errorf("expected 5 matches oldest first, got %d", len(all))
		}

		hits, err := repo.List(map[string]any{"matched": true})
		if err != nil {
			t.Fatalf("failed to list hits: %v", err)
		}
		if len(hits) != 3 {
			t.Errorf("expected 3 hits, got %d", len(hits))
		}

		latest, err := repo.List(map[string]any{"newest_first": true, "limit": 2})
		if err != nil {
			t.Fatalf("failed to list latest: %v", err)
		}
		if len(latest) != 2 || latest[0].CatalogID() != "t4" {
			t.Errorf("expected newest two starting at t4, got %d", len(latest))
		}

		one, err := repo.List(map[string]any{"catalog_id": "t3"})
		if err != nil {
			t.Fatalf("failed to list by catalog id: %v", err)
		}
		if len(one) != 1 || one[0].Matched() {
			t.Errorf("expected single miss for t3, got %d", len(one))
		}
	})

	t.Run("DeleteAll", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMatchRepository(db)
		for i := range 3 {
			if err := repo.Create(models.NewPersistedMatch(0, tu.Track(fmt.Sprintf("t%d", i), "Song", "A", 1), nil)); err != nil {
				t.Fatalf("failed to create match: %v", err)
			}
		}

		n, err := repo.DeleteAll()
		if err != nil {
			t.Fatalf("failed to clear: %v", err)
		}
		if n != 3 {
			t.Errorf("expected 3 cleared, got %d", n)
		}

		remaining, _ := repo.List(map[string]any{})
		if len(remaining) != 0 {
			t.Errorf("expected no live matches, got %d", len(remaining))
		}
	})
}

func TestMatchRecorder(t *testing.T) {
	t.Run("Upserts Per Catalog Track", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMatchRepository(db)
		recorder := NewMatchRecorder(repo)
		track := tu.Track("t1", "Song", "Artist", 1000)

		if err := recorder.RecordMatch(track, nil); err != nil {
			t.Fatalf("failed to record miss: %v", err)
		}
		if err := recorder.RecordMatch(track, hit("yt1")); err != nil {
			t.Fatalf("failed to record hit: %v", err)
		}

		all, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(all) != 1 {
			t.Fatalf("expected a single record, got %d", len(all))
		}
		if !all[0].Matched() || all[0].Candidate().Identifier != "yt1" {
			t.Errorf("expected latest outcome, got %+v", all[0].Candidate())
		}
	})

	t.Run("Skips Tracks Without ID", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMatchRepository(db)
		if err := NewMatchRecorder(repo).RecordMatch(models.CatalogTrack{Name: "local"}, nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		all, _ := repo.List(map[string]any{})
		if len(all) != 0 {
			t.Errorf("expected nothing recorded, got %d", len(all))
		}
	})

	t.Run("Concurrent Recording", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMatchRepository(db)
		recorder := NewMatchRecorder(repo)

		var wg sync.WaitGroup
		for i := range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				track := tu.Track(fmt.Sprintf("t%d", i%5), "Song", "Artist", 1000)
				if err := recorder.RecordMatch(track, hit("yt")); err != nil {
					t.Errorf("failed to record: %v", err)
				}
			}()
		}
		wg.Wait()

		all, _ := repo.List(map[string]any{})
		if len(all) != 5 {
			t.Errorf("expected 5 records, got %d", len(all))
		}
	})
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "matches")
		if err != nil {
			t.Fatalf("failed to get sequence: %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}

	if _, err := NextSequence(db, "missing"); err == nil {
		t.Error("expected error for unknown sequence table")
	}
}
