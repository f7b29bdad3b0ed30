package repositories

import (
	"database/sql"
	"testing"

	"github.com/desertthunder/featx/internal/models"
	"github.com/desertthunder/featx/internal/shared"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func strPtr(s string) *string { return &s }

func TestResolutionRepository(t *testing.T) {
	t.Run("Create And GetByTrackID", func(t *testing.T) {
		repo := NewResolutionRepository(setupTestDB(t))

		res := models.NewPersistedResolution("spot1", strPtr("recco1"), "")
		if err := repo.Create(res); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if res.ID() == "" {
			t.Error("expected generated id")
		}

		got, err := repo.GetByTrackID("spot1")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.TrackID() != "spot1" {
			t.Errorf("unexpected track id: %s", got.TrackID())
		}
		if got.AnalysisID() == nil || *got.AnalysisID() != "recco1" {
			t.Errorf("unexpected analysis id: %v", got.AnalysisID())
		}
	})

	t.Run("Create Unresolved Requires Reason", func(t *testing.T) {
		repo := NewResolutionRepository(setupTestDB(t))

		res := models.NewPersistedResolution("spot1", nil, "")
		if err := repo.Create(res); err == nil {
			t.Error("expected validation error for unresolved row without reason")
		}

		res = models.NewPersistedResolution("spot1", nil, "no match")
		if err := repo.Create(res); err != nil {
			t.Fatalf("create failed: %v", err)
		}

		got, err := repo.GetByTrackID("spot1")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.AnalysisID() != nil {
			t.Error("expected nil analysis id")
		}
		if got.Reason() != "no match" {
			t.Errorf("unexpected reason: %s", got.Reason())
		}
	})

	t.Run("Duplicate Track ID Rejected", func(t *testing.T) {
		repo := NewResolutionRepository(setupTestDB(t))

		if err := repo.Create(models.NewPersistedResolution("spot1", strPtr("recco1"), "")); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if err := repo.Create(models.NewPersistedResolution("spot1", strPtr("recco2"), "")); err == nil {
			t.Error("expected unique constraint violation")
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewResolutionRepository(setupTestDB(t))

		res := models.NewPersistedResolution("spot1", nil, "no match")
		if err := repo.Create(res); err != nil {
			t.Fatalf("create failed: %v", err)
		}

		updated := models.NewPersistedResolution("spot1", strPtr("recco1"), "")
		if err := repo.Update(updated); err != nil {
			t.Fatalf("update failed: %v", err)
		}

		got, err := repo.GetByTrackID("spot1")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.AnalysisID() == nil || *got.AnalysisID() != "recco1" {
			t.Errorf("expected updated analysis id, got %v", got.AnalysisID())
		}
	})

	t.Run("Update Missing Row", func(t *testing.T) {
		repo := NewResolutionRepository(setupTestDB(t))
		if err := repo.Update(models.NewPersistedResolution("ghost", strPtr("r"), "")); err == nil {
			t.Error("expected error updating missing row")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewResolutionRepository(setupTestDB(t))

		res := models.NewPersistedResolution("spot1", strPtr("recco1"), "")
		if err := repo.Create(res); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if err := repo.Delete(res.ID()); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if _, err := repo.GetByTrackID("spot1"); err == nil {
			t.Error("expected row to be gone")
		}
	})

	t.Run("List Filters By Resolved", func(t *testing.T) {
		repo := NewResolutionRepository(setupTestDB(t))

		if err := repo.Create(models.NewPersistedResolution("spot1", strPtr("recco1"), "")); err != nil {
			t.Fatal(err)
		}
		if err := repo.Create(models.NewPersistedResolution("spot2", nil, "no match")); err != nil {
			t.Fatal(err)
		}
		if err := repo.Create(models.NewPersistedResolution("spot3", strPtr("recco3"), "")); err != nil {
			t.Fatal(err)
		}

		resolved, err := repo.List(map[string]any{"resolved": true})
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(resolved) != 2 {
			t.Errorf("expected 2 resolved rows, got %d", len(resolved))
		}

		unresolved, err := repo.List(map[string]any{"resolved": false})
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(unresolved) != 1 || unresolved[0].TrackID() != "spot2" {
			t.Errorf("unexpected unresolved rows: %d", len(unresolved))
		}

		all, err := repo.List(nil)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(all) != 3 {
			t.Errorf("expected 3 rows, got %d", len(all))
		}
	})
}

func TestResolveCacheAdapter(t *testing.T) {
	t.Run("Lookup Miss", func(t *testing.T) {
		adapter := NewResolveCacheAdapter(NewResolutionRepository(setupTestDB(t)))

		if _, ok := adapter.Lookup("ghost"); ok {
			t.Error("expected cache miss")
		}
	})

	t.Run("Store Then Lookup", func(t *testing.T) {
		adapter := NewResolveCacheAdapter(NewResolutionRepository(setupTestDB(t)))

		mapping := models.IdentifierMapping{TrackID: "spot1", AnalysisID: strPtr("recco1")}
		if err := adapter.Store(mapping); err != nil {
			t.Fatalf("store failed: %v", err)
		}

		got, ok := adapter.Lookup("spot1")
		if !ok {
			t.Fatal("expected cache hit")
		}
		if !got.Resolved() || *got.AnalysisID != "recco1" {
			t.Errorf("unexpected mapping: %+v", got)
		}
	})

	t.Run("Store Unresolved", func(t *testing.T) {
		adapter := NewResolveCacheAdapter(NewResolutionRepository(setupTestDB(t)))

		mapping := models.IdentifierMapping{TrackID: "spot1", Reason: "no match"}
		if err := adapter.Store(mapping); err != nil {
			t.Fatalf("store failed: %v", err)
		}

		got, ok := adapter.Lookup("spot1")
		if !ok {
			t.Fatal("expected cache hit")
		}
		if got.Resolved() || got.Reason != "no match" {
			t.Errorf("unexpected mapping: %+v", got)
		}
	})

	t.Run("Duplicate Store Is Ignored", func(t *testing.T) {
		adapter := NewResolveCacheAdapter(NewResolutionRepository(setupTestDB(t)))

		mapping := models.IdentifierMapping{TrackID: "spot1", AnalysisID: strPtr("recco1")}
		if err := adapter.Store(mapping); err != nil {
			t.Fatalf("first store failed: %v", err)
		}

		mapping.AnalysisID = strPtr("recco2")
		if err := adapter.Store(mapping); err != nil {
			t.Fatalf("second store failed: %v", err)
		}

		got, _ := adapter.Lookup("spot1")
		if *got.AnalysisID != "recco1" {
			t.Errorf("expected first entry kept, got %s", *got.AnalysisID)
		}
	})
}
