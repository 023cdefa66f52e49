package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sakif/pose-mock/internal/model"
	"github.com/sakif/pose-mock/internal/repository"
	"github.com/sakif/pose-mock/internal/repository/storetest"
)

// newTestDB opens a fresh ":memory:" database that is closed when the
// test finishes.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) repository.Store {
		return newTestDB(t)
	})
}

// =========================================================================
// MIGRATION TESTS
// =========================================================================

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)

	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate() error = %v", err)
	}
}

// A file-backed store keeps records and the id high-water mark across
// reopen.
func TestNew_FilePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "poses.db")
	ctx := context.Background()

	db, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	now := time.Now().UTC()
	p := &model.Pose{UserID: 1, Code: "P1", Name: "Persisted", Version: 1, CreatedAt: now, UpdatedAt: now}
	if err := db.CreatePose(ctx, p); err != nil {
		t.Fatalf("CreatePose() error = %v", err)
	}
	if err := db.DeletePose(ctx, p.ID); err != nil {
		t.Fatalf("DeletePose() error = %v", err)
	}
	keep := &model.Pose{UserID: 1, Code: "P2", Name: "Kept", Version: 1, CreatedAt: now, UpdatedAt: now}
	if err := db.CreatePose(ctx, keep); err != nil {
		t.Fatalf("CreatePose() error = %v", err)
	}
	db.Close()

	db, err = New(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer db.Close()

	got, err := db.GetPose(ctx, keep.ID)
	if err != nil {
		t.Fatalf("GetPose() after reopen error = %v", err)
	}
	if got.Name != "Kept" {
		t.Errorf("Name = %q, want %q", got.Name, "Kept")
	}

	next := &model.Pose{UserID: 1, Code: "P3", Name: "Next", Version: 1, CreatedAt: now, UpdatedAt: now}
	if err := db.CreatePose(ctx, next); err != nil {
		t.Fatalf("CreatePose() error = %v", err)
	}
	if next.ID <= keep.ID {
		t.Errorf("id after reopen = %d, want > %d", next.ID, keep.ID)
	}
}

func TestUpdatePose_ReplacesMuscles(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	p := &model.Pose{
		UserID: 1, Code: "M", Name: "Muscled", Version: 1, CreatedAt: now, UpdatedAt: now,
		Muscles: []model.PoseMuscle{
			{MuscleID: 1, MuscleName: "A", BodyPart: "legs", ActivationLevel: 10},
			{MuscleID: 2, MuscleName: "B", BodyPart: "arms", ActivationLevel: 20},
		},
	}
	if err := db.CreatePose(ctx, p); err != nil {
		t.Fatalf("CreatePose() error = %v", err)
	}

	p.Muscles = p.Muscles[1:]
	if err := db.UpdatePose(ctx, p); err != nil {
		t.Fatalf("UpdatePose() error = %v", err)
	}

	got, _ := db.GetPose(ctx, p.ID)
	if len(got.Muscles) != 1 || got.Muscles[0].MuscleName != "B" {
		t.Errorf("Muscles = %+v, want only B", got.Muscles)
	}
}
