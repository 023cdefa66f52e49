// Package storetest holds the behaviour every repository.Store must share.
// Backends call Run from their own tests with a constructor for a fresh store.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/pose-mock/internal/apperror"
	"github.com/sakif/pose-mock/internal/model"
	"github.com/sakif/pose-mock/internal/repository"
)

// Run executes the contract suite. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) repository.Store) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s repository.Store)
	}{
		{"CategoryCreateAndGet", testCategoryCreateAndGet},
		{"CategoryListScopedToUser", testCategoryListScopedToUser},
		{"CategoryDeleteOrphansPoses", testCategoryDeleteOrphansPoses},
		{"CategoryDeleteMissing", testCategoryDeleteMissing},
		{"CountPosesByCategory", testCountPosesByCategory},
		{"PoseRoundTrip", testPoseRoundTrip},
		{"PoseIDsNeverReused", testPoseIDsNeverReused},
		{"PoseListFilterAndPagination", testPoseListFilterAndPagination},
		{"PoseUpdate", testPoseUpdate},
		{"PoseDeleteRemovesUpload", testPoseDeleteRemovesUpload},
		{"PoseNotFound", testPoseNotFound},
		{"ReturnedRecordsAreCopies", testReturnedRecordsAreCopies},
		{"MuscleSeedIsIdempotent", testMuscleSeedIsIdempotent},
		{"SequenceRoundTrip", testSequenceRoundTrip},
		{"SequenceListPagination", testSequenceListPagination},
		{"SequenceUpdate", testSequenceUpdate},
		{"SequenceDelete", testSequenceDelete},
		{"UploadOverwrite", testUploadOverwrite},
		{"Reset", testReset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

var ctx = context.Background()

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func createPose(t *testing.T, s repository.Store, userID int64, code string, categoryID *int64) *model.Pose {
	t.Helper()
	ts := now()
	p := &model.Pose{
		UserID:     userID,
		Code:       code,
		Name:       "Pose " + code,
		CategoryID: categoryID,
		Version:    1,
		CreatedAt:  ts,
		UpdatedAt:  ts,
		Muscles:    []model.PoseMuscle{},
	}
	if err := s.CreatePose(ctx, p); err != nil {
		t.Fatalf("CreatePose() error = %v", err)
	}
	return p
}

func createCategory(t *testing.T, s repository.Store, userID int64, name string) *model.Category {
	t.Helper()
	c := &model.Category{UserID: userID, Name: name}
	if err := s.CreateCategory(ctx, c); err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	return c
}

func testCategoryCreateAndGet(t *testing.T, s repository.Store) {
	c := &model.Category{UserID: 1, Name: "Standing", Description: model.StringPtr("on your feet")}
	if err := s.CreateCategory(ctx, c); err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	if c.ID != 1 {
		t.Errorf("first category ID = %d, want 1", c.ID)
	}

	got, err := s.GetCategory(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetCategory() error = %v", err)
	}
	if got.Name != "Standing" || got.Description == nil || *got.Description != "on your feet" {
		t.Errorf("GetCategory() = %+v", got)
	}
}

func testCategoryListScopedToUser(t *testing.T, s repository.Store) {
	createCategory(t, s, 1, "mine")
	createCategory(t, s, 2, "theirs")
	createCategory(t, s, 1, "also mine")

	got, err := s.ListCategories(ctx, 1)
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListCategories() returned %d, want 2", len(got))
	}
	if got[0].Name != "mine" || got[1].Name != "also mine" {
		t.Errorf("ListCategories() order = %q, %q", got[0].Name, got[1].Name)
	}
}

func testCategoryDeleteOrphansPoses(t *testing.T, s repository.Store) {
	cat := createCategory(t, s, 1, "Balance")
	other := createCategory(t, s, 1, "Twist")
	p1 := createPose(t, s, 1, "A1", &cat.ID)
	p2 := createPose(t, s, 1, "A2", &cat.ID)
	p3 := createPose(t, s, 1, "A3", &other.ID)

	if err := s.DeleteCategory(ctx, cat.ID); err != nil {
		t.Fatalf("DeleteCategory() error = %v", err)
	}

	for _, id := range []int64{p1.ID, p2.ID} {
		p, err := s.GetPose(ctx, id)
		if err != nil {
			t.Fatalf("GetPose(%d) error = %v", id, err)
		}
		if p.CategoryID != nil {
			t.Errorf("pose %d category_id = %d, want nil", id, *p.CategoryID)
		}
	}

	p, _ := s.GetPose(ctx, p3.ID)
	if p.CategoryID == nil || *p.CategoryID != other.ID {
		t.Errorf("unrelated pose lost its category")
	}

	if _, err := s.GetCategory(ctx, cat.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetCategory() after delete error = %v, want ErrNotFound", err)
	}
}

func testCategoryDeleteMissing(t *testing.T, s repository.Store) {
	err := s.DeleteCategory(ctx, 404)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("DeleteCategory(missing) error = %v, want ErrNotFound", err)
	}
}

func testCountPosesByCategory(t *testing.T, s repository.Store) {
	cat := createCategory(t, s, 1, "Seated")
	createPose(t, s, 1, "S1", &cat.ID)
	createPose(t, s, 1, "S2", &cat.ID)
	createPose(t, s, 2, "S3", &cat.ID)
	createPose(t, s, 1, "S4", nil)

	counts, err := s.CountPosesByCategory(ctx, 1)
	if err != nil {
		t.Fatalf("CountPosesByCategory() error = %v", err)
	}
	if counts[cat.ID] != 2 {
		t.Errorf("count = %d, want 2", counts[cat.ID])
	}
}

func testPoseRoundTrip(t *testing.T, s repository.Store) {
	ts := now()
	in := &model.Pose{
		UserID:      1,
		Code:        "T01",
		Name:        "Tree",
		NameEN:      model.StringPtr("Tree pose"),
		Description: model.StringPtr("balance on one leg"),
		Effect:      model.StringPtr("focus"),
		Breathing:   model.StringPtr("slow"),
		PhotoPath:   model.StringPtr("/photos/tree.jpg"),
		Version:     1,
		CreatedAt:   ts,
		UpdatedAt:   ts,
		Muscles: []model.PoseMuscle{
			{MuscleID: 1, MuscleName: "Quadriceps", BodyPart: "legs", ActivationLevel: 70},
		},
	}
	if err := s.CreatePose(ctx, in); err != nil {
		t.Fatalf("CreatePose() error = %v", err)
	}

	got, err := s.GetPose(ctx, in.ID)
	if err != nil {
		t.Fatalf("GetPose() error = %v", err)
	}
	if got.Code != "T01" || got.Name != "Tree" || got.Version != 1 {
		t.Errorf("GetPose() = %+v", got)
	}
	if got.NameEN == nil || *got.NameEN != "Tree pose" {
		t.Errorf("NameEN = %v", got.NameEN)
	}
	if got.SchemaPath != nil {
		t.Errorf("SchemaPath = %v, want nil", *got.SchemaPath)
	}
	if len(got.Muscles) != 1 || got.Muscles[0].ActivationLevel != 70 {
		t.Errorf("Muscles = %+v", got.Muscles)
	}
	if !got.CreatedAt.Equal(ts) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, ts)
	}
}

func testPoseIDsNeverReused(t *testing.T, s repository.Store) {
	p1 := createPose(t, s, 1, "X1", nil)
	p2 := createPose(t, s, 1, "X2", nil)
	if err := s.DeletePose(ctx, p2.ID); err != nil {
		t.Fatalf("DeletePose() error = %v", err)
	}
	p3 := createPose(t, s, 1, "X3", nil)

	if p3.ID <= p2.ID || p2.ID <= p1.ID {
		t.Errorf("ids = %d, %d, %d; want strictly increasing", p1.ID, p2.ID, p3.ID)
	}
}

func testPoseListFilterAndPagination(t *testing.T, s repository.Store) {
	cat := createCategory(t, s, 1, "Inversions")
	for i := 0; i < 5; i++ {
		createPose(t, s, 1, "C", &cat.ID)
	}
	for i := 0; i < 3; i++ {
		createPose(t, s, 1, "N", nil)
	}
	createPose(t, s, 2, "other-user", &cat.ID)

	all, total, err := s.ListPoses(ctx, repository.PoseFilter{UserID: 1, ListOptions: repository.ListOptions{Limit: 100}})
	if err != nil {
		t.Fatalf("ListPoses() error = %v", err)
	}
	if total != 8 || len(all) != 8 {
		t.Errorf("ListPoses(all) = %d items, total %d; want 8, 8", len(all), total)
	}

	page, total, err := s.ListPoses(ctx, repository.PoseFilter{
		UserID:      1,
		CategoryID:  &cat.ID,
		ListOptions: repository.ListOptions{Offset: 3, Limit: 10},
	})
	if err != nil {
		t.Fatalf("ListPoses(filtered) error = %v", err)
	}
	if total != 5 {
		t.Errorf("filtered total = %d, want 5", total)
	}
	if len(page) != 2 {
		t.Errorf("filtered page = %d items, want 2", len(page))
	}

	empty, total, _ := s.ListPoses(ctx, repository.PoseFilter{UserID: 1, ListOptions: repository.ListOptions{Offset: 50, Limit: 10}})
	if len(empty) != 0 || total != 8 {
		t.Errorf("past-end page = %d items, total %d; want 0, 8", len(empty), total)
	}
}

func testPoseUpdate(t *testing.T, s repository.Store) {
	p := createPose(t, s, 1, "U1", nil)
	p.SchemaPath = model.StringPtr(model.SchemaURL(p.ID))
	p.UpdatedAt = p.UpdatedAt.Add(time.Second)

	if err := s.UpdatePose(ctx, p); err != nil {
		t.Fatalf("UpdatePose() error = %v", err)
	}

	got, _ := s.GetPose(ctx, p.ID)
	if got.SchemaPath == nil || *got.SchemaPath != model.SchemaURL(p.ID) {
		t.Errorf("SchemaPath = %v", got.SchemaPath)
	}
	if !got.UpdatedAt.Equal(p.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, p.UpdatedAt)
	}

	missing := &model.Pose{ID: 999}
	if err := s.UpdatePose(ctx, missing); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdatePose(missing) error = %v, want ErrNotFound", err)
	}
}

func testPoseDeleteRemovesUpload(t *testing.T, s repository.Store) {
	p := createPose(t, s, 1, "D1", nil)
	if err := s.PutUpload(ctx, p.ID, model.SchemaSlot, []byte("png")); err != nil {
		t.Fatalf("PutUpload() error = %v", err)
	}

	if err := s.DeletePose(ctx, p.ID); err != nil {
		t.Fatalf("DeletePose() error = %v", err)
	}

	if _, err := s.GetUpload(ctx, p.ID, model.SchemaSlot); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUpload() after pose delete error = %v, want ErrNotFound", err)
	}
	if err := s.DeletePose(ctx, p.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second DeletePose() error = %v, want ErrNotFound", err)
	}
}

func testPoseNotFound(t *testing.T, s repository.Store) {
	_, err := s.GetPose(ctx, 12345)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetPose(missing) error = %v, want ErrNotFound", err)
	}
}

func testReturnedRecordsAreCopies(t *testing.T, s repository.Store) {
	p := createPose(t, s, 1, "COPY", nil)
	p.Name = "mutated after create"

	got, _ := s.GetPose(ctx, p.ID)
	if got.Name != "Pose COPY" {
		t.Errorf("store saw caller mutation: Name = %q", got.Name)
	}

	got.Name = "mutated after get"
	again, _ := s.GetPose(ctx, p.ID)
	if again.Name != "Pose COPY" {
		t.Errorf("store saw mutation of returned record: Name = %q", again.Name)
	}
}

func testMuscleSeedIsIdempotent(t *testing.T, s repository.Store) {
	seed := []model.Muscle{
		{Name: "Quadriceps", NameUA: model.StringPtr("Квадрицепс"), BodyPart: "legs"},
		{Name: "Deltoid", BodyPart: "shoulders"},
	}

	inserted, err := s.SeedMuscles(ctx, seed)
	if err != nil {
		t.Fatalf("SeedMuscles() error = %v", err)
	}
	if !inserted {
		t.Error("first SeedMuscles() should insert")
	}

	inserted, err = s.SeedMuscles(ctx, seed)
	if err != nil {
		t.Fatalf("second SeedMuscles() error = %v", err)
	}
	if inserted {
		t.Error("second SeedMuscles() should be a no-op")
	}

	muscles, err := s.ListMuscles(ctx)
	if err != nil {
		t.Fatalf("ListMuscles() error = %v", err)
	}
	if len(muscles) != 2 {
		t.Fatalf("ListMuscles() = %d, want 2", len(muscles))
	}
	if muscles[0].ID != 1 || muscles[0].NameUA == nil || *muscles[0].NameUA != "Квадрицепс" {
		t.Errorf("first muscle = %+v", muscles[0])
	}

	m, err := s.GetMuscle(ctx, muscles[1].ID)
	if err != nil || m.Name != "Deltoid" {
		t.Errorf("GetMuscle() = %+v, %v", m, err)
	}
}

func testSequenceRoundTrip(t *testing.T, s repository.Store) {
	p := createPose(t, s, 1, "SEQ", nil)
	ts := now()
	seq := &model.Sequence{
		UserID:     1,
		Name:       "Morning",
		Difficulty: model.DifficultyBeginner,
		CreatedAt:  ts,
		UpdatedAt:  ts,
		Poses: []model.SequencePose{
			{PoseID: p.ID, OrderIndex: 0, DurationSeconds: 10, PoseName: p.Name, PoseCode: p.Code},
			{PoseID: p.ID, OrderIndex: 1, DurationSeconds: 20, TransitionNote: model.StringPtr("exhale"), PoseName: p.Name, PoseCode: p.Code},
		},
	}
	if err := s.CreateSequence(ctx, seq); err != nil {
		t.Fatalf("CreateSequence() error = %v", err)
	}
	if seq.ID == 0 || seq.Poses[0].ID == 0 || seq.Poses[0].ID == seq.Poses[1].ID {
		t.Errorf("ids not assigned: seq %d, poses %d/%d", seq.ID, seq.Poses[0].ID, seq.Poses[1].ID)
	}

	got, err := s.GetSequence(ctx, seq.ID)
	if err != nil {
		t.Fatalf("GetSequence() error = %v", err)
	}
	if len(got.Poses) != 2 || got.TotalDuration() != 30 {
		t.Errorf("GetSequence() poses = %d, duration = %d", len(got.Poses), got.TotalDuration())
	}
	if got.Poses[1].TransitionNote == nil || *got.Poses[1].TransitionNote != "exhale" {
		t.Errorf("TransitionNote = %v", got.Poses[1].TransitionNote)
	}
	if got.Poses[0].OrderIndex != 0 || got.Poses[1].OrderIndex != 1 {
		t.Errorf("order = %d, %d", got.Poses[0].OrderIndex, got.Poses[1].OrderIndex)
	}
}

func testSequenceListPagination(t *testing.T, s repository.Store) {
	for i := 0; i < 5; i++ {
		seq := &model.Sequence{UserID: 1, Name: "s", Difficulty: model.DifficultyBeginner, CreatedAt: now(), UpdatedAt: now()}
		if err := s.CreateSequence(ctx, seq); err != nil {
			t.Fatalf("CreateSequence() error = %v", err)
		}
	}
	other := &model.Sequence{UserID: 2, Name: "other", Difficulty: model.DifficultyBeginner, CreatedAt: now(), UpdatedAt: now()}
	_ = s.CreateSequence(ctx, other)

	page, total, err := s.ListSequences(ctx, 1, repository.ListOptions{Offset: 4, Limit: 20})
	if err != nil {
		t.Fatalf("ListSequences() error = %v", err)
	}
	if total != 5 || len(page) != 1 {
		t.Errorf("ListSequences() = %d items, total %d; want 1, 5", len(page), total)
	}
}

func testSequenceUpdate(t *testing.T, s repository.Store) {
	seq := &model.Sequence{UserID: 1, Name: "Old", Difficulty: model.DifficultyBeginner, CreatedAt: now(), UpdatedAt: now()}
	_ = s.CreateSequence(ctx, seq)

	seq.Name = "New"
	seq.Description = model.StringPtr("updated")
	seq.Difficulty = model.DifficultyAdvanced
	seq.UpdatedAt = seq.UpdatedAt.Add(time.Minute)
	if err := s.UpdateSequence(ctx, seq); err != nil {
		t.Fatalf("UpdateSequence() error = %v", err)
	}

	got, _ := s.GetSequence(ctx, seq.ID)
	if got.Name != "New" || got.Difficulty != model.DifficultyAdvanced || got.Description == nil {
		t.Errorf("GetSequence() after update = %+v", got)
	}
	if !got.UpdatedAt.Equal(seq.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, seq.UpdatedAt)
	}
}

func testSequenceDelete(t *testing.T, s repository.Store) {
	seq := &model.Sequence{UserID: 1, Name: "gone", Difficulty: model.DifficultyBeginner, CreatedAt: now(), UpdatedAt: now()}
	_ = s.CreateSequence(ctx, seq)

	if err := s.DeleteSequence(ctx, seq.ID); err != nil {
		t.Fatalf("DeleteSequence() error = %v", err)
	}
	if _, err := s.GetSequence(ctx, seq.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetSequence() after delete error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteSequence(ctx, seq.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second DeleteSequence() error = %v, want ErrNotFound", err)
	}
}

func testUploadOverwrite(t *testing.T, s repository.Store) {
	p := createPose(t, s, 1, "UP", nil)
	_ = s.PutUpload(ctx, p.ID, model.SchemaSlot, []byte("first"))
	_ = s.PutUpload(ctx, p.ID, model.SchemaSlot, []byte("second"))

	data, err := s.GetUpload(ctx, p.ID, model.SchemaSlot)
	if err != nil {
		t.Fatalf("GetUpload() error = %v", err)
	}
	if string(data) != "second" {
		t.Errorf("GetUpload() = %q, want %q", data, "second")
	}

	if _, err := s.GetUpload(ctx, p.ID, "photo"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUpload(other slot) error = %v, want ErrNotFound", err)
	}
}

func testReset(t *testing.T, s repository.Store) {
	createCategory(t, s, 1, "c")
	createPose(t, s, 1, "p", nil)
	_, _ = s.SeedMuscles(ctx, []model.Muscle{{Name: "m", BodyPart: "core"}})

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	cats, _ := s.ListCategories(ctx, 1)
	poses, total, _ := s.ListPoses(ctx, repository.PoseFilter{UserID: 1, ListOptions: repository.ListOptions{Limit: 10}})
	muscles, _ := s.ListMuscles(ctx)
	if len(cats) != 0 || len(poses) != 0 || total != 0 || len(muscles) != 0 {
		t.Errorf("after Reset: %d categories, %d poses, %d muscles", len(cats), len(poses), len(muscles))
	}

	p := createPose(t, s, 1, "fresh", nil)
	if p.ID != 1 {
		t.Errorf("first pose after Reset ID = %d, want 1", p.ID)
	}
}
