// Package repository defines the storage contract shared by the in-memory
// store and the SQLite store.
//
// Every Get returns apperror.ErrNotFound for a missing id. Ownership is not
// checked here; the service layer compares UserID so that a record owned by
// someone else looks exactly like a missing one.
package repository

import (
	"context"

	"github.com/sakif/pose-mock/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// PoseFilter narrows ListPoses. CategoryID nil means no category filter.
type PoseFilter struct {
	UserID     int64
	CategoryID *int64
	ListOptions
}

type CategoryRepository interface {
	CreateCategory(ctx context.Context, category *model.Category) error
	GetCategory(ctx context.Context, id int64) (*model.Category, error)
	ListCategories(ctx context.Context, userID int64) ([]model.Category, error)
	// DeleteCategory removes the category and nulls category_id on every
	// pose that referenced it.
	DeleteCategory(ctx context.Context, id int64) error
	// CountPosesByCategory maps category id to the number of the user's
	// poses in it.
	CountPosesByCategory(ctx context.Context, userID int64) (map[int64]int, error)
}

type PoseRepository interface {
	CreatePose(ctx context.Context, pose *model.Pose) error
	GetPose(ctx context.Context, id int64) (*model.Pose, error)
	// ListPoses returns one page plus the filtered total.
	ListPoses(ctx context.Context, filter PoseFilter) ([]model.Pose, int, error)
	UpdatePose(ctx context.Context, pose *model.Pose) error
	// DeletePose also removes every upload blob stored for the pose.
	DeletePose(ctx context.Context, id int64) error
}

type MuscleRepository interface {
	// SeedMuscles inserts the given muscles only when none exist yet.
	// It reports whether anything was inserted.
	SeedMuscles(ctx context.Context, muscles []model.Muscle) (bool, error)
	ListMuscles(ctx context.Context) ([]model.Muscle, error)
	GetMuscle(ctx context.Context, id int64) (*model.Muscle, error)
}

type SequenceRepository interface {
	// CreateSequence assigns ids to the sequence and to each child pose.
	CreateSequence(ctx context.Context, sequence *model.Sequence) error
	GetSequence(ctx context.Context, id int64) (*model.Sequence, error)
	ListSequences(ctx context.Context, userID int64, opts ListOptions) ([]model.Sequence, int, error)
	// UpdateSequence writes the mutable fields: name, description,
	// difficulty and updated_at.
	UpdateSequence(ctx context.Context, sequence *model.Sequence) error
	DeleteSequence(ctx context.Context, id int64) error
}

type UploadRepository interface {
	PutUpload(ctx context.Context, poseID int64, slot string, data []byte) error
	GetUpload(ctx context.Context, poseID int64, slot string) ([]byte, error)
}

// Store is everything the server needs from a storage backend.
type Store interface {
	CategoryRepository
	PoseRepository
	MuscleRepository
	SequenceRepository
	UploadRepository
	// Reset drops every record and restarts the id counters.
	Reset(ctx context.Context) error
	Close() error
}
