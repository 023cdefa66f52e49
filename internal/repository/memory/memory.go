// Package memory is the default Store: process-lifetime collections guarded
// by a single mutex.
//
// One coarse lock is enough here. Request volume comes from a test suite, and
// a global lock gives every mutation a single arrival order, so no reader can
// ever observe a half-applied delete (for example a category that is gone
// while its poses still point at it).
//
// Records are copied on the way in and on the way out. Callers can mutate
// what they get back without touching store state.
package memory

import (
	"context"
	"sync"

	"github.com/sakif/pose-mock/internal/apperror"
	"github.com/sakif/pose-mock/internal/model"
	"github.com/sakif/pose-mock/internal/repository"
)

var _ repository.Store = (*Store)(nil)

type uploadKey struct {
	poseID int64
	slot   string
}

// counters hold the last id handed out per collection. Ids are never reused,
// even after a delete.
type counters struct {
	category     int64
	pose         int64
	muscle       int64
	sequence     int64
	sequencePose int64
}

type Store struct {
	mu sync.Mutex

	categories []model.Category
	poses      []model.Pose
	muscles    []model.Muscle
	sequences  []model.Sequence
	uploads    map[uploadKey][]byte

	next counters
}

// New returns an empty store.
func New() *Store {
	return &Store{
		uploads: make(map[uploadKey][]byte),
	}
}

// Reset drops all collections and restarts the id counters.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.categories = nil
	s.poses = nil
	s.muscles = nil
	s.sequences = nil
	s.uploads = make(map[uploadKey][]byte)
	s.next = counters{}
	return nil
}

// Close is a no-op; it exists to satisfy repository.Store.
func (s *Store) Close() error {
	return nil
}

// =========================================================================
// CATEGORIES
// =========================================================================

func (s *Store) CreateCategory(_ context.Context, category *model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next.category++
	category.ID = s.next.category
	s.categories = append(s.categories, category.Clone())
	return nil
}

func (s *Store) GetCategory(_ context.Context, id int64) (*model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.categories {
		if c.ID == id {
			out := c.Clone()
			return &out, nil
		}
	}
	return nil, apperror.NotFound("Category")
}

func (s *Store) ListCategories(_ context.Context, userID int64) ([]model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Category, 0, len(s.categories))
	for _, c := range s.categories {
		if c.UserID == userID {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, c := range s.categories {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return apperror.NotFound("Category")
	}
	s.categories = append(s.categories[:idx], s.categories[idx+1:]...)

	for i := range s.poses {
		if s.poses[i].CategoryID != nil && *s.poses[i].CategoryID == id {
			s.poses[i].CategoryID = nil
		}
	}
	return nil
}

func (s *Store) CountPosesByCategory(_ context.Context, userID int64) (map[int64]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[int64]int)
	for _, p := range s.poses {
		if p.UserID == userID && p.CategoryID != nil {
			counts[*p.CategoryID]++
		}
	}
	return counts, nil
}

// =========================================================================
// POSES
// =========================================================================

func (s *Store) CreatePose(_ context.Context, pose *model.Pose) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next.pose++
	pose.ID = s.next.pose
	s.poses = append(s.poses, pose.Clone())
	return nil
}

func (s *Store) GetPose(_ context.Context, id int64) (*model.Pose, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.poseIndex(id); i >= 0 {
		out := s.poses[i].Clone()
		return &out, nil
	}
	return nil, apperror.NotFound("Pose")
}

func (s *Store) ListPoses(_ context.Context, filter repository.PoseFilter) ([]model.Pose, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]model.Pose, 0, len(s.poses))
	for _, p := range s.poses {
		if p.UserID != filter.UserID {
			continue
		}
		if filter.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *filter.CategoryID) {
			continue
		}
		matched = append(matched, p)
	}

	page := model.Paginate(matched, filter.Offset, filter.Limit)
	out := make([]model.Pose, len(page))
	for i, p := range page {
		out[i] = p.Clone()
	}
	return out, len(matched), nil
}

func (s *Store) UpdatePose(_ context.Context, pose *model.Pose) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.poseIndex(pose.ID)
	if i < 0 {
		return apperror.NotFound("Pose")
	}
	s.poses[i] = pose.Clone()
	return nil
}

func (s *Store) DeletePose(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.poseIndex(id)
	if i < 0 {
		return apperror.NotFound("Pose")
	}
	s.poses = append(s.poses[:i], s.poses[i+1:]...)

	for key := range s.uploads {
		if key.poseID == id {
			delete(s.uploads, key)
		}
	}
	return nil
}

// poseIndex must be called with s.mu held.
func (s *Store) poseIndex(id int64) int {
	for i, p := range s.poses {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// =========================================================================
// MUSCLES
// =========================================================================

func (s *Store) SeedMuscles(_ context.Context, muscles []model.Muscle) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.muscles) > 0 {
		return false, nil
	}
	for _, m := range muscles {
		s.next.muscle++
		m = m.Clone()
		m.ID = s.next.muscle
		s.muscles = append(s.muscles, m)
	}
	return true, nil
}

func (s *Store) ListMuscles(_ context.Context) ([]model.Muscle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Muscle, len(s.muscles))
	for i, m := range s.muscles {
		out[i] = m.Clone()
	}
	return out, nil
}

func (s *Store) GetMuscle(_ context.Context, id int64) (*model.Muscle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.muscles {
		if m.ID == id {
			out := m.Clone()
			return &out, nil
		}
	}
	return nil, apperror.NotFound("Muscle")
}

// =========================================================================
// SEQUENCES
// =========================================================================

func (s *Store) CreateSequence(_ context.Context, sequence *model.Sequence) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next.sequence++
	sequence.ID = s.next.sequence
	for i := range sequence.Poses {
		s.next.sequencePose++
		sequence.Poses[i].ID = s.next.sequencePose
	}
	s.sequences = append(s.sequences, sequence.Clone())
	return nil
}

func (s *Store) GetSequence(_ context.Context, id int64) (*model.Sequence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.sequenceIndex(id); i >= 0 {
		out := s.sequences[i].Clone()
		return &out, nil
	}
	return nil, apperror.NotFound("Sequence")
}

func (s *Store) ListSequences(_ context.Context, userID int64, opts repository.ListOptions) ([]model.Sequence, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]model.Sequence, 0, len(s.sequences))
	for _, seq := range s.sequences {
		if seq.UserID == userID {
			matched = append(matched, seq)
		}
	}

	page := model.Paginate(matched, opts.Offset, opts.Limit)
	out := make([]model.Sequence, len(page))
	for i, seq := range page {
		out[i] = seq.Clone()
	}
	return out, len(matched), nil
}

func (s *Store) UpdateSequence(_ context.Context, sequence *model.Sequence) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.sequenceIndex(sequence.ID)
	if i < 0 {
		return apperror.NotFound("Sequence")
	}
	stored := &s.sequences[i]
	stored.Name = sequence.Name
	stored.Description = model.CloneString(sequence.Description)
	stored.Difficulty = sequence.Difficulty
	stored.UpdatedAt = sequence.UpdatedAt
	return nil
}

func (s *Store) DeleteSequence(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.sequenceIndex(id)
	if i < 0 {
		return apperror.NotFound("Sequence")
	}
	s.sequences = append(s.sequences[:i], s.sequences[i+1:]...)
	return nil
}

// sequenceIndex must be called with s.mu held.
func (s *Store) sequenceIndex(id int64) int {
	for i, seq := range s.sequences {
		if seq.ID == id {
			return i
		}
	}
	return -1
}

// =========================================================================
// UPLOADS
// =========================================================================

// PutUpload stores a copy of data, replacing any earlier blob in the slot.
func (s *Store) PutUpload(_ context.Context, poseID int64, slot string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.uploads[uploadKey{poseID, slot}] = append([]byte(nil), data...)
	return nil
}

func (s *Store) GetUpload(_ context.Context, poseID int64, slot string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.uploads[uploadKey{poseID, slot}]
	if !ok {
		return nil, apperror.NotFound("Upload")
	}
	return append([]byte(nil), data...), nil
}
