package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/pose-mock/internal/apperror"
	"github.com/sakif/pose-mock/internal/model"
	"github.com/sakif/pose-mock/internal/repository"
)

// PoseInput is the body of a pose create request.
type PoseInput struct {
	Code              string            `json:"code"`
	Name              string            `json:"name"`
	NameEN            *string           `json:"name_en"`
	CategoryID        *int64            `json:"category_id"`
	Description       *string           `json:"description"`
	Effect            *string           `json:"effect"`
	Breathing         *string           `json:"breathing"`
	PhotoPath         *string           `json:"photo_path"`
	MuscleLayerPath   *string           `json:"muscle_layer_path"`
	SkeletonLayerPath *string           `json:"skeleton_layer_path"`
	Muscles           []PoseMuscleInput `json:"muscles"`
}

// PoseMuscleInput references a seeded muscle by id.
type PoseMuscleInput struct {
	MuscleID        int64 `json:"muscle_id"`
	ActivationLevel int   `json:"activation_level"`
}

// PoseListParams selects a page of the caller's poses. Negative Skip or
// Limit fall back to the defaults.
type PoseListParams struct {
	CategoryID *int64
	Skip       int
	Limit      int
}

// PoseStore is the slice of repository.Store the pose service needs.
type PoseStore interface {
	repository.PoseRepository
	repository.CategoryRepository
	repository.MuscleRepository
	repository.UploadRepository
}

type PoseService struct {
	store  PoseStore
	now    Clock
	logger *slog.Logger
}

func NewPoseService(store PoseStore, now Clock, logger *slog.Logger) *PoseService {
	if now == nil {
		now = SystemClock
	}
	return &PoseService{store: store, now: now, logger: logger}
}

// Create validates the input, snapshots the referenced muscles and stores a
// version 1 pose. Code uniqueness is not enforced.
func (s *PoseService) Create(ctx context.Context, userID int64, in PoseInput) (*model.PoseResponse, error) {
	code := strings.TrimSpace(in.Code)
	name := strings.TrimSpace(in.Name)
	if code == "" {
		return nil, apperror.ValidationFailed("code", "code is required")
	}
	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}

	var categoryName *string
	if in.CategoryID != nil {
		category, err := s.ownedCategory(ctx, userID, *in.CategoryID)
		if err != nil {
			return nil, err
		}
		categoryName = &category.Name
	}

	muscles, err := s.snapshotMuscles(ctx, in.Muscles)
	if err != nil {
		return nil, err
	}

	now := s.now()
	pose := &model.Pose{
		UserID:            userID,
		Code:              code,
		Name:              name,
		NameEN:            in.NameEN,
		CategoryID:        in.CategoryID,
		Description:       in.Description,
		Effect:            in.Effect,
		Breathing:         in.Breathing,
		PhotoPath:         in.PhotoPath,
		MuscleLayerPath:   in.MuscleLayerPath,
		SkeletonLayerPath: in.SkeletonLayerPath,
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
		Muscles:           muscles,
	}
	if err := s.store.CreatePose(ctx, pose); err != nil {
		return nil, fmt.Errorf("creating pose: %w", err)
	}

	s.logger.Info("pose created",
		slog.Int64("id", pose.ID),
		slog.String("code", pose.Code),
	)
	return &model.PoseResponse{Pose: *pose, CategoryName: categoryName}, nil
}

// ownedCategory resolves a category reference in a request body. Unlike a
// path id, a bad reference here is the request's fault, so it is a 400.
func (s *PoseService) ownedCategory(ctx context.Context, userID, id int64) (*model.Category, error) {
	category, err := s.store.GetCategory(ctx, id)
	if isNotFound(err) || (err == nil && category.UserID != userID) {
		return nil, apperror.ValidationFailed("category_id", fmt.Sprintf("Category %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("getting category: %w", err)
	}
	return category, nil
}

func (s *PoseService) snapshotMuscles(ctx context.Context, in []PoseMuscleInput) ([]model.PoseMuscle, error) {
	out := make([]model.PoseMuscle, 0, len(in))
	for _, m := range in {
		if m.ActivationLevel < 0 || m.ActivationLevel > 100 {
			return nil, apperror.ValidationFailed("activation_level", "activation_level must be between 0 and 100")
		}
		muscle, err := s.store.GetMuscle(ctx, m.MuscleID)
		if isNotFound(err) {
			return nil, apperror.ValidationFailed("muscle_id", fmt.Sprintf("Muscle %d not found", m.MuscleID))
		}
		if err != nil {
			return nil, fmt.Errorf("getting muscle: %w", err)
		}
		out = append(out, model.PoseMuscle{
			MuscleID:        muscle.ID,
			MuscleName:      muscle.Name,
			MuscleNameUA:    muscle.NameUA,
			BodyPart:        muscle.BodyPart,
			ActivationLevel: m.ActivationLevel,
		})
	}
	return out, nil
}

// Get returns the caller's pose, hydrated.
func (s *PoseService) Get(ctx context.Context, userID, id int64) (*model.PoseResponse, error) {
	pose, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, pose)
}

// owned fetches a pose and hides poses of other users behind NotFound.
func (s *PoseService) owned(ctx context.Context, userID, id int64) (*model.Pose, error) {
	pose, err := s.store.GetPose(ctx, id)
	if err != nil {
		return nil, err
	}
	if pose.UserID != userID {
		return nil, apperror.NotFound("Pose")
	}
	return pose, nil
}

func (s *PoseService) hydrate(ctx context.Context, pose *model.Pose) (*model.PoseResponse, error) {
	resp := &model.PoseResponse{Pose: *pose}
	if resp.Muscles == nil {
		resp.Muscles = []model.PoseMuscle{}
	}
	if pose.CategoryID == nil {
		return resp, nil
	}

	category, err := s.store.GetCategory(ctx, *pose.CategoryID)
	if isNotFound(err) {
		return resp, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting category: %w", err)
	}
	if category.UserID == pose.UserID {
		resp.CategoryName = &category.Name
	}
	return resp, nil
}

// List returns one page of the caller's poses. Total counts every match
// before the page window is applied.
func (s *PoseService) List(ctx context.Context, userID int64, params PoseListParams) (*model.Page[model.PoseResponse], error) {
	skip, limit := pageBounds(params.Skip, params.Limit, DefaultPoseLimit)

	poses, total, err := s.store.ListPoses(ctx, repository.PoseFilter{
		UserID:      userID,
		CategoryID:  params.CategoryID,
		ListOptions: repository.ListOptions{Offset: skip, Limit: limit},
	})
	if err != nil {
		return nil, fmt.Errorf("listing poses: %w", err)
	}

	categories, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	items := make([]model.PoseResponse, len(poses))
	for i, p := range poses {
		items[i] = model.PoseResponse{Pose: p}
		if items[i].Muscles == nil {
			items[i].Muscles = []model.PoseMuscle{}
		}
		if p.CategoryID != nil {
			if name, ok := names[*p.CategoryID]; ok {
				items[i].CategoryName = &name
			}
		}
	}

	return &model.Page[model.PoseResponse]{Items: items, Total: total, Skip: skip, Limit: limit}, nil
}

// Delete removes the caller's pose together with its uploaded images.
func (s *PoseService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.DeletePose(ctx, id); err != nil {
		return err
	}

	s.logger.Info("pose deleted", slog.Int64("id", id))
	return nil
}

// UploadSchema stores data as the pose's schema image, points schema_path
// at the storage URL and bumps updated_at. Re-uploading overwrites.
func (s *PoseService) UploadSchema(ctx context.Context, userID, id int64, data []byte) (*model.PoseResponse, error) {
	pose, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if err := s.store.PutUpload(ctx, id, model.SchemaSlot, data); err != nil {
		return nil, fmt.Errorf("storing schema: %w", err)
	}

	pose.SchemaPath = model.StringPtr(model.SchemaURL(id))
	pose.UpdatedAt = s.now()
	if err := s.store.UpdatePose(ctx, pose); err != nil {
		return nil, err
	}

	s.logger.Info("schema uploaded",
		slog.Int64("pose_id", id),
		slog.Int("bytes", len(data)),
	)
	return s.hydrate(ctx, pose)
}

// SchemaImage returns the raw schema bytes for a pose. It is not scoped to
// a user: the storage route is public.
func (s *PoseService) SchemaImage(ctx context.Context, poseID int64) ([]byte, error) {
	return s.store.GetUpload(ctx, poseID, model.SchemaSlot)
}
