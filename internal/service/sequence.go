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

// SequenceInput is the body of a sequence create request.
type SequenceInput struct {
	Name        string              `json:"name"`
	Description *string             `json:"description"`
	Difficulty  string              `json:"difficulty"`
	Poses       []SequencePoseInput `json:"poses"`
}

// SequencePoseInput places a pose in a sequence. OrderIndex defaults to the
// entry's position in the list.
type SequencePoseInput struct {
	PoseID          int64   `json:"pose_id"`
	OrderIndex      *int    `json:"order_index"`
	DurationSeconds int     `json:"duration_seconds"`
	TransitionNote  *string `json:"transition_note"`
}

// SequenceUpdate is a partial update; nil fields are left unchanged.
type SequenceUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Difficulty  *string `json:"difficulty"`
}

// SequenceStore is the slice of repository.Store the sequence service needs.
type SequenceStore interface {
	repository.SequenceRepository
	repository.PoseRepository
}

type SequenceService struct {
	store  SequenceStore
	now    Clock
	logger *slog.Logger
}

func NewSequenceService(store SequenceStore, now Clock, logger *slog.Logger) *SequenceService {
	if now == nil {
		now = SystemClock
	}
	return &SequenceService{store: store, now: now, logger: logger}
}

// Create stores a sequence whose entries snapshot the referenced poses'
// display fields as they are now. Later pose edits do not reach it.
func (s *SequenceService) Create(ctx context.Context, userID int64, in SequenceInput) (*model.SequenceResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}

	difficulty := in.Difficulty
	if difficulty == "" {
		difficulty = model.DifficultyBeginner
	}
	if !model.ValidDifficulty(difficulty) {
		return nil, apperror.ValidationFailed("difficulty", invalidDifficulty(difficulty))
	}

	entries := make([]model.SequencePose, 0, len(in.Poses))
	for i, p := range in.Poses {
		if p.DurationSeconds < 0 {
			return nil, apperror.ValidationFailed("duration_seconds", "duration_seconds must not be negative")
		}

		pose, err := s.store.GetPose(ctx, p.PoseID)
		if isNotFound(err) || (err == nil && pose.UserID != userID) {
			return nil, apperror.ValidationFailed("pose_id", fmt.Sprintf("Pose %d not found", p.PoseID))
		}
		if err != nil {
			return nil, fmt.Errorf("getting pose: %w", err)
		}

		order := i
		if p.OrderIndex != nil {
			order = *p.OrderIndex
		}
		entries = append(entries, model.SequencePose{
			PoseID:          pose.ID,
			OrderIndex:      order,
			DurationSeconds: p.DurationSeconds,
			TransitionNote:  p.TransitionNote,
			PoseName:        pose.Name,
			PoseCode:        pose.Code,
			PosePhotoPath:   pose.PhotoPath,
			PoseSchemaPath:  pose.SchemaPath,
		})
	}

	now := s.now()
	sequence := &model.Sequence{
		UserID:      userID,
		Name:        name,
		Description: in.Description,
		Difficulty:  difficulty,
		CreatedAt:   now,
		UpdatedAt:   now,
		Poses:       entries,
	}
	if err := s.store.CreateSequence(ctx, sequence); err != nil {
		return nil, fmt.Errorf("creating sequence: %w", err)
	}

	s.logger.Info("sequence created",
		slog.Int64("id", sequence.ID),
		slog.Int("poses", len(entries)),
	)
	return hydrateSequence(*sequence), nil
}

func (s *SequenceService) Get(ctx context.Context, userID, id int64) (*model.SequenceResponse, error) {
	sequence, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return hydrateSequence(*sequence), nil
}

func (s *SequenceService) List(ctx context.Context, userID int64, skip, limit int) (*model.Page[model.SequenceResponse], error) {
	skip, limit = pageBounds(skip, limit, DefaultSequenceLimit)

	sequences, total, err := s.store.ListSequences(ctx, userID, repository.ListOptions{Offset: skip, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("listing sequences: %w", err)
	}

	items := make([]model.SequenceResponse, len(sequences))
	for i, seq := range sequences {
		items[i] = *hydrateSequence(seq)
	}
	return &model.Page[model.SequenceResponse]{Items: items, Total: total, Skip: skip, Limit: limit}, nil
}

// Update applies the non-nil fields of in and bumps updated_at. The pose
// entries cannot be changed through it.
func (s *SequenceService) Update(ctx context.Context, userID, id int64, in SequenceUpdate) (*model.SequenceResponse, error) {
	sequence, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperror.ValidationFailed("name", "name must not be empty")
		}
		sequence.Name = name
	}
	if in.Description != nil {
		sequence.Description = in.Description
	}
	if in.Difficulty != nil {
		if !model.ValidDifficulty(*in.Difficulty) {
			return nil, apperror.ValidationFailed("difficulty", invalidDifficulty(*in.Difficulty))
		}
		sequence.Difficulty = *in.Difficulty
	}
	sequence.UpdatedAt = s.now()

	if err := s.store.UpdateSequence(ctx, sequence); err != nil {
		return nil, err
	}

	s.logger.Info("sequence updated", slog.Int64("id", id))
	return hydrateSequence(*sequence), nil
}

func (s *SequenceService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.DeleteSequence(ctx, id); err != nil {
		return err
	}

	s.logger.Info("sequence deleted", slog.Int64("id", id))
	return nil
}

func (s *SequenceService) owned(ctx context.Context, userID, id int64) (*model.Sequence, error) {
	sequence, err := s.store.GetSequence(ctx, id)
	if err != nil {
		return nil, err
	}
	if sequence.UserID != userID {
		return nil, apperror.NotFound("Sequence")
	}
	return sequence, nil
}

// hydrateSequence computes duration_seconds from the entries.
func hydrateSequence(seq model.Sequence) *model.SequenceResponse {
	if seq.Poses == nil {
		seq.Poses = []model.SequencePose{}
	}
	return &model.SequenceResponse{Sequence: seq, DurationSeconds: seq.TotalDuration()}
}

func invalidDifficulty(d string) string {
	return fmt.Sprintf("difficulty %q must be one of %s, %s or %s", d,
		model.DifficultyBeginner, model.DifficultyIntermediate, model.DifficultyAdvanced)
}
