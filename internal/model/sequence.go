package model

import "time"

// Difficulty levels accepted for a sequence.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// ValidDifficulty reports whether d is one of the known levels.
func ValidDifficulty(d string) bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// Sequence is an ordered practice of poses.
type Sequence struct {
	ID          int64          `json:"id"`
	UserID      int64          `json:"user_id"`
	Name        string         `json:"name"`
	Description *string        `json:"description"`
	Difficulty  string         `json:"difficulty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Poses       []SequencePose `json:"poses"`
}

// SequencePose is a snapshot of a pose's display fields taken when it was
// added to the sequence. Later pose edits are not reflected.
type SequencePose struct {
	ID              int64   `json:"id"`
	PoseID          int64   `json:"pose_id"`
	OrderIndex      int     `json:"order_index"`
	DurationSeconds int     `json:"duration_seconds"`
	TransitionNote  *string `json:"transition_note"`
	PoseName        string  `json:"pose_name"`
	PoseCode        string  `json:"pose_code"`
	PosePhotoPath   *string `json:"pose_photo_path"`
	PoseSchemaPath  *string `json:"pose_schema_path"`
}

// SequenceResponse carries the total duration, computed at response time.
type SequenceResponse struct {
	Sequence
	DurationSeconds int `json:"duration_seconds"`
}

func (s Sequence) Clone() Sequence {
	out := s
	out.Description = CloneString(s.Description)
	if s.Poses != nil {
		out.Poses = make([]SequencePose, len(s.Poses))
		for i, sp := range s.Poses {
			sp.TransitionNote = CloneString(sp.TransitionNote)
			sp.PosePhotoPath = CloneString(sp.PosePhotoPath)
			sp.PoseSchemaPath = CloneString(sp.PoseSchemaPath)
			out.Poses[i] = sp
		}
	}
	return out
}

// TotalDuration sums the child pose durations.
func (s Sequence) TotalDuration() int {
	total := 0
	for _, sp := range s.Poses {
		total += sp.DurationSeconds
	}
	return total
}
