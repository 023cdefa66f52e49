// Package model defines the records held by the store and the hydrated
// shapes returned by the API.
//
// Optional fields are pointers so they serialize as JSON null rather than
// an empty string, matching the real backend's responses.
package model

import "time"

// SchemaSlot is the upload slot name for a pose's schema image.
const SchemaSlot = "schema"

// Pose is a single yoga pose owned by a user.
//
// Version starts at 1. Nothing in the stub increments it; optimistic locking
// is a property of the real backend.
type Pose struct {
	ID                int64        `json:"id"`
	UserID            int64        `json:"user_id"`
	Code              string       `json:"code"`
	Name              string       `json:"name"`
	NameEN            *string      `json:"name_en"`
	CategoryID        *int64       `json:"category_id"`
	Description       *string      `json:"description"`
	Effect            *string      `json:"effect"`
	Breathing         *string      `json:"breathing"`
	SchemaPath        *string      `json:"schema_path"`
	PhotoPath         *string      `json:"photo_path"`
	MuscleLayerPath   *string      `json:"muscle_layer_path"`
	SkeletonLayerPath *string      `json:"skeleton_layer_path"`
	Version           int          `json:"version"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
	Muscles           []PoseMuscle `json:"muscles"`
}

// PoseMuscle links a pose to a muscle. Names are copied from the Muscle at
// insert time.
type PoseMuscle struct {
	MuscleID        int64   `json:"muscle_id"`
	MuscleName      string  `json:"muscle_name"`
	MuscleNameUA    *string `json:"muscle_name_ua"`
	BodyPart        string  `json:"body_part"`
	ActivationLevel int     `json:"activation_level"`
}

// PoseResponse is a Pose hydrated for the API: CategoryName is joined from
// the categories collection at response time and never stored.
type PoseResponse struct {
	Pose
	CategoryName *string `json:"category_name"`
}

// Clone returns a deep copy so store-owned state never escapes.
func (p Pose) Clone() Pose {
	out := p
	out.NameEN = CloneString(p.NameEN)
	out.CategoryID = CloneInt64(p.CategoryID)
	out.Description = CloneString(p.Description)
	out.Effect = CloneString(p.Effect)
	out.Breathing = CloneString(p.Breathing)
	out.SchemaPath = CloneString(p.SchemaPath)
	out.PhotoPath = CloneString(p.PhotoPath)
	out.MuscleLayerPath = CloneString(p.MuscleLayerPath)
	out.SkeletonLayerPath = CloneString(p.SkeletonLayerPath)
	if p.Muscles != nil {
		out.Muscles = make([]PoseMuscle, len(p.Muscles))
		for i, m := range p.Muscles {
			m.MuscleNameUA = CloneString(m.MuscleNameUA)
			out.Muscles[i] = m
		}
	}
	return out
}

// SchemaURL is the fixed-shape path a pose's uploaded schema is served from.
func SchemaURL(poseID int64) string {
	return "/storage/uploads/" + itoa(poseID) + "/schema.png"
}
