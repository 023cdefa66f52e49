package model

// Category groups poses. Deleting one orphans its poses.
type Category struct {
	ID          int64   `json:"id"`
	UserID      int64   `json:"user_id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// CategoryResponse adds the number of the caller's poses in the category.
type CategoryResponse struct {
	Category
	PoseCount int `json:"pose_count"`
}

func (c Category) Clone() Category {
	out := c
	out.Description = CloneString(c.Description)
	return out
}

// Muscle is a reference record seeded once from a fixed list.
type Muscle struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	NameUA   *string `json:"name_ua"`
	BodyPart string  `json:"body_part"`
}

func (m Muscle) Clone() Muscle {
	out := m
	out.NameUA = CloneString(m.NameUA)
	return out
}
