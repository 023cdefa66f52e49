package model

import "strconv"

// Page is the envelope for paginated list endpoints. Total is the filtered
// count before Skip and Limit were applied.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
}

// Paginate returns the window [skip, skip+limit) of items, clamped to bounds.
func Paginate[T any](items []T, skip, limit int) []T {
	if skip >= len(items) || limit <= 0 {
		return []T{}
	}
	end := skip + limit
	if end > len(items) {
		end = len(items)
	}
	return items[skip:end]
}

// CloneString copies a nullable string.
func CloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// CloneInt64 copies a nullable int64.
func CloneInt64(n *int64) *int64 {
	if n == nil {
		return nil
	}
	v := *n
	return &v
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
