package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	tests := []struct {
		name        string
		skip, limit int
		want        []int
	}{
		{"first page", 0, 2, []int{1, 2}},
		{"middle page", 2, 2, []int{3, 4}},
		{"short last page", 4, 2, []int{5}},
		{"skip past end", 10, 2, []int{}},
		{"skip equals length", 5, 2, []int{}},
		{"zero limit", 0, 0, []int{}},
		{"limit larger than items", 0, 100, []int{1, 2, 3, 4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Paginate(items, tt.skip, tt.limit))
		})
	}
}

func TestPoseClone_IsDeep(t *testing.T) {
	cat := int64(3)
	p := Pose{
		ID:         1,
		NameEN:     StringPtr("Mountain"),
		CategoryID: &cat,
		Muscles:    []PoseMuscle{{MuscleID: 1, MuscleName: "Quadriceps"}},
	}

	c := p.Clone()
	*c.NameEN = "changed"
	*c.CategoryID = 99
	c.Muscles[0].MuscleName = "changed"

	assert.Equal(t, "Mountain", *p.NameEN)
	assert.Equal(t, int64(3), *p.CategoryID)
	assert.Equal(t, "Quadriceps", p.Muscles[0].MuscleName)
}

func TestSequenceTotalDuration(t *testing.T) {
	s := Sequence{Poses: []SequencePose{{DurationSeconds: 10}, {DurationSeconds: 20}}}
	assert.Equal(t, 30, s.TotalDuration())
	assert.Equal(t, 0, Sequence{}.TotalDuration())
}

func TestSchemaURL(t *testing.T) {
	assert.Equal(t, "/storage/uploads/42/schema.png", SchemaURL(42))
}

func TestValidDifficulty(t *testing.T) {
	assert.True(t, ValidDifficulty(DifficultyBeginner))
	assert.True(t, ValidDifficulty(DifficultyAdvanced))
	assert.False(t, ValidDifficulty("expert"))
	assert.False(t, ValidDifficulty(""))
}

func TestStringPtr(t *testing.T) {
	assert.Nil(t, StringPtr(""))
	assert.Equal(t, "x", *StringPtr("x"))
}
