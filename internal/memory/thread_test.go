package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func turnsWithImages(imageSets ...[]string) []Turn {
	turns := make([]Turn, 0, len(imageSets))
	for _, images := range imageSets {
		turns = append(turns, Turn{Role: "user", Images: images})
	}
	return turns
}

func TestImageList(t *testing.T) {
	tests := []struct {
		name  string
		turns []Turn
		want  []string
	}{
		{
			name:  "no_turns",
			turns: nil,
			want:  nil,
		},
		{
			name:  "single_turn_keeps_stored_order",
			turns: turnsWithImages([]string{"a.png", "b.png"}),
			want:  []string{"a.png", "b.png"},
		},
		{
			name: "newest_occurrence_wins",
			turns: turnsWithImages(
				[]string{"old.png", "shared.png"},
				[]string{"mid.png"},
				[]string{"shared.png", "new.png"},
			),
			want: []string{"shared.png", "new.png", "mid.png", "old.png"},
		},
		{
			name: "turns_without_images_are_skipped",
			turns: turnsWithImages(
				[]string{"a.png"},
				nil,
				[]string{"b.png"},
			),
			want: []string{"b.png", "a.png"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := &ThreadContext{Turns: tt.turns}
			assert.Equal(t, tt.want, ImageList(tc))
		})
	}
}

func TestImageList_NilContext(t *testing.T) {
	assert.Nil(t, ImageList(nil))
}

func TestFileList(t *testing.T) {
	tc := &ThreadContext{Turns: []Turn{
		{Role: "user", Files: []string{"main.go", "util.go"}},
		{Role: "assistant"},
		{Role: "user", Files: []string{"util.go", "new.go"}},
	}}

	assert.Equal(t, []string{"util.go", "new.go", "main.go"}, FileList(tc))
}
