package hints

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"memcoach/internal/domain"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  domain.HintMode
	}{
		{name: "known mode", input: "first_letters", want: domain.HintModeFirstLetters},
		{name: "trims and lowercases", input: "  Line_By_Line ", want: domain.HintModeLineByLine},
		{name: "empty falls back to none", input: "", want: domain.HintModeNone},
		{name: "unknown falls back to none", input: "backwards", want: domain.HintModeNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestBuild(t *testing.T) {
	text := "The Lord is my shepherd\nI shall not want"

	tests := []struct {
		name string
		mode domain.HintMode
		want string
	}{
		{
			name: "none yields nothing",
			mode: domain.HintModeNone,
			want: "",
		},
		{
			name: "first letters keep line breaks",
			mode: domain.HintModeFirstLetters,
			want: "T L i m s\nI s n w",
		},
		{
			name: "every third word survives",
			mode: domain.HintModeEveryNthWord,
			want: "____ ____ is ____ ____\nI ____ ____ want",
		},
		{
			name: "line by line shows only the opening line",
			mode: domain.HintModeLineByLine,
			want: "The Lord is my shepherd\n…",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Build(text, tt.mode))
		})
	}
}

func TestBuildSingleLineTextLineByLine(t *testing.T) {
	assert.Equal(t, "one line only", Build("one line only", domain.HintModeLineByLine))
}

func TestBuildEmptyText(t *testing.T) {
	assert.Equal(t, "", Build("", domain.HintModeFirstLetters))
	assert.Equal(t, "", Build("", domain.HintModeLineByLine))
}

func TestBuildCloze(t *testing.T) {
	got := BuildCloze("The Lord is my shepherd I shall not want")
	assert.Equal(t, "The Lord ____ my shepherd ____ shall not ____", got)
}

func TestOptionsCoverEveryMode(t *testing.T) {
	modes := map[domain.HintMode]bool{}
	for _, option := range Options() {
		modes[option.Mode] = true
	}
	assert.Len(t, modes, 4)
}
