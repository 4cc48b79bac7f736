package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiffTokens(t *testing.T) {
	tests := []struct {
		name         string
		expectedText string
		actualText   string
		wantExpected []DiffToken
		wantActual   []DiffToken
	}{
		{
			name:         "identical texts are all matches",
			expectedText: "the quick fox",
			actualText:   "the quick fox",
			wantExpected: []DiffToken{
				{"the", TokenMatch}, {"quick", TokenMatch}, {"fox", TokenMatch},
			},
			wantActual: []DiffToken{
				{"the", TokenMatch}, {"quick", TokenMatch}, {"fox", TokenMatch},
			},
		},
		{
			name:         "dropped token is missing",
			expectedText: "the quick brown fox",
			actualText:   "the quick fox",
			wantExpected: []DiffToken{
				{"the", TokenMatch}, {"quick", TokenMatch}, {"brown", TokenMissing}, {"fox", TokenMatch},
			},
			wantActual: []DiffToken{
				{"the", TokenMatch}, {"quick", TokenMatch}, {"fox", TokenMatch},
			},
		},
		{
			name:         "invented token is extra",
			expectedText: "the quick fox",
			actualText:   "the very quick fox",
			wantExpected: []DiffToken{
				{"the", TokenMatch}, {"quick", TokenMatch}, {"fox", TokenMatch},
			},
			wantActual: []DiffToken{
				{"the", TokenMatch}, {"very", TokenExtra}, {"quick", TokenMatch}, {"fox", TokenMatch},
			},
		},
		{
			name:         "replaced token is a substitution on both sides",
			expectedText: "the quick fox",
			actualText:   "the slow fox",
			wantExpected: []DiffToken{
				{"the", TokenMatch}, {"quick", TokenSubstitution}, {"fox", TokenMatch},
			},
			wantActual: []DiffToken{
				{"the", TokenMatch}, {"slow", TokenSubstitution}, {"fox", TokenMatch},
			},
		},
		{
			name:         "empty submission marks everything missing",
			expectedText: "two words",
			actualText:   "",
			wantExpected: []DiffToken{
				{"two", TokenMissing}, {"words", TokenMissing},
			},
			wantActual: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DiffTokens(tt.expectedText, tt.actualText)
			assert.Equal(t, tt.wantExpected, got.Expected)
			assert.Equal(t, tt.wantActual, got.Actual)
		})
	}
}

func TestDiffTokensIsStable(t *testing.T) {
	first := DiffTokens("a b c d", "a x c")
	second := DiffTokens("a b c d", "a x c")
	assert.Equal(t, first, second)
}
