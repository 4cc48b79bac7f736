package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSearchQuery(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantOK  bool
	}{
		{"empty input", "", "", false},
		{"whitespace only", "   ", "", false},
		{"punctuation only", "!?—", "", false},
		{"single token", "shepherd", `+"shepherd"`, true},
		{"multiple tokens get AND semantics", "green pastures", `+"green" +"pastures"`, true},
		{"apostrophes survive", "don't fear", `+"don't" +"fear"`, true},
		{"operators are stripped from tokens", `psalm* -23 "still"`, `+"psalm" +"23" +"still"`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeSearchQuery(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTagNames(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", nil},
		{"single tag", "Psalms", []string{"psalms"}},
		{"comma separated with spaces", "psalms, Memory Work ,  verses", []string{"psalms", "memory work", "verses"}},
		{"newline separated", "psalms\nverses", []string{"psalms", "verses"}},
		{"case-insensitive dedupe keeps first occurrence", "Psalms,psalms,PSALMS,verses", []string{"psalms", "verses"}},
		{"blank segments dropped", ",, psalms ,,", []string{"psalms"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTagNames(tt.raw))
		})
	}
}
