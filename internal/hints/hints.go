// Package hints renders the assisted prompts shown alongside a card.
package hints

import (
	"regexp"
	"strings"

	"memcoach/internal/domain"
)

// EveryNthWordDefault is the cadence for the nth-word modes.
const EveryNthWordDefault = 3

const maskedWord = "____"

var whitespaceRe = regexp.MustCompile(`\s+`)

// Option pairs a hint mode with its display label.
type Option struct {
	Mode  domain.HintMode
	Label string
}

// Options lists the selectable hint modes in display order.
func Options() []Option {
	return []Option{
		{Mode: domain.HintModeNone, Label: "No hints"},
		{Mode: domain.HintModeFirstLetters, Label: "First letters"},
		{Mode: domain.HintModeEveryNthWord, Label: "Every 3rd word"},
		{Mode: domain.HintModeLineByLine, Label: "Line by line"},
	}
}

// Normalize maps arbitrary input to a known hint mode, falling back to
// none for anything unrecognized.
func Normalize(raw string) domain.HintMode {
	mode := domain.HintMode(strings.ToLower(strings.TrimSpace(raw)))
	switch mode {
	case domain.HintModeNone, domain.HintModeFirstLetters,
		domain.HintModeEveryNthWord, domain.HintModeLineByLine:
		return mode
	}
	return domain.HintModeNone
}

// Build renders the hint for a card's full text, empty for mode none.
func Build(fullText string, mode domain.HintMode) string {
	switch Normalize(string(mode)) {
	case domain.HintModeFirstLetters:
		return firstLetters(fullText)
	case domain.HintModeEveryNthWord:
		return revealEveryNth(fullText, EveryNthWordDefault)
	case domain.HintModeLineByLine:
		return lineByLine(fullText)
	}
	return ""
}

// BuildCloze masks every nth word of the text, the complement of the
// nth-word hint: the kid fills the blanks instead of reading around
// them.
func BuildCloze(fullText string) string {
	return mapWords(fullText, func(i int, word string) string {
		if (i+1)%EveryNthWordDefault == 0 {
			return maskedWord
		}
		return word
	})
}

// revealEveryNth keeps every nth word and blanks the rest.
func revealEveryNth(text string, nth int) string {
	if nth <= 0 {
		return text
	}
	return mapWords(text, func(i int, word string) string {
		if (i+1)%nth == 0 {
			return word
		}
		return maskedWord
	})
}

// firstLetters reduces each word to its first rune, keeping the
// original whitespace shape so line breaks survive.
func firstLetters(text string) string {
	return strings.TrimSpace(mapWords(text, func(_ int, word string) string {
		return string([]rune(word)[:1])
	}))
}

// lineByLine shows the first line and an ellipsis per remaining line.
func lineByLine(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || text == "" {
		return ""
	}
	if len(lines) == 1 {
		return lines[0]
	}
	out := make([]string, len(lines))
	out[0] = lines[0]
	for i := 1; i < len(lines); i++ {
		out[i] = "…"
	}
	return strings.Join(out, "\n")
}

// mapWords applies fn to each whitespace-delimited word, preserving the
// separators between them. The index counts words, not tokens.
func mapWords(text string, fn func(i int, word string) string) string {
	if text == "" {
		return ""
	}
	var b strings.Builder
	wordIndex := 0
	last := 0
	for _, loc := range whitespaceRe.FindAllStringIndex(text, -1) {
		if word := text[last:loc[0]]; word != "" {
			b.WriteString(fn(wordIndex, word))
			wordIndex++
		}
		b.WriteString(text[loc[0]:loc[1]])
		last = loc[1]
	}
	if word := text[last:]; word != "" {
		b.WriteString(fn(wordIndex, word))
	}
	return b.String()
}
