package content

import (
	"regexp"
	"strings"
)

var (
	tokenRe    = regexp.MustCompile(`[\w']+`)
	tagSplitRe = regexp.MustCompile(`[,\n]+`)
)

// NormalizeSearchQuery turns raw user input into a safe boolean-mode
// full-text query with AND semantics. The second return value is false
// when the input contains no searchable tokens.
func NormalizeSearchQuery(raw string) (string, bool) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return "", false
	}
	tokens := tokenRe.FindAllString(cleaned, -1)
	if len(tokens) == 0 {
		return "", false
	}
	quoted := make([]string, 0, len(tokens))
	for _, token := range tokens {
		quoted = append(quoted, `+"`+token+`"`)
	}
	return strings.Join(quoted, " "), true
}

// ParseTagNames splits a comma/newline separated tag string into
// lowercased, deduplicated names in first-seen order.
func ParseTagNames(raw string) []string {
	if raw == "" {
		return nil
	}
	seen := make(map[string]struct{})
	var tags []string
	for _, part := range tagSplitRe.Split(raw, -1) {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		tags = append(tags, name)
	}
	return tags
}
