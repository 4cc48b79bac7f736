package grading

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// TokenStatus tags one token of an aligned diff.
type TokenStatus string

const (
	TokenMatch        TokenStatus = "match"
	TokenMissing      TokenStatus = "missing"
	TokenExtra        TokenStatus = "extra"
	TokenSubstitution TokenStatus = "substitution"
)

// DiffToken is a single whitespace token with its alignment status.
type DiffToken struct {
	Token  string
	Status TokenStatus
}

// TokenDiff holds both sides of an aligned token diff. Expected carries
// match/missing/substitution tokens, Actual carries match/extra/substitution.
type TokenDiff struct {
	Expected []DiffToken
	Actual   []DiffToken
}

// DiffTokens aligns the whitespace tokens of both texts using
// longest-common-subsequence opcodes. Output order follows the inputs and
// is stable for fixed inputs.
func DiffTokens(expectedText, actualText string) TokenDiff {
	expectedTokens := strings.Fields(expectedText)
	actualTokens := strings.Fields(actualText)

	matcher := difflib.NewMatcher(expectedTokens, actualTokens)
	var diff TokenDiff
	for _, op := range matcher.GetOpCodes() {
		switch op.Tag {
		case 'e':
			for _, token := range expectedTokens[op.I1:op.I2] {
				diff.Expected = append(diff.Expected, DiffToken{Token: token, Status: TokenMatch})
			}
			for _, token := range actualTokens[op.J1:op.J2] {
				diff.Actual = append(diff.Actual, DiffToken{Token: token, Status: TokenMatch})
			}
		case 'd':
			for _, token := range expectedTokens[op.I1:op.I2] {
				diff.Expected = append(diff.Expected, DiffToken{Token: token, Status: TokenMissing})
			}
		case 'i':
			for _, token := range actualTokens[op.J1:op.J2] {
				diff.Actual = append(diff.Actual, DiffToken{Token: token, Status: TokenExtra})
			}
		case 'r':
			for _, token := range expectedTokens[op.I1:op.I2] {
				diff.Expected = append(diff.Expected, DiffToken{Token: token, Status: TokenSubstitution})
			}
			for _, token := range actualTokens[op.J1:op.J2] {
				diff.Actual = append(diff.Actual, DiffToken{Token: token, Status: TokenSubstitution})
			}
		}
	}
	return diff
}
