package common

import (
	"strings"
	"unicode"
)

// NormalizeTeamName lowercases a team name and strips punctuation so that
// "St. John's" and "st johns" compare equal. Whitespace is collapsed.
func NormalizeTeamName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// MatchTeamName reports whether an external feed name refers to the same
// team as a locally stored name. Exact normalized comparison first; the
// fallback compares the first significant token of each side with
// prefix tolerance, so "Nebraska" matches "Nebraska Cornhuskers".
//
// This is the only join key between feed records and local games; feed ids
// are not stable across endpoints.
func MatchTeamName(external, local string) bool {
	extNorm := NormalizeTeamName(external)
	localNorm := NormalizeTeamName(local)
	if extNorm == "" || localNorm == "" {
		return false
	}
	if extNorm == localNorm {
		return true
	}

	extTok := firstSignificantToken(extNorm)
	localTok := firstSignificantToken(localNorm)
	if extTok == "" || localTok == "" {
		return false
	}
	return strings.HasPrefix(extTok, localTok) || strings.HasPrefix(localTok, extTok)
}

// firstSignificantToken skips leading tokens too short to identify a team
// ("st", "of") and returns the first one that can.
func firstSignificantToken(normalized string) string {
	for _, tok := range strings.Fields(normalized) {
		if len(tok) >= 4 {
			return tok
		}
	}
	// Nothing long enough; fall back to the whole normalized name.
	return strings.ReplaceAll(normalized, " ", "")
}
