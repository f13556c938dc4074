package prediction

import "strings"

const keyDelimiter = "|"

// DeriveKey builds the deterministic cache key for a request. The four
// text fields are normalized independently; the date participates raw.
// Field order is fixed: country, league, home team, away team, date.
//
// The function is total: empty fields normalize to empty strings and
// still yield a valid key. Callers validate required fields beforehand.
func DeriveKey(r Request) string {
	parts := []string{
		normalizeKeyPart(r.LeagueCountry),
		normalizeKeyPart(r.LeagueName),
		normalizeKeyPart(r.TeamHome),
		normalizeKeyPart(r.TeamAway),
		r.Date,
	}

	return strings.Join(parts, keyDelimiter)
}

// normalizeKeyPart trims edge whitespace, lower-cases, and collapses any
// internal run of whitespace to a single space.
func normalizeKeyPart(value string) string {
	return strings.ToLower(strings.Join(strings.Fields(value), " "))
}
