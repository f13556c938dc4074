package prediction

import "time"

// Request identifies the match a prediction is generated for. It is an
// ephemeral input payload and is never stored as-is.
type Request struct {
	Date          string
	LeagueCountry string
	LeagueName    string
	TeamHome      string
	TeamAway      string
}

// Complete reports whether every identifying field carries content.
func (r Request) Complete() bool {
	return r.Date != "" &&
		r.LeagueCountry != "" &&
		r.LeagueName != "" &&
		r.TeamHome != "" &&
		r.TeamAway != ""
}

// Stored is a prediction mirrored per concrete fixture. FixtureID is a
// distinct identity from the derived cache key: two physically different
// fixtures with identical team names and date keep separate records here.
type Stored struct {
	FixtureID     string    `json:"fixtureId"`
	Date          string    `json:"date"`
	LeagueCountry string    `json:"leagueCountry"`
	LeagueName    string    `json:"leagueName"`
	TeamHome      string    `json:"teamHome"`
	TeamAway      string    `json:"teamAway"`
	Prediction    string    `json:"prediction"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ArchiveRecord is the durable server-side trail of a generated
// prediction.
type ArchiveRecord struct {
	CacheKey      string
	LeagueCountry string
	LeagueName    string
	TeamHome      string
	TeamAway      string
	MatchDate     string
	Prediction    string
	CreatedAt     time.Time
}
