package prediction

import "testing"

func TestDeriveKey_StableAcrossCaseAndWhitespace(t *testing.T) {
	t.Parallel()

	base := Request{
		Date:          "2025-03-10",
		LeagueCountry: "England",
		LeagueName:    "Premier League",
		TeamHome:      "Arsenal",
		TeamAway:      "Chelsea",
	}

	variants := []Request{
		{
			Date:          "2025-03-10",
			LeagueCountry: "  england ",
			LeagueName:    "premier   league",
			TeamHome:      "ARSENAL",
			TeamAway:      " chelsea\t",
		},
		{
			Date:          "2025-03-10",
			LeagueCountry: "ENGLAND",
			LeagueName:    " Premier\tLeague ",
			TeamHome:      "arsenal ",
			TeamAway:      "Chelsea",
		},
	}

	want := DeriveKey(base)
	for _, variant := range variants {
		if got := DeriveKey(variant); got != want {
			t.Fatalf("DeriveKey(%+v) = %q, want %q", variant, got, want)
		}
	}
}

func TestDeriveKey_DiscriminatesContent(t *testing.T) {
	t.Parallel()

	base := Request{
		Date:          "2025-03-10",
		LeagueCountry: "England",
		LeagueName:    "Premier League",
		TeamHome:      "Arsenal",
		TeamAway:      "Chelsea",
	}

	tests := []struct {
		name   string
		mutate func(Request) Request
	}{
		{"different home team", func(r Request) Request { r.TeamHome = "Tottenham"; return r }},
		{"different away team", func(r Request) Request { r.TeamAway = "Fulham"; return r }},
		{"different league", func(r Request) Request { r.LeagueName = "Championship"; return r }},
		{"different country", func(r Request) Request { r.LeagueCountry = "Spain"; return r }},
		{"different date", func(r Request) Request { r.Date = "2025-03-11"; return r }},
	}

	baseKey := DeriveKey(base)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := DeriveKey(tc.mutate(base)); got == baseKey {
				t.Fatalf("expected distinct key, got %q for both", got)
			}
		})
	}
}

func TestDeriveKey_FixedFieldOrder(t *testing.T) {
	t.Parallel()

	req := Request{
		Date:          "2025-03-10",
		LeagueCountry: "England",
		LeagueName:    "Premier League",
		TeamHome:      "Arsenal",
		TeamAway:      "Chelsea",
	}

	want := "england|premier league|arsenal|chelsea|2025-03-10"
	if got := DeriveKey(req); got != want {
		t.Fatalf("DeriveKey = %q, want %q", got, want)
	}
}

func TestDeriveKey_TotalOverEmptyInput(t *testing.T) {
	t.Parallel()

	if got := DeriveKey(Request{}); got != "||||" {
		t.Fatalf("DeriveKey(zero) = %q, want %q", got, "||||")
	}
}

func TestRequest_Complete(t *testing.T) {
	t.Parallel()

	full := Request{
		Date:          "2025-03-10",
		LeagueCountry: "England",
		LeagueName:    "Premier League",
		TeamHome:      "Arsenal",
		TeamAway:      "Chelsea",
	}
	if !full.Complete() {
		t.Fatalf("expected complete request")
	}

	missing := full
	missing.TeamAway = ""
	if missing.Complete() {
		t.Fatalf("expected incomplete request when a field is empty")
	}
}
