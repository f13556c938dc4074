package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/kraftbet/insights-api/internal/client"
	"github.com/kraftbet/insights-api/internal/domain/prediction"
	"github.com/kraftbet/insights-api/internal/platform/logging"
)

// insights is the terminal companion to the API: selecting a fixture
// fetches its prediction through the server and mirrors it into a local
// per-fixture store, so repeat lookups render without a round trip.

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	logger := logging.NewJSON(logging.LevelWarn)
	serverURL := getEnvDefault("INSIGHTS_SERVER_URL", "http://localhost:8080")
	storePath := getEnvDefault("INSIGHTS_STORE_PATH", defaultStorePath())

	store := client.NewStore(storePath, logger)
	fetcher := client.NewAPIClient(&http.Client{Timeout: 2 * time.Minute}, serverURL)

	var err error
	switch os.Args[1] {
	case "predict":
		err = runPredict(os.Args[2:], fetcher, store, logger)
	case "list":
		err = runList(store)
	case "clear":
		err = store.ClearAll()
	case "prewarm":
		err = runPrewarm(os.Args[2:], fetcher, store, logger)
	default:
		printUsage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("usage: insights <predict|list|clear|prewarm> [flags]")
	fmt.Println("env: INSIGHTS_SERVER_URL (default http://localhost:8080), INSIGHTS_STORE_PATH")
}

func runPredict(args []string, fetcher client.Fetcher, store *client.Store, logger *logging.Logger) error {
	fs := flag.NewFlagSet("predict", flag.ExitOnError)
	fixtureID := fs.String("fixture", "", "fixture identifier")
	date := fs.String("date", "", "match date (YYYY-MM-DD)")
	country := fs.String("country", "", "league country")
	league := fs.String("league", "", "league name")
	home := fs.String("home", "", "home team")
	away := fs.String("away", "", "away team")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *fixtureID == "" {
		return fmt.Errorf("-fixture is required")
	}

	if cached, ok := store.GetByFixtureID(*fixtureID); ok {
		fmt.Println(cached.Prediction)
		return nil
	}

	req := prediction.Request{
		Date:          *date,
		LeagueCountry: *country,
		LeagueName:    *league,
		TeamHome:      *home,
		TeamAway:      *away,
	}
	if !req.Complete() {
		return fmt.Errorf("date, country, league, home and away are all required for a new prediction")
	}

	orchestrator := client.NewOrchestrator(fetcher, store, logger)
	done := make(chan client.State, 1)
	orchestrator.Subscribe(func(state client.State) {
		if !state.Loading {
			select {
			case done <- state:
			default:
			}
		}
	})

	orchestrator.Select(context.Background(), *fixtureID, req)
	state := <-done
	fmt.Println(state.Text)
	return nil
}

func runList(store *client.Store) error {
	if store.Len() == 0 {
		fmt.Println("no stored predictions")
		return nil
	}

	// Listing goes through the persisted file so output order is the
	// stored order, not map iteration order.
	for _, record := range storeRecords(store) {
		fmt.Printf("%s  %s vs %s (%s)\n", record.FixtureID, record.TeamHome, record.TeamAway, record.Date)
	}
	return nil
}

func storeRecords(store *client.Store) []prediction.Stored {
	ids := store.FixtureIDs()
	records := make([]prediction.Stored, 0, len(ids))
	for _, id := range ids {
		if record, ok := store.GetByFixtureID(id); ok {
			records = append(records, record)
		}
	}
	return records
}

func runPrewarm(args []string, fetcher client.Fetcher, store *client.Store, logger *logging.Logger) error {
	fs := flag.NewFlagSet("prewarm", flag.ExitOnError)
	file := fs.String("file", "", "JSON file with fixtures to prewarm")
	workers := fs.Int("workers", 4, "worker pool size")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("-file is required")
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		return fmt.Errorf("read fixtures file: %w", err)
	}

	var fixtures []prewarmFixtureDTO
	if err := sonic.Unmarshal(raw, &fixtures); err != nil {
		return fmt.Errorf("parse fixtures file: %w", err)
	}

	targets := make([]client.Fixture, 0, len(fixtures))
	for _, f := range fixtures {
		targets = append(targets, client.Fixture{
			ID: f.FixtureID,
			Request: prediction.Request{
				Date:          f.Date,
				LeagueCountry: f.LeagueCountry,
				LeagueName:    f.LeagueName,
				TeamHome:      f.TeamHome,
				TeamAway:      f.TeamAway,
			},
		})
	}

	prewarmer := client.NewPrewarmer(fetcher, store, logger, *workers)
	warmed, err := prewarmer.Warm(context.Background(), targets)
	if err != nil {
		return err
	}

	fmt.Printf("warmed %d of %d fixtures\n", warmed, len(targets))
	return nil
}

type prewarmFixtureDTO struct {
	FixtureID     string `json:"fixtureId"`
	Date          string `json:"date"`
	LeagueCountry string `json:"leagueCountry"`
	LeagueName    string `json:"leagueName"`
	TeamHome      string `json:"teamHome"`
	TeamAway      string `json:"teamAway"`
}

func getEnvDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "predictions.json"
	}
	return filepath.Join(home, ".kraftbet", "predictions.json")
}
