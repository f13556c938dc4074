package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kraftbet/insights-api/internal/domain/prediction"
)

// PredictionArchiveRepository keeps a durable trail of generated
// predictions. Inserts are append-only; rows are never updated.
type PredictionArchiveRepository struct {
	db *sqlx.DB
}

func NewPredictionArchiveRepository(db *sqlx.DB) *PredictionArchiveRepository {
	return &PredictionArchiveRepository{db: db}
}

func (r *PredictionArchiveRepository) Insert(ctx context.Context, record prediction.ArchiveRecord) error {
	model := predictionArchiveInsertModel{
		CacheKey:      record.CacheKey,
		LeagueCountry: record.LeagueCountry,
		LeagueName:    record.LeagueName,
		TeamHome:      record.TeamHome,
		TeamAway:      record.TeamAway,
		MatchDate:     record.MatchDate,
		Prediction:    record.Prediction,
		CreatedAt:     record.CreatedAt,
	}

	const query = `INSERT INTO prediction_archive
    (cache_key, league_country, league_name, team_home, team_away, match_date, prediction, created_at)
VALUES
    (:cache_key, :league_country, :league_name, :team_home, :team_away, :match_date, :prediction, :created_at)`

	if _, err := r.db.NamedExecContext(ctx, query, model); err != nil {
		return fmt.Errorf("insert prediction archive key=%s: %w", record.CacheKey, err)
	}

	return nil
}

func (r *PredictionArchiveRepository) ListRecent(ctx context.Context, limit int) ([]prediction.ArchiveRecord, error) {
	const query = `SELECT cache_key, league_country, league_name, team_home, team_away, match_date, prediction, created_at
FROM prediction_archive
ORDER BY created_at DESC
LIMIT $1`

	var rows []predictionArchiveRowModel
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("list recent prediction archive: %w", err)
	}

	records := make([]prediction.ArchiveRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, prediction.ArchiveRecord{
			CacheKey:      row.CacheKey,
			LeagueCountry: row.LeagueCountry,
			LeagueName:    row.LeagueName,
			TeamHome:      row.TeamHome,
			TeamAway:      row.TeamAway,
			MatchDate:     row.MatchDate,
			Prediction:    row.Prediction,
			CreatedAt:     row.CreatedAt,
		})
	}

	return records, nil
}

type predictionArchiveInsertModel struct {
	CacheKey      string    `db:"cache_key"`
	LeagueCountry string    `db:"league_country"`
	LeagueName    string    `db:"league_name"`
	TeamHome      string    `db:"team_home"`
	TeamAway      string    `db:"team_away"`
	MatchDate     string    `db:"match_date"`
	Prediction    string    `db:"prediction"`
	CreatedAt     time.Time `db:"created_at"`
}

type predictionArchiveRowModel struct {
	CacheKey      string    `db:"cache_key"`
	LeagueCountry string    `db:"league_country"`
	LeagueName    string    `db:"league_name"`
	TeamHome      string    `db:"team_home"`
	TeamAway      string    `db:"team_away"`
	MatchDate     string    `db:"match_date"`
	Prediction    string    `db:"prediction"`
	CreatedAt     time.Time `db:"created_at"`
}
