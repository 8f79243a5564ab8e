package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/XavierBriggs/fortuna/services/run-creation/pkg/models"
	_ "github.com/lib/pq"
)

// ErrNoRuns is returned when no run has been stored yet
var ErrNoRuns = errors.New("no runs stored")

// TallyStore keeps the narration tallies of every run
type TallyStore interface {
	SaveRun(ctx context.Context, report *models.Report) error
	LatestTallies(ctx context.Context) (string, []models.TeamTally, error)
	Ping(ctx context.Context) error
	Close() error
}

// Schema creates the run history tables
const Schema = `
CREATE TABLE IF NOT EXISTS run_creation_runs (
	run_id       TEXT PRIMARY KEY,
	generated_at TIMESTAMPTZ NOT NULL,
	teams        INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS run_creation_tallies (
	run_id          TEXT NOT NULL REFERENCES run_creation_runs (run_id) ON DELETE CASCADE,
	team_id         INTEGER NOT NULL,
	hr_runs         INTEGER NOT NULL,
	hr_two_out_runs INTEGER NOT NULL,
	two_out_runs    INTEGER NOT NULL,
	PRIMARY KEY (run_id, team_id)
);
`

// Postgres implements TallyStore
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens and pings the database
func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{db: db}, nil
}

// NewPostgresFromDB wraps an existing handle
func NewPostgresFromDB(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates the tables when missing
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// SaveRun stores the run and its tallies in one transaction
func (p *Postgres) SaveRun(ctx context.Context, report *models.Report) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO run_creation_runs (run_id, generated_at, teams)
		VALUES ($1, $2, $3)
	`, report.RunID, report.GeneratedAt, len(report.Rows))
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	tallyQuery := `
		INSERT INTO run_creation_tallies (
			run_id, team_id, hr_runs, hr_two_out_runs, two_out_runs
		) VALUES ($1, $2, $3, $4, $5)
	`
	for _, t := range report.Tallies {
		_, err = tx.ExecContext(ctx, tallyQuery,
			report.RunID,
			int(t.TeamID),
			t.HRRuns,
			t.HRTwoOutRuns,
			t.TwoOutRuns,
		)
		if err != nil {
			return fmt.Errorf("failed to insert tally for team %d: %w", t.TeamID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LatestTallies returns the id and tallies of the newest run
func (p *Postgres) LatestTallies(ctx context.Context) (string, []models.TeamTally, error) {
	var runID string
	err := p.db.QueryRowContext(ctx, `
		SELECT run_id FROM run_creation_runs
		ORDER BY generated_at DESC
		LIMIT 1
	`).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, ErrNoRuns
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to query latest run: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT team_id, hr_runs, hr_two_out_runs, two_out_runs
		FROM run_creation_tallies
		WHERE run_id = $1
		ORDER BY team_id
	`, runID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to query tallies: %w", err)
	}
	defer rows.Close()

	var tallies []models.TeamTally
	for rows.Next() {
		var t models.TeamTally
		var teamID int
		if err := rows.Scan(&teamID, &t.HRRuns, &t.HRTwoOutRuns, &t.TwoOutRuns); err != nil {
			return "", nil, fmt.Errorf("failed to scan tally: %w", err)
		}
		t.TeamID = models.TeamID(teamID)
		tallies = append(tallies, t)
	}
	if err := rows.Err(); err != nil {
		return "", nil, fmt.Errorf("failed to iterate tallies: %w", err)
	}
	return runID, tallies, nil
}

// Ping checks the connection
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the pool
func (p *Postgres) Close() error {
	return p.db.Close()
}
