// Package store persists player records in PostgreSQL.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq" // PostgreSQL driver

	"github.com/myusername/footballer-scraper/pkg/models"
)

const (
	// DefaultMaxOpenConns is the default maximum number of open connections
	DefaultMaxOpenConns = 10
	// DefaultMaxIdleConns is the default maximum number of idle connections
	DefaultMaxIdleConns = 5
	// DefaultConnMaxLifetime is the default maximum connection lifetime
	DefaultConnMaxLifetime = 5 * time.Minute
	// DefaultPingTimeout is the default timeout for ping operations
	DefaultPingTimeout = 5 * time.Second
)

// Table is the name of the players table.
const Table = "players"

// Columns lists every column of the players table in schema order.
var Columns = []string{
	"playerid", "url", "name", "full_name", "date_of_birth", "age",
	"place_of_birth", "country_of_birth", "position", "current_club",
	"national_team", "appearances_current_club", "goals_current_club",
	"scraping_timestamp",
}

// Config holds database connection settings.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN renders the config as a lib/pq connection string.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Connect opens a PostgreSQL connection pool and verifies it with a ping.
func Connect(cfg Config) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), DefaultPingTimeout)
	defer cancel()

	if pingErr := db.PingContext(ctx); pingErr != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", pingErr)
	}

	return db, nil
}

// Store handles database operations on the players table.
type Store struct {
	db *sqlx.DB
}

// New creates a Store on an open connection pool.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

const upsertQuery = `
	INSERT INTO players (
		playerid, url, name, full_name, date_of_birth, age,
		place_of_birth, country_of_birth, position, current_club,
		national_team, appearances_current_club, goals_current_club,
		scraping_timestamp
	)
	VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		CURRENT_TIMESTAMP AT TIME ZONE 'UTC'
	)
	ON CONFLICT (url) DO UPDATE
	SET
		name = EXCLUDED.name,
		full_name = EXCLUDED.full_name,
		date_of_birth = EXCLUDED.date_of_birth,
		age = EXCLUDED.age,
		place_of_birth = EXCLUDED.place_of_birth,
		country_of_birth = EXCLUDED.country_of_birth,
		position = EXCLUDED.position,
		current_club = EXCLUDED.current_club,
		national_team = EXCLUDED.national_team,
		appearances_current_club = EXCLUDED.appearances_current_club,
		goals_current_club = EXCLUDED.goals_current_club,
		scraping_timestamp = EXCLUDED.scraping_timestamp
`

// Upsert inserts the record under id, or overwrites the row already stored for
// url. The id of an existing row is kept.
func (s *Store) Upsert(ctx context.Context, id, url string, rec *models.PlayerRecord) error {
	_, err := s.db.ExecContext(ctx, upsertQuery,
		id,
		url,
		rec.Name,
		rec.FullName,
		rec.DateOfBirth,
		rec.Age,
		rec.PlaceOfBirth,
		rec.CountryOfBirth,
		rec.Position,
		rec.CurrentTeam,
		rec.NationalTeam,
		rec.AppearancesCurrentClub,
		rec.GoalsCurrentClub,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert player %s: %w", url, err)
	}
	return nil
}

// Columns returns the column names the players table has in the database.
func (s *Store) Columns(ctx context.Context) ([]string, error) {
	query := `SELECT column_name FROM information_schema.columns
		WHERE table_name = $1 ORDER BY ordinal_position`

	var columns []string
	if err := s.db.SelectContext(ctx, &columns, query, Table); err != nil {
		return nil, fmt.Errorf("failed to list columns: %w", err)
	}
	return columns, nil
}

// AppendRows inserts rows into the players table in a single transaction. Every
// row must hold one value per column. Nothing is inserted if any row fails.
func (s *Store) AppendRows(ctx context.Context, columns []string, rows [][]any) (int, error) {
	if len(columns) == 0 || len(rows) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PreparexContext(ctx, insertQuery(columns))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("row %d has %d values, want %d", i+1, len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return 0, fmt.Errorf("failed to insert row %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return len(rows), nil
}

func insertQuery(columns []string) string {
	quoted := make([]string, len(columns))
	params := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = pq.QuoteIdentifier(col)
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		Table, strings.Join(quoted, ", "), strings.Join(params, ", "))
}
