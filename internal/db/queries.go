// internal/db/queries.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const (
	RunSourceUpload = "upload"
	RunSourceSheets = "sheets"

	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

type ConversionRun struct {
	ID             string
	Town           string
	Source         string
	Status         string
	RefereeGames   int64
	TeamGames      int64
	TownSlots      int64
	Assignments    int64
	UnmatchedSlots int64
	UnmatchedGames int64
	OutputKey      sql.NullString
	ErrorMessage   sql.NullString
	CreatedAt      time.Time
	CompletedAt    sql.NullTime
}

const conversionRunColumns = `id, town, source, status, referee_games, team_games, town_slots,
	assignments, unmatched_slots, unmatched_games, output_key, error_message, created_at, completed_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanConversionRun(row rowScanner) (ConversionRun, error) {
	var i ConversionRun
	err := row.Scan(
		&i.ID,
		&i.Town,
		&i.Source,
		&i.Status,
		&i.RefereeGames,
		&i.TeamGames,
		&i.TownSlots,
		&i.Assignments,
		&i.UnmatchedSlots,
		&i.UnmatchedGames,
		&i.OutputKey,
		&i.ErrorMessage,
		&i.CreatedAt,
		&i.CompletedAt,
	)
	return i, err
}

const createConversionRun = `INSERT INTO conversion_runs (id, town, source, status, created_at)
VALUES (?, ?, ?, '` + RunStatusRunning + `', ?)`

type CreateConversionRunParams struct {
	ID        string
	Town      string
	Source    string
	CreatedAt time.Time
}

func (q *Queries) CreateConversionRun(ctx context.Context, arg CreateConversionRunParams) (ConversionRun, error) {
	if _, err := q.db.ExecContext(ctx, createConversionRun, arg.ID, arg.Town, arg.Source, arg.CreatedAt.UTC()); err != nil {
		return ConversionRun{}, fmt.Errorf("create conversion run: %w", err)
	}
	return q.GetConversionRun(ctx, arg.ID)
}

const completeConversionRun = `UPDATE conversion_runs
SET status = '` + RunStatusSucceeded + `',
	referee_games = ?,
	team_games = ?,
	town_slots = ?,
	assignments = ?,
	unmatched_slots = ?,
	unmatched_games = ?,
	output_key = ?,
	completed_at = ?
WHERE id = ?`

type CompleteConversionRunParams struct {
	ID             string
	RefereeGames   int64
	TeamGames      int64
	TownSlots      int64
	Assignments    int64
	UnmatchedSlots int64
	UnmatchedGames int64
	OutputKey      string
	CompletedAt    time.Time
}

func (q *Queries) CompleteConversionRun(ctx context.Context, arg CompleteConversionRunParams) (ConversionRun, error) {
	result, err := q.db.ExecContext(ctx, completeConversionRun,
		arg.RefereeGames,
		arg.TeamGames,
		arg.TownSlots,
		arg.Assignments,
		arg.UnmatchedSlots,
		arg.UnmatchedGames,
		arg.OutputKey,
		arg.CompletedAt.UTC(),
		arg.ID,
	)
	if err := checkUpdated(result, err); err != nil {
		return ConversionRun{}, fmt.Errorf("complete conversion run: %w", err)
	}
	return q.GetConversionRun(ctx, arg.ID)
}

const failConversionRun = `UPDATE conversion_runs
SET status = '` + RunStatusFailed + `',
	error_message = ?,
	completed_at = ?
WHERE id = ?`

type FailConversionRunParams struct {
	ID           string
	ErrorMessage string
	CompletedAt  time.Time
}

func (q *Queries) FailConversionRun(ctx context.Context, arg FailConversionRunParams) (ConversionRun, error) {
	result, err := q.db.ExecContext(ctx, failConversionRun, arg.ErrorMessage, arg.CompletedAt.UTC(), arg.ID)
	if err := checkUpdated(result, err); err != nil {
		return ConversionRun{}, fmt.Errorf("fail conversion run: %w", err)
	}
	return q.GetConversionRun(ctx, arg.ID)
}

// checkUpdated reports sql.ErrNoRows when an update matched nothing.
func checkUpdated(result sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const getConversionRun = `SELECT ` + conversionRunColumns + `
FROM conversion_runs
WHERE id = ?`

func (q *Queries) GetConversionRun(ctx context.Context, id string) (ConversionRun, error) {
	row := q.db.QueryRowContext(ctx, getConversionRun, id)
	return scanConversionRun(row)
}

const listConversionRuns = `SELECT ` + conversionRunColumns + `
FROM conversion_runs
WHERE (? = '' OR town = ?)
ORDER BY created_at DESC, id DESC
LIMIT ?`

type ListConversionRunsParams struct {
	// Town filters by town when non-empty.
	Town  string
	Limit int64
}

func (q *Queries) ListConversionRuns(ctx context.Context, arg ListConversionRunsParams) ([]ConversionRun, error) {
	rows, err := q.db.QueryContext(ctx, listConversionRuns, arg.Town, arg.Town, arg.Limit)
	if err != nil {
		return nil, fmt.Errorf("list conversion runs: %w", err)
	}
	defer rows.Close()

	var items []ConversionRun
	for rows.Next() {
		i, err := scanConversionRun(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
