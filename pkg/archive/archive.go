// Package archive accumulates dated country-interest snapshots in a local
// sqlite database. The CSV outputs stay point-in-time for the dashboard;
// the archive gives the top-5 appearance counts a time dimension to grow
// into without changing the CSV contract.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"trendpulse-go/pkg/dataset"
)

const schema = `
CREATE TABLE IF NOT EXISTS country_snapshots (
	run_date TEXT NOT NULL,
	country  TEXT NOT NULL,
	keyword  TEXT NOT NULL,
	interest INTEGER NOT NULL,
	PRIMARY KEY (run_date, country, keyword)
);`

// SnapshotArchive stores one country-interest snapshot per run date.
type SnapshotArchive struct {
	db *sql.DB
}

func Open(path string) (*SnapshotArchive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create snapshot table: %w", err)
	}
	return &SnapshotArchive{db: db}, nil
}

func (a *SnapshotArchive) Close() error {
	return a.db.Close()
}

// SaveCountrySnapshot inserts the snapshot for runDate, replacing any rows
// already archived for that date so a same-day rerun is idempotent.
func (a *SnapshotArchive) SaveCountrySnapshot(ctx context.Context, runDate time.Time, rows []dataset.CountryRow) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	date := runDate.Format(dataset.DateFormat)
	if _, err := tx.ExecContext(ctx, `DELETE FROM country_snapshots WHERE run_date = ?`, date); err != nil {
		return fmt.Errorf("clear snapshot for %s: %w", date, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO country_snapshots (run_date, country, keyword, interest) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, date, r.Country, r.Keyword, r.Interest); err != nil {
			return fmt.Errorf("insert snapshot row: %w", err)
		}
	}
	return tx.Commit()
}

// SnapshotDates lists archived run dates in ascending order.
func (a *SnapshotArchive) SnapshotDates(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT DISTINCT run_date FROM country_snapshots ORDER BY run_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// Snapshot returns the archived rows for one run date.
func (a *SnapshotArchive) Snapshot(ctx context.Context, runDate string) ([]dataset.CountryRow, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT country, keyword, interest FROM country_snapshots WHERE run_date = ? ORDER BY country, keyword`,
		runDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []dataset.CountryRow
	for rows.Next() {
		var r dataset.CountryRow
		if err := rows.Scan(&r.Country, &r.Keyword, &r.Interest); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
