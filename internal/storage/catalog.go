package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	apperrors "github.com/UdayIND/MC3-Summit/internal/errors"
	"github.com/UdayIND/MC3-Summit/pkg/contracts/domain"
)

// RunRecord is one stored pipeline run
type RunRecord struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	Status       string
	ManifestJSON string
}

// CatalogStore persists the extracted series. Every save replaces what the
// previous run stored so the catalog always mirrors the latest CSV files.
type CatalogStore struct {
	db *DB
}

func NewCatalogStore(db *DB) *CatalogStore {
	return &CatalogStore{db: db}
}

// ReplaceIndicators deletes all indicator rows and inserts the given tables
func (s *CatalogStore) ReplaceIndicators(ctx context.Context, tables []domain.IndicatorTable) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM indicator_values`); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO indicator_values (indicator, field, year, value) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, t := range tables {
			for _, r := range t.Records {
				if _, err := stmt.ExecContext(ctx, t.Name, t.Field, r.Year, r.Value); err != nil {
					return fmt.Errorf("insert %s/%d: %w", t.Name, r.Year, err)
				}
			}
		}
		return nil
	})
}

// ReplaceThemes deletes all theme rows and inserts the given themes. Absent
// values are not stored.
func (s *CatalogStore) ReplaceThemes(ctx context.Context, themes []domain.ThemeTable) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM theme_values`); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO theme_values (theme, field, year, value) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, theme := range themes {
			for _, row := range theme.Rows {
				for _, field := range theme.Fields {
					v, ok := row.Value(field)
					if !ok {
						continue
					}
					if _, err := stmt.ExecContext(ctx, theme.Name, field, row.Year, v); err != nil {
						return fmt.Errorf("insert %s/%s/%d: %w", theme.Name, field, row.Year, err)
					}
				}
			}
		}
		return nil
	})
}

// Indicator loads one indicator series ordered by year
func (s *CatalogStore) Indicator(ctx context.Context, name string) (domain.IndicatorTable, error) {
	table := domain.IndicatorTable{Name: name}
	rows, err := s.db.Conn().QueryContext(ctx,
		`SELECT field, year, value FROM indicator_values WHERE indicator = ? ORDER BY year ASC`, name)
	if err != nil {
		return table, apperrors.NewStorageError("query indicator", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r domain.IndicatorRecord
		if err := rows.Scan(&table.Field, &r.Year, &r.Value); err != nil {
			return table, apperrors.NewStorageError("scan indicator", err)
		}
		table.Records = append(table.Records, r)
	}
	if err := rows.Err(); err != nil {
		return table, apperrors.NewStorageError("read indicator", err)
	}
	if table.IsEmpty() {
		return table, apperrors.NewNotFoundError("indicator " + name)
	}
	return table, nil
}

// SaveRun records a finished run
func (s *CatalogStore) SaveRun(ctx context.Context, run RunRecord) error {
	_, err := s.db.Conn().ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (id, started_at, finished_at, status, manifest_json) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC(), run.FinishedAt.UTC(), run.Status, run.ManifestJSON)
	if err != nil {
		return apperrors.NewStorageError("save run", err)
	}
	return nil
}

// LatestRun returns the most recently started run
func (s *CatalogStore) LatestRun(ctx context.Context) (*RunRecord, error) {
	var r RunRecord
	err := s.db.Conn().QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, status, manifest_json FROM runs ORDER BY started_at DESC LIMIT 1`,
	).Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Status, &r.ManifestJSON)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("run")
	}
	if err != nil {
		return nil, apperrors.NewStorageError("query latest run", err)
	}
	return &r, nil
}

func (s *CatalogStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStorageError("begin transaction", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return apperrors.NewStorageError("write catalog", err)
	}
	if err := tx.Commit(); err != nil {
		return apperrors.NewStorageError("commit", err)
	}
	return nil
}
