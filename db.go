package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"circulation-analytics/internal/circulation"
)

var schemaName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

type DBConfig struct {
	URL    string
	Schema string
	Tag    string
}

func sanitizeSchema(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", errors.New("db schema is required")
	}
	if !schemaName.MatchString(value) {
		return "", fmt.Errorf("invalid schema name: %s", value)
	}
	return value, nil
}

// storeRun records a report run and one row per report line in Postgres.
func storeRun(ctx context.Context, result reportResult, cfg DBConfig) (uuid.UUID, error) {
	schema, err := sanitizeSchema(cfg.Schema)
	if err != nil {
		return uuid.Nil, err
	}

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return uuid.Nil, err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, 12*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return uuid.Nil, err
	}
	if err := ensureSchema(ctx, db, schema); err != nil {
		return uuid.Nil, err
	}
	return storeRunTx(ctx, db, result, schema, cfg.Tag)
}

func storeRunTx(ctx context.Context, db *sql.DB, result reportResult, schema string, tag string) (uuid.UUID, error) {
	runID := uuid.New()
	asOf, err := circulation.ParseDate(result.AsOf)
	if err != nil {
		return uuid.Nil, err
	}
	payload, err := json.Marshal(result.Payload)
	if err != nil {
		return uuid.Nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s.report_runs (
			id, report, as_of, row_count, invalid_rows, run_tag, payload
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7
		)`, schema),
		runID,
		result.Name,
		circulation.DateOnly(asOf),
		result.rowCount(),
		result.InvalidRows,
		nullString(tag),
		string(payload),
	)
	if err != nil {
		return uuid.Nil, err
	}

	insertRowSQL := fmt.Sprintf(`
		INSERT INTO %s.report_rows (
			id, run_id, section, position, row
		) VALUES (
			$1,$2,$3,$4,$5
		)`, schema)

	for _, s := range result.Sections {
		for position, row := range s.Rows {
			encoded, err := json.Marshal(row)
			if err != nil {
				return uuid.Nil, err
			}
			if _, err := tx.ExecContext(ctx, insertRowSQL, uuid.New(), runID, s.Name, position+1, string(encoded)); err != nil {
				return uuid.Nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, err
	}
	return runID, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, schema string) error {
	statements := []string{
		fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, schema),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.report_runs (
			id uuid PRIMARY KEY,
			report text NOT NULL,
			as_of date NOT NULL,
			row_count integer NOT NULL,
			invalid_rows integer NOT NULL,
			run_tag text,
			payload jsonb NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, schema),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.report_rows (
			id uuid PRIMARY KEY,
			run_id uuid NOT NULL REFERENCES %s.report_runs(id) ON DELETE CASCADE,
			section text NOT NULL,
			position integer NOT NULL,
			row jsonb NOT NULL
		)`, schema, schema),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_report_runs_as_of_idx ON %s.report_runs (report, as_of)`, schema, schema),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_report_rows_run_idx ON %s.report_rows (run_id, section)`, schema, schema),
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func nullString(value string) sql.NullString {
	if strings.TrimSpace(value) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
