// Package postgres stores activity history in PostgreSQL through the pgx
// database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"go.uber.org/zap"
)

const schema = `
create table if not exists history (
	id             text primary key,
	user_id        text not null,
	feature        text not null,
	language       text not null default '',
	input_summary  text not null default '',
	output_summary text not null default '',
	confidence     double precision not null default 0,
	created_at     timestamptz not null default now()
);
create index if not exists history_user_created_idx on history (user_id, created_at desc);`

// Open connects, verifies the connection and creates the schema.
func Open(ctx context.Context, dsn string, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(1 * time.Hour)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db.Ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Info("Connected to PostgreSQL")
	return db, nil
}
