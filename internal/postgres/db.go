// Package postgres stores projects in PostgreSQL through pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rpggio/cotime/internal/repository"
)

// Conn is the subset of *pgxpool.Pool the repositories use.
type Conn interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Open connects a pool and verifies it with a ping.
func Open(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return pool, nil
}

// RunMigrations creates the schema if it does not exist.
func RunMigrations(ctx context.Context, conn Conn) error {
	if _, err := conn.Exec(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS counters (
    name TEXT PRIMARY KEY,
    value BIGINT NOT NULL
);
INSERT INTO counters (name, value) VALUES ('project_id', 0) ON CONFLICT (name) DO NOTHING;

CREATE TABLE IF NOT EXISTS projects (
    id BIGINT PRIMARY KEY,
    name TEXT NOT NULL CHECK (char_length(name) BETWEEN 1 AND 16),
    theme TEXT NOT NULL CHECK (char_length(theme) >= 1),
    initiator TEXT NOT NULL,
    total_streak_days INTEGER NOT NULL CHECK (total_streak_days BETWEEN 1 AND 365),
    max_members INTEGER NOT NULL CHECK (max_members BETWEEN 1 AND 255),
    finished BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL,
    finished_at TIMESTAMPTZ,
    version BIGINT NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS memberships (
    project_id BIGINT NOT NULL REFERENCES projects(id),
    member TEXT NOT NULL,
    position INTEGER NOT NULL CHECK (position >= 0),
    joined_at TIMESTAMPTZ NOT NULL,
    last_checkin_day BIGINT,
    streak BIGINT NOT NULL DEFAULT 0,
    checkins BIGINT NOT NULL DEFAULT 0,
    last_proof_hash TEXT NOT NULL DEFAULT '',
    CONSTRAINT memberships_pkey PRIMARY KEY (project_id, member),
    CONSTRAINT memberships_position_key UNIQUE (project_id, position)
);
CREATE INDEX IF NOT EXISTS idx_memberships_member ON memberships (member, joined_at, project_id);

CREATE TABLE IF NOT EXISTS checkins (
    id BIGSERIAL PRIMARY KEY,
    project_id BIGINT NOT NULL,
    member TEXT NOT NULL,
    proof_hash TEXT NOT NULL,
    timestamp_unix BIGINT NOT NULL,
    day BIGINT NOT NULL,
    signature BYTEA NOT NULL,
    streak BIGINT NOT NULL,
    recorded_at TIMESTAMPTZ NOT NULL,
    CONSTRAINT checkins_day_key UNIQUE (project_id, member, day),
    FOREIGN KEY (project_id, member) REFERENCES memberships (project_id, member)
);

CREATE TABLE IF NOT EXISTS activity_log (
    seq BIGSERIAL PRIMARY KEY,
    id TEXT NOT NULL UNIQUE,
    project_id BIGINT NOT NULL,
    member TEXT NOT NULL DEFAULT '',
    activity_type TEXT NOT NULL,
    summary TEXT NOT NULL,
    details TEXT NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL,
    tick BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_activity_project ON activity_log (project_id, seq);
`

const (
	bumpVersionSQL   = `UPDATE projects SET version = version + 1 WHERE id = $1 AND version = $2`
	projectExistsSQL = `SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1)`
	insertEntrySQL   = `INSERT INTO activity_log (id, project_id, member, activity_type, summary, details, created_at, tick) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING seq`
)

// bumpVersion advances the project version inside tx if it still equals expected.
func bumpVersion(ctx context.Context, tx pgx.Tx, projectID uint64, expected int64) (int64, error) {
	tag, err := tx.Exec(ctx, bumpVersionSQL, int64(projectID), expected)
	if err != nil {
		return 0, fmt.Errorf("bumping project version: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return expected + 1, nil
	}

	var exists bool
	if err := tx.QueryRow(ctx, projectExistsSQL, int64(projectID)).Scan(&exists); err != nil {
		return 0, fmt.Errorf("checking project: %w", err)
	}
	if !exists {
		return 0, repository.ErrNotFound
	}
	return 0, repository.ErrConflict
}

func rollback(ctx context.Context, tx pgx.Tx, err error) error {
	_ = tx.Rollback(ctx)
	return err
}

func commit(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func uniqueConstraint(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName, true
	}
	return "", false
}
