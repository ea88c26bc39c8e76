/*
 * Copyright (c) 2025 the Firewatch authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package archive writes an acknowledgement audit trail to a shared
// PostgreSQL database. Control rooms running several dashboard instances
// use it to see who dismissed which event; it is optional and only active
// when a DSN is configured.
package archive

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"firewatch/internal/domain"
	applog "firewatch/internal/log"

	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Archive is a handle on the shared acknowledgement database.
type Archive struct {
	db  *sql.DB
	log *slog.Logger
}

// Acknowledgement is one recorded dismissal.
type Acknowledgement struct {
	EventID  int64
	Camera   string
	Operator string
	AckedAt  time.Time
}

// Open connects, pings and migrates. An empty DSN is a configuration error;
// callers decide beforehand whether the archive is enabled at all.
func Open(ctx context.Context, dsn string) (*Archive, error) {
	l := applog.WithOperation(applog.WithComponent("archive"), "open")
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("archive DSN is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	l.Info("archive ready")
	return &Archive{db: db, log: applog.WithComponent("archive")}, nil
}

// Close releases the database handle.
func (a *Archive) Close() error { return a.db.Close() }

// RecordAcknowledgement appends one dismissal to the audit trail. Recording
// the same event twice is allowed; operators on different instances may race
// and both entries are kept.
func (a *Archive) RecordAcknowledgement(ctx context.Context, ev *domain.Event, operator string) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO acknowledgements (event_id, camera, operator, acked_at) VALUES ($1, $2, $3, $4)`,
		ev.ID, ev.Camera.Name, operator, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record acknowledgement for event %d: %w", ev.ID, err)
	}
	a.log.Info("acknowledgement archived",
		slog.Int64("event_id", ev.ID),
		slog.String("operator", operator))
	return nil
}

// RecentAcknowledgements returns the newest entries, most recent first.
func (a *Archive) RecentAcknowledgements(ctx context.Context, limit int) ([]Acknowledgement, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := a.db.QueryContext(ctx,
		`SELECT event_id, camera, operator, acked_at FROM acknowledgements ORDER BY acked_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query acknowledgements: %w", err)
	}
	defer rows.Close()

	var out []Acknowledgement
	for rows.Next() {
		var ack Acknowledgement
		if err := rows.Scan(&ack.EventID, &ack.Camera, &ack.Operator, &ack.AckedAt); err != nil {
			return nil, fmt.Errorf("scan acknowledgement: %w", err)
		}
		out = append(out, ack)
	}
	return out, rows.Err()
}

// applyMigrations applies embedded SQL migrations in filename order.
func applyMigrations(ctx context.Context, db *sql.DB) error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied := map[int64]bool{}
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("select schema_migrations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return err
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, fname := range files {
		version, err := parseVersion(fname)
		if err != nil {
			return err
		}
		if applied[version] {
			continue
		}
		b, err := migrationsFS.ReadFile(path.Join("migrations", fname))
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(b)) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, string(b)); err != nil {
			return fmt.Errorf("apply %s: %w", fname, err)
		}
		if _, err := db.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, version, fname); err != nil {
			return fmt.Errorf("mark %s applied: %w", fname, err)
		}
	}
	return nil
}

func parseVersion(name string) (int64, error) {
	parts := strings.SplitN(path.Base(name), "_", 2)
	v, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse version from %s: %w", name, err)
	}
	return v, nil
}
