/*
 * Copyright (c) 2025 the Firewatch authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package store is the local alert cache. It keeps the last fetched events,
// their alert frames and the frame images in an embedded SQLite database so
// the dashboard stays usable through short platform outages and does not
// re-download media on every refresh.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"firewatch/internal/domain"
	applog "firewatch/internal/log"
	"firewatch/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	CacheFileName = "cache.sqlite"

	// schemaVersion tracks the local SQLite schema. Bump on breaking schema
	// changes and add a migration.
	schemaVersion = 1
)

// Cache wraps the embedded database.
type Cache struct {
	db  *sql.DB
	log *slog.Logger
}

// Open ensures the cache database exists under dir, enables WAL mode and
// brings the schema up to date.
func Open(dir string) (*Cache, error) {
	l := applog.WithOperation(applog.WithComponent("store"), "open").With(
		slog.String("dir", dir),
	)
	if dir == "" {
		return nil, errors.New("cache dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		l.Error("create cache dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	path := filepath.Join(dir, CacheFileName)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}

	l.Info("cache ready", slog.String("path", path))
	return &Cache{db: db, log: applog.WithComponent("store")}, nil
}

// Close releases the database handle.
func (c *Cache) Close() error { return c.db.Close() }

func ensureSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			id            INTEGER PRIMARY KEY,
			camera_json   TEXT NOT NULL,
			created_at    TEXT NOT NULL,
			acknowledged  INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id         INTEGER PRIMARY KEY,
			event_id   INTEGER NOT NULL,
			media_url  TEXT NOT NULL,
			boxes_json TEXT NOT NULL,
			azimuth    REAL NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_event_created ON alerts(event_id, created_at);`,
		`CREATE TABLE IF NOT EXISTS media (
			url        TEXT PRIMARY KEY,
			data       BLOB NOT NULL,
			fetched_at TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// PutEvents upserts a fetched event list, including nested alerts when
// present. Existing rows for an event's alerts are replaced wholesale.
func (c *Cache) PutEvents(ctx context.Context, events []domain.Event) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, ev := range events {
		cam, err := json.Marshal(ev.Camera)
		if err != nil {
			return fmt.Errorf("marshal camera: %w", err)
		}
		ack := 0
		if ev.Acknowledged {
			ack = 1
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO events (id, camera_json, created_at, acknowledged) VALUES(?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET camera_json=excluded.camera_json, acknowledged=excluded.acknowledged`,
			ev.ID, string(cam), ev.Created.UTC().Format(time.RFC3339Nano), ack); err != nil {
			return fmt.Errorf("upsert event %d: %w", ev.ID, err)
		}
		if len(ev.Alerts) == 0 {
			continue
		}
		if err := putAlertsTx(ctx, tx, ev.ID, ev.Alerts); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// PutAlerts replaces the cached alert frames of one event.
func (c *Cache) PutAlerts(ctx context.Context, eventID int64, alerts []domain.Alert) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	if err := putAlertsTx(ctx, tx, eventID, alerts); err != nil {
		return err
	}
	return tx.Commit()
}

func putAlertsTx(ctx context.Context, tx *sql.Tx, eventID int64, alerts []domain.Alert) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM alerts WHERE event_id=?`, eventID); err != nil {
		return fmt.Errorf("clear alerts for event %d: %w", eventID, err)
	}
	for _, a := range alerts {
		boxes, err := json.Marshal(a.Boxes)
		if err != nil {
			return fmt.Errorf("marshal boxes: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO alerts (id, event_id, media_url, boxes_json, azimuth, created_at) VALUES(?, ?, ?, ?, ?, ?)`,
			a.ID, eventID, a.MediaURL, string(boxes), a.Azimuth, a.Created.UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("insert alert %d: %w", a.ID, err)
		}
	}
	return nil
}

// Events returns all cached events with their alert frames, oldest alert
// first within each event.
func (c *Cache) Events(ctx context.Context) ([]domain.Event, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, camera_json, created_at, acknowledged FROM events ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var (
			ev      domain.Event
			cam     string
			created string
			ack     int
		)
		if err := rows.Scan(&ev.ID, &cam, &created, &ack); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if err := json.Unmarshal([]byte(cam), &ev.Camera); err != nil {
			return nil, fmt.Errorf("unmarshal camera: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			ev.Created = t
		}
		ev.Acknowledged = ack != 0
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range events {
		alerts, err := c.alertsFor(ctx, events[i].ID)
		if err != nil {
			return nil, err
		}
		events[i].Alerts = alerts
	}
	return events, nil
}

func (c *Cache) alertsFor(ctx context.Context, eventID int64) ([]domain.Alert, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, event_id, media_url, boxes_json, azimuth, created_at FROM alerts WHERE event_id=? ORDER BY created_at ASC, id ASC`,
		eventID)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []domain.Alert
	for rows.Next() {
		var (
			a       domain.Alert
			boxes   string
			created string
		)
		if err := rows.Scan(&a.ID, &a.EventID, &a.MediaURL, &boxes, &a.Azimuth, &created); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		if err := json.Unmarshal([]byte(boxes), &a.Boxes); err != nil {
			return nil, fmt.Errorf("unmarshal boxes: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			a.Created = t
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// MarkAcknowledged flags an event locally so the alert list drops it even
// before the next platform refresh confirms.
func (c *Cache) MarkAcknowledged(ctx context.Context, eventID int64) error {
	_, err := c.db.ExecContext(ctx, `UPDATE events SET acknowledged=1 WHERE id=?`, eventID)
	return err
}

// PutMedia stores a downloaded frame image keyed by its URL.
func (c *Cache) PutMedia(ctx context.Context, url string, data []byte) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO media (url, data, fetched_at) VALUES(?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET data=excluded.data, fetched_at=excluded.fetched_at`,
		url, data, time.Now().UTC().Format(time.RFC3339))
	return err
}

// Media returns the cached image for url, or (nil, false, nil) on a miss.
func (c *Cache) Media(ctx context.Context, url string) ([]byte, bool, error) {
	var data []byte
	err := c.db.QueryRowContext(ctx, `SELECT data FROM media WHERE url=?`, url).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// PruneMedia drops cached images older than the cutoff.
func (c *Cache) PruneMedia(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM media WHERE fetched_at < ?`,
		olderThan.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
