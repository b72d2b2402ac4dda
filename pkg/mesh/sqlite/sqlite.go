// Package sqlite persists mesh snapshots in a single-table SQLite
// database. Each snapshot section is stored as a JSON payload under its
// own bucket; a whole model is written in one transaction.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chazu/dagnav/pkg/mesh"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

const schema = `CREATE TABLE IF NOT EXISTS state (
	bucket TEXT PRIMARY KEY,
	payload BLOB NOT NULL
)`

var buckets = []string{"meta", "entities", "tags", "values"}

type meta struct {
	Format     string      `json:"format"`
	NextHandle mesh.Handle `json:"next_handle"`
}

const formatName = "dagnav/1"

func open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: create state table: %w", err)
	}
	return db, nil
}

// Save writes snap to path, replacing any model already stored there.
func Save(ctx context.Context, path string, snap *mesh.Snapshot) (retErr error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return fmt.Errorf("sqlite: create dirs: %w", err)
		}
	}
	db, err := open(ctx, path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range buckets {
		var data []byte
		switch bucket {
		case "meta":
			data, err = json.Marshal(meta{Format: formatName, NextHandle: snap.NextHandle})
		case "entities":
			data, err = json.Marshal(snap.Entities)
		case "tags":
			data, err = json.Marshal(snap.Tags)
		case "values":
			data, err = json.Marshal(snap.Values)
		}
		if err != nil {
			return fmt.Errorf("sqlite: encode %s: %w", bucket, err)
		}
		if _, err = tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
			return fmt.Errorf("sqlite: upsert %s: %w", bucket, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// Load reads the snapshot stored at path. A missing file fails with an
// error wrapping fs.ErrNotExist rather than creating an empty database.
func Load(ctx context.Context, path string) (*mesh.Snapshot, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	db, err := open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snap := &mesh.Snapshot{}
	var m meta
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return nil, fmt.Errorf("sqlite: scan: %w", err)
		}
		var target any
		switch bucket {
		case "meta":
			target = &m
		case "entities":
			target = &snap.Entities
		case "tags":
			target = &snap.Tags
		case "values":
			target = &snap.Values
		default:
			continue
		}
		if err := json.Unmarshal(payload, target); err != nil {
			return nil, fmt.Errorf("sqlite: decode %s: %w", bucket, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: rows: %w", err)
	}
	if m.Format != formatName {
		return nil, fmt.Errorf("sqlite: %w: %s is not a dagnav model", mesh.ErrUnsupportedFormat, path)
	}
	snap.NextHandle = m.NextHandle
	if snap.Entities == nil {
		snap.Entities = map[mesh.Handle]mesh.Entity{}
	}
	if snap.Values == nil {
		snap.Values = map[string]map[mesh.Handle]mesh.Value{}
	}
	return snap, nil
}
