package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"hue-bridge-integration/internal/domain/model"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const deviceSchema = `
CREATE TABLE IF NOT EXISTS devices (
	id             TEXT PRIMARY KEY,
	config_entries TEXT NOT NULL,
	connections    TEXT NOT NULL,
	identifiers    TEXT NOT NULL,
	manufacturer   TEXT NOT NULL DEFAULT '',
	name           TEXT NOT NULL DEFAULT '',
	model          TEXT NOT NULL DEFAULT '',
	sw_version     TEXT NOT NULL DEFAULT '',
	created_at     TEXT NOT NULL,
	updated_at     TEXT NOT NULL
)`

// SQLiteDeviceRegistry stores devices in SQLite. A device is matched by any
// of its identifiers or connections.
type SQLiteDeviceRegistry struct {
	db *sql.DB
	// serialises GetOrCreate so two lookups cannot both insert
	mu  sync.Mutex
	now func() time.Time
}

// OpenDeviceRegistry opens (creating if needed) the database at path.
// ":memory:" is accepted for tests.
func OpenDeviceRegistry(path string) (*SQLiteDeviceRegistry, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// one connection keeps ":memory:" a single database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(deviceSchema); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("creating devices table: %w", err)
	}

	return &SQLiteDeviceRegistry{db: db, now: time.Now}, nil
}

func (r *SQLiteDeviceRegistry) Close() error {
	return r.db.Close()
}

// GetOrCreate updates the matching device or inserts a new one.
func (r *SQLiteDeviceRegistry) GetOrCreate(ctx context.Context, spec model.DeviceSpec) (*model.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	devices, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	now := r.now().UTC()
	for _, d := range devices {
		if !matches(d, spec) {
			continue
		}
		apply(d, spec)
		d.UpdatedAt = now
		if err := r.update(ctx, d); err != nil {
			return nil, err
		}
		return d, nil
	}

	d := &model.Device{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	apply(d, spec)
	if err := r.insert(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *SQLiteDeviceRegistry) Get(ctx context.Context, id string) (*model.Device, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, config_entries, connections, identifiers, manufacturer, name, model, sw_version, created_at, updated_at
		FROM devices WHERE id = ?`, id)
	d, err := scanDevice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", model.ErrDeviceNotFound, id)
	}
	return d, err
}

func (r *SQLiteDeviceRegistry) List(ctx context.Context) ([]*model.Device, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, config_entries, connections, identifiers, manufacturer, name, model, sw_version, created_at, updated_at
		FROM devices ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	var devices []*model.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

func (r *SQLiteDeviceRegistry) insert(ctx context.Context, d *model.Device) error {
	entries, conns, ids, err := encodeSets(d)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO devices (id, config_entries, connections, identifiers, manufacturer, name, model, sw_version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, entries, conns, ids, d.Manufacturer, d.Name, d.Model, d.SwVersion,
		d.CreatedAt.Format(time.RFC3339Nano), d.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("inserting device: %w", err)
	}
	return nil
}

func (r *SQLiteDeviceRegistry) update(ctx context.Context, d *model.Device) error {
	entries, conns, ids, err := encodeSets(d)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE devices SET config_entries = ?, connections = ?, identifiers = ?,
			manufacturer = ?, name = ?, model = ?, sw_version = ?, updated_at = ?
		WHERE id = ?`,
		entries, conns, ids, d.Manufacturer, d.Name, d.Model, d.SwVersion,
		d.UpdatedAt.Format(time.RFC3339Nano), d.ID)
	if err != nil {
		return fmt.Errorf("updating device: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDevice(s scanner) (*model.Device, error) {
	var (
		d                    model.Device
		entries, conns, ids  string
		createdAt, updatedAt string
	)
	if err := s.Scan(&d.ID, &entries, &conns, &ids, &d.Manufacturer, &d.Name, &d.Model, &d.SwVersion, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(entries), &d.ConfigEntries); err != nil {
		return nil, fmt.Errorf("decoding config entries: %w", err)
	}
	if err := json.Unmarshal([]byte(conns), &d.Connections); err != nil {
		return nil, fmt.Errorf("decoding connections: %w", err)
	}
	if err := json.Unmarshal([]byte(ids), &d.Identifiers); err != nil {
		return nil, fmt.Errorf("decoding identifiers: %w", err)
	}
	d.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	d.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &d, nil
}

func encodeSets(d *model.Device) (string, string, string, error) {
	entries, err := json.Marshal(d.ConfigEntries)
	if err != nil {
		return "", "", "", err
	}
	conns, err := json.Marshal(d.Connections)
	if err != nil {
		return "", "", "", err
	}
	ids, err := json.Marshal(d.Identifiers)
	if err != nil {
		return "", "", "", err
	}
	return string(entries), string(conns), string(ids), nil
}

func matches(d *model.Device, spec model.DeviceSpec) bool {
	for _, id := range spec.Identifiers {
		if slices.Contains(d.Identifiers, id) {
			return true
		}
	}
	for _, c := range spec.Connections {
		if slices.Contains(d.Connections, c) {
			return true
		}
	}
	return false
}

// apply merges the sets of spec into d and overwrites the descriptive fields
// that spec sets.
func apply(d *model.Device, spec model.DeviceSpec) {
	if spec.ConfigEntryID != "" && !slices.Contains(d.ConfigEntries, spec.ConfigEntryID) {
		d.ConfigEntries = append(d.ConfigEntries, spec.ConfigEntryID)
	}
	for _, c := range spec.Connections {
		if !slices.Contains(d.Connections, c) {
			d.Connections = append(d.Connections, c)
		}
	}
	for _, id := range spec.Identifiers {
		if !slices.Contains(d.Identifiers, id) {
			d.Identifiers = append(d.Identifiers, id)
		}
	}
	if spec.Manufacturer != "" {
		d.Manufacturer = spec.Manufacturer
	}
	if spec.Name != "" {
		d.Name = spec.Name
	}
	if spec.Model != "" {
		d.Model = spec.Model
	}
	if spec.SwVersion != "" {
		d.SwVersion = spec.SwVersion
	}
}
