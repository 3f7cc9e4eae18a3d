package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"hue-bridge-integration/internal/domain/model"
	"maps"
	"os"
	"path/filepath"
	"reflect"
	"sync"

	"github.com/google/uuid"
)

const entriesVersion = 1

// JSONEntryStore keeps config entries in a single JSON file.
type JSONEntryStore struct {
	filepath string
	mu       sync.RWMutex
}

type entriesFile struct {
	Version int                  `json:"version"`
	Entries []*model.ConfigEntry `json:"entries"`
}

func NewJSONEntryStore(filepath string) *JSONEntryStore {
	return &JSONEntryStore{filepath: filepath}
}

func (r *JSONEntryStore) ListEntries(ctx context.Context, domain string) ([]*model.ConfigEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, err := r.read()
	if err != nil {
		return nil, err
	}

	entries := make([]*model.ConfigEntry, 0, len(f.Entries))
	for _, e := range f.Entries {
		if domain == "" || e.Domain == domain {
			entries = append(entries, e.Clone())
		}
	}
	return entries, nil
}

func (r *JSONEntryStore) GetEntry(ctx context.Context, entryID string) (*model.ConfigEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, err := r.read()
	if err != nil {
		return nil, err
	}
	e, _ := find(f, entryID)
	if e == nil {
		return nil, fmt.Errorf("%w: %s", model.ErrEntryNotFound, entryID)
	}
	return e.Clone(), nil
}

// AddEntry stores a new entry, assigning an entry id when it has none.
func (r *JSONEntryStore) AddEntry(ctx context.Context, entry *model.ConfigEntry) (*model.ConfigEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := r.read()
	if err != nil {
		return nil, err
	}

	e := entry.Clone()
	if e.EntryID == "" {
		e.EntryID = uuid.NewString()
	}
	if existing, _ := find(f, e.EntryID); existing != nil {
		return nil, fmt.Errorf("entry: %s already exists", e.EntryID)
	}

	f.Entries = append(f.Entries, e)
	if err := r.write(f); err != nil {
		return nil, err
	}
	return e.Clone(), nil
}

// UpdateEntry replaces the parts of an entry set in update. The file is only
// rewritten when something actually changed.
func (r *JSONEntryStore) UpdateEntry(ctx context.Context, entryID string, update model.EntryUpdate) (*model.ConfigEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := r.read()
	if err != nil {
		return nil, err
	}
	e, _ := find(f, entryID)
	if e == nil {
		return nil, fmt.Errorf("%w: %s", model.ErrEntryNotFound, entryID)
	}
	if update.Empty() {
		return e.Clone(), nil
	}

	changed := false
	if update.Data != nil && !reflect.DeepEqual(e.Data, update.Data) {
		e.Data = maps.Clone(update.Data)
		changed = true
	}
	if update.Options != nil && !reflect.DeepEqual(e.Options, update.Options) {
		e.Options = maps.Clone(update.Options)
		changed = true
	}
	if update.UniqueID != nil && e.UniqueID != *update.UniqueID {
		e.UniqueID = *update.UniqueID
		changed = true
	}

	if changed {
		if err := r.write(f); err != nil {
			return nil, err
		}
	}
	return e.Clone(), nil
}

func (r *JSONEntryStore) RemoveEntry(ctx context.Context, entryID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := r.read()
	if err != nil {
		return err
	}
	_, idx := find(f, entryID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", model.ErrEntryNotFound, entryID)
	}
	f.Entries = append(f.Entries[:idx], f.Entries[idx+1:]...)
	return r.write(f)
}

func (r *JSONEntryStore) read() (*entriesFile, error) {
	data, err := os.ReadFile(r.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			return &entriesFile{Version: entriesVersion}, nil
		}
		return nil, err
	}

	var f entriesFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", r.filepath, err)
	}
	if f.Version > entriesVersion {
		return nil, fmt.Errorf("%s has unsupported version %d", r.filepath, f.Version)
	}
	for _, e := range f.Entries {
		if e.Data == nil {
			e.Data = map[string]any{}
		}
		if e.Options == nil {
			e.Options = map[string]any{}
		}
	}
	return &f, nil
}

// write replaces the file atomically.
func (r *JSONEntryStore) write(f *entriesFile) error {
	f.Version = entriesVersion
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(r.filepath), 0750); err != nil {
		return err
	}
	tmp := r.filepath + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, r.filepath)
}

func find(f *entriesFile, entryID string) (*model.ConfigEntry, int) {
	for i, e := range f.Entries {
		if e.EntryID == entryID {
			return e, i
		}
	}
	return nil, -1
}
