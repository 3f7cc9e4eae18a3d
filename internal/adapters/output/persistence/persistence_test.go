package persistence

import (
	"context"
	"hue-bridge-integration/internal/domain/model"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONEntryStore_MissingFileIsEmpty(t *testing.T) {
	repo := NewJSONEntryStore(filepath.Join(t.TempDir(), "entries.json"))
	entries, err := repo.ListEntries(context.Background(), model.Domain)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = repo.GetEntry(context.Background(), "nope")
	assert.ErrorIs(t, err, model.ErrEntryNotFound)
}

func TestJSONEntryStore_AddAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".storage", "entries.json")
	repo := NewJSONEntryStore(path)
	ctx := context.Background()

	added, err := repo.AddEntry(ctx, &model.ConfigEntry{
		Domain: model.Domain,
		Title:  "10.0.0.5",
		Source: model.SourceImport,
		Data:   map[string]any{model.ConfHost: "10.0.0.5", model.ConfAllowUnreachable: true},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, added.EntryID)

	_, err = repo.AddEntry(ctx, &model.ConfigEntry{Domain: "other", Data: map[string]any{}})
	require.NoError(t, err)

	reloaded := NewJSONEntryStore(path)
	entries, err := reloaded.ListEntries(ctx, model.Domain)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, added.EntryID, entries[0].EntryID)
	assert.Equal(t, true, entries[0].Data[model.ConfAllowUnreachable])
	assert.NotNil(t, entries[0].Options)

	all, err := reloaded.ListEntries(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestJSONEntryStore_UpdateEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entries.json")
	repo := NewJSONEntryStore(path)
	ctx := context.Background()

	e, err := repo.AddEntry(ctx, &model.ConfigEntry{
		EntryID: "e1",
		Domain:  model.Domain,
		Data:    map[string]any{model.ConfHost: "10.0.0.5", model.ConfAllowUnreachable: true},
	})
	require.NoError(t, err)

	uid := "001788102201"
	updated, err := repo.UpdateEntry(ctx, e.EntryID, model.EntryUpdate{
		Data:     map[string]any{model.ConfHost: "10.0.0.5"},
		Options:  map[string]any{model.ConfAllowUnreachable: true},
		UniqueID: &uid,
	})
	require.NoError(t, err)
	assert.Equal(t, uid, updated.UniqueID)
	assert.NotContains(t, updated.Data, model.ConfAllowUnreachable)

	got, err := NewJSONEntryStore(path).GetEntry(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{model.ConfAllowUnreachable: true}, got.Options)

	_, err = repo.UpdateEntry(ctx, "missing", model.EntryUpdate{UniqueID: &uid})
	assert.ErrorIs(t, err, model.ErrEntryNotFound)
}

func TestJSONEntryStore_UnchangedUpdateDoesNotWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entries.json")
	repo := NewJSONEntryStore(path)
	ctx := context.Background()

	_, err := repo.AddEntry(ctx, &model.ConfigEntry{EntryID: "e1", Domain: model.Domain, Data: map[string]any{model.ConfHost: "h"}})
	require.NoError(t, err)

	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	_, err = repo.UpdateEntry(ctx, "e1", model.EntryUpdate{Data: map[string]any{model.ConfHost: "h"}})
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.WithinDuration(t, old, info.ModTime(), time.Second)
}

func TestJSONEntryStore_RemoveEntry(t *testing.T) {
	repo := NewJSONEntryStore(filepath.Join(t.TempDir(), "entries.json"))
	ctx := context.Background()

	_, err := repo.AddEntry(ctx, &model.ConfigEntry{EntryID: "e1", Domain: model.Domain})
	require.NoError(t, err)
	_, err = repo.AddEntry(ctx, &model.ConfigEntry{EntryID: "e1", Domain: model.Domain})
	assert.Error(t, err)

	require.NoError(t, repo.RemoveEntry(ctx, "e1"))
	assert.ErrorIs(t, repo.RemoveEntry(ctx, "e1"), model.ErrEntryNotFound)
}

func TestJSONEntryStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entries.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := NewJSONEntryStore(path).ListEntries(context.Background(), model.Domain)
	assert.Error(t, err)
}
