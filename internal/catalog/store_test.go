package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartoza/kartoza-sql-guard/internal/sqlcheck"
)

func writeCatalog(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestStore_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	writeCatalog(t, path, "users: [id]\n")

	store, err := NewStore(path, nil)
	require.NoError(t, err)
	assert.Equal(t, sqlcheck.Catalog{"users": {"id"}}, store.Get())

	writeCatalog(t, path, "users: [id, name]\n")
	require.NoError(t, store.Reload())
	assert.Equal(t, []string{"id", "name"}, store.Get()["users"])

	// A broken file keeps the last good catalog
	writeCatalog(t, path, "users: [id\n")
	assert.Error(t, store.Reload())
	assert.Equal(t, []string{"id", "name"}, store.Get()["users"])
}

func TestNewStore_MissingFile(t *testing.T) {
	_, err := NewStore(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestStore_Set(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	writeCatalog(t, path, "users: [id]\n")

	store, err := NewStore(path, nil)
	require.NoError(t, err)

	store.Set(sqlcheck.Catalog{"orders": {"id"}})
	assert.Equal(t, sqlcheck.Catalog{"orders": {"id"}}, store.Get())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "users: [id]\n", string(data), "file untouched")
}

func TestStore_Watch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	writeCatalog(t, path, "users: [id]\n")

	store, err := NewStore(path, nil)
	require.NoError(t, err)
	store.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan sqlcheck.Catalog, 8)
	done := make(chan error, 1)
	go func() {
		done <- store.Watch(ctx, func(cat sqlcheck.Catalog, err error) {
			if err != nil {
				return
			}
			select {
			case changes <- cat:
			default:
			}
		})
	}()

	// Give the watcher time to register
	time.Sleep(50 * time.Millisecond)

	// Unrelated files in the same directory are ignored
	writeCatalog(t, filepath.Join(dir, "other.yaml"), "x: [y]\n")
	writeCatalog(t, path, "users: [id, email]\n")

	// A truncate and a write may surface as separate reloads
	deadline := time.After(2 * time.Second)
	for reloaded := false; !reloaded; {
		select {
		case cat := <-changes:
			assert.NotContains(t, cat, "x")
			reloaded = len(cat["users"]) == 2
		case <-deadline:
			t.Fatal("timed out waiting for catalog reload")
		}
	}
	assert.Equal(t, []string{"id", "email"}, store.Get()["users"])

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watch did not stop")
	}
}
