// Package testutil builds the throwaway run database, output store and
// translation files that conversion tests share.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/codr1/refschedule/internal/db"
	"github.com/codr1/refschedule/internal/storage"
)

// NewTestDB creates a temporary SQLite database with migrations applied.
func NewTestDB(t *testing.T) *db.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "runs.db")
	database, err := db.New(dbPath)
	if err != nil {
		t.Fatalf("create test db: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	return database
}

// NewTestStore returns a filesystem output store rooted in a temp dir.
func NewTestStore(t *testing.T) *storage.FSStore {
	t.Helper()

	store, err := storage.NewFSStore(filepath.Join(t.TempDir(), "outputs"))
	if err != nil {
		t.Fatalf("create test store: %v", err)
	}
	return store
}

// WriteTranslations writes a translations JSON document and returns its path.
func WriteTranslations(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "translations.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write translations: %v", err)
	}
	return path
}
