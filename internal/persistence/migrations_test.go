package persistence

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMigrationFilesSkipsDownAndSorts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_b.up.sql", "0001_a.up.sql", "0001_a.down.sql", "README.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.up.sql"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := MigrationFiles(dir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0] != "0001_a.up.sql" || got[1] != "0002_b.up.sql" {
		t.Fatalf("unexpected files %v", got)
	}
}

func TestMigrationFilesMissingDir(t *testing.T) {
	if _, err := MigrationFiles(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected error for missing dir")
	}
}

func TestShippedMigrationsPresent(t *testing.T) {
	got, err := MigrationFiles(filepath.Join("..", "..", "migrations"))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) == 0 || got[0] != "0001_init.up.sql" {
		t.Fatalf("unexpected shipped migrations %v", got)
	}
}
