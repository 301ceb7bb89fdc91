//go:build sqlite

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestRunCommandSQLiteArchivesRun(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "phylon.db")

	args := []string{
		"run",
		"-store", "sqlite",
		"-db-path", dbPath,
		"-problem", "sphere",
		"-dims", "4",
		"-pop", "10",
		"-gens", "3",
		"-seed", "11",
		"-workers", "2",
	}
	if err := run(ctx, args); err != nil {
		t.Fatalf("run command: %v", err)
	}

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected sqlite db at %s: %v", dbPath, err)
	}

	if err := run(ctx, []string{"runs", "-store", "sqlite", "-db-path", dbPath}); err != nil {
		t.Fatalf("runs command: %v", err)
	}
}
