//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"

	"phylon/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	ctx := context.Background()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "phylon.db"))
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestSQLiteStoreRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	run := model.RunRecord{
		VersionedRecord: model.NewVersionedRecord(),
		ID:              "run-1",
		CreatedAtUTC:    "2026-08-30T10:00:00Z",
		Problem:         "sphere",
		Seed:            42,
		Population:      100,
		Generations:     50,
		FinalBest:       0.003,
		Minimize:        true,
	}
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("save run: %v", err)
	}

	loaded, ok, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if !ok {
		t.Fatalf("expected run %s", run.ID)
	}
	if loaded != run {
		t.Fatalf("unexpected run loaded: %+v", loaded)
	}

	run.FinalBest = 0.001
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("update run: %v", err)
	}
	loaded, _, err = store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("get updated run: %v", err)
	}
	if loaded.FinalBest != 0.001 {
		t.Fatalf("upsert did not replace payload: %+v", loaded)
	}
}

func TestSQLiteStoreListRunsOrdered(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	for _, record := range []model.RunRecord{
		{VersionedRecord: model.NewVersionedRecord(), ID: "run-b", CreatedAtUTC: "2026-08-30T12:00:00Z"},
		{VersionedRecord: model.NewVersionedRecord(), ID: "run-a", CreatedAtUTC: "2026-08-30T09:00:00Z"},
	} {
		if err := store.SaveRun(ctx, record); err != nil {
			t.Fatalf("save run %s: %v", record.ID, err)
		}
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-a" || runs[1].ID != "run-b" {
		t.Fatalf("unexpected listing: %+v", runs)
	}
}

func TestSQLiteStoreHistoryAndDiagnosticsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	history := []float64{665, 749, 800}
	if err := store.SaveFitnessHistory(ctx, "run-1", history); err != nil {
		t.Fatalf("save history: %v", err)
	}
	loadedHistory, ok, err := store.GetFitnessHistory(ctx, "run-1")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if !ok || len(loadedHistory) != 3 || loadedHistory[1] != 749 {
		t.Fatalf("unexpected history: %+v", loadedHistory)
	}

	diagnostics := []model.GenerationDiagnostics{
		{VersionedRecord: model.NewVersionedRecord(), Generation: 1, BestScore: 0.8, SpeciesCount: 2},
	}
	if err := store.SaveGenerationDiagnostics(ctx, "run-1", diagnostics); err != nil {
		t.Fatalf("save diagnostics: %v", err)
	}
	loadedDiagnostics, ok, err := store.GetGenerationDiagnostics(ctx, "run-1")
	if err != nil {
		t.Fatalf("get diagnostics: %v", err)
	}
	if !ok || len(loadedDiagnostics) != 1 || loadedDiagnostics[0].SpeciesCount != 2 {
		t.Fatalf("unexpected diagnostics: %+v", loadedDiagnostics)
	}

	if _, ok, err := store.GetFitnessHistory(ctx, "missing"); err != nil || ok {
		t.Fatalf("missing history lookup: ok=%v err=%v", ok, err)
	}
}
