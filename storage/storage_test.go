package storage

import (
	"testing"
	"time"

	"redraft/prompts"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPromptDataRoundTrip(t *testing.T) {
	db := openTestDB(t)
	local := db.PromptLocal()

	now := time.Now().UTC().Truncate(time.Second)
	data := prompts.LocalPromptData{
		Prompts: []prompts.CustomPrompt{
			{ID: "p-1", Name: "Casual", Template: "Make casual: {input}", IsActive: true, CreatedAt: now, UpdatedAt: now},
			{ID: "p-2", Name: "Pirate", Template: "Arr: {input}", IsActive: false, CreatedAt: now, UpdatedAt: now},
		},
		Hotkeys: []prompts.HotkeyBinding{
			{ID: "h-1", PromptCode: "p-1", Combo: "PRIMARY+SHIFT+KeyK", IsActive: true},
		},
		LastSyncedAt:  now,
		SchemaVersion: prompts.SchemaVersion,
	}

	if err := local.Save(data); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := local.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Prompts) != 2 {
		t.Fatalf("prompts = %d, want 2", len(loaded.Prompts))
	}
	if loaded.Prompts[0].Template != "Make casual: {input}" {
		t.Errorf("template = %q", loaded.Prompts[0].Template)
	}
	if len(loaded.Hotkeys) != 1 || loaded.Hotkeys[0].Combo != "PRIMARY+SHIFT+KeyK" {
		t.Errorf("hotkeys = %+v", loaded.Hotkeys)
	}
	if loaded.SchemaVersion != prompts.SchemaVersion {
		t.Errorf("schema version = %d", loaded.SchemaVersion)
	}
	if !loaded.LastSyncedAt.Equal(now) {
		t.Errorf("last synced = %v, want %v", loaded.LastSyncedAt, now)
	}
}

func TestSaveReplacesWholesale(t *testing.T) {
	db := openTestDB(t)
	local := db.PromptLocal()

	now := time.Now().UTC()
	first := prompts.LocalPromptData{
		Prompts:       []prompts.CustomPrompt{{ID: "p-1", Name: "A", Template: "{input}", CreatedAt: now, UpdatedAt: now}},
		SchemaVersion: prompts.SchemaVersion,
	}
	if err := local.Save(first); err != nil {
		t.Fatalf("first save: %v", err)
	}

	second := prompts.LocalPromptData{
		Prompts:       []prompts.CustomPrompt{{ID: "p-2", Name: "B", Template: "{input}", CreatedAt: now, UpdatedAt: now}},
		SchemaVersion: prompts.SchemaVersion,
	}
	if err := local.Save(second); err != nil {
		t.Fatalf("second save: %v", err)
	}

	loaded, err := local.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Prompts) != 1 || loaded.Prompts[0].ID != "p-2" {
		t.Errorf("prompts = %+v, want only p-2", loaded.Prompts)
	}
}

func TestEmptyLoad(t *testing.T) {
	db := openTestDB(t)

	loaded, err := db.PromptLocal().Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Prompts) != 0 || len(loaded.Hotkeys) != 0 {
		t.Errorf("fresh db not empty: %+v", loaded)
	}
	if !loaded.LastSyncedAt.IsZero() {
		t.Errorf("fresh db has sync timestamp %v", loaded.LastSyncedAt)
	}
}

func TestActivityHistoryAndStats(t *testing.T) {
	db := openTestDB(t)

	entries := []*Activity{
		{PromptCode: "REPHRASE", Outcome: "success", SourceChars: 20, ResultChars: 25, LatencyMs: 850, Success: true},
		{PromptCode: "REPHRASE", Outcome: "failed", SourceChars: 10, ResultChars: 0, LatencyMs: 30000, Success: false, ErrorMessage: "network error: timeout"},
		{PromptCode: "SUMMARIZE", Outcome: "success", SourceChars: 400, ResultChars: 80, LatencyMs: 1200, Success: true},
	}
	for _, a := range entries {
		if err := db.SaveActivity(a); err != nil {
			t.Fatalf("save activity: %v", err)
		}
		if a.ID == 0 {
			t.Error("activity id not assigned")
		}
	}

	items, err := db.GetActivity(10, 0)
	if err != nil {
		t.Fatalf("get activity: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("items = %d, want 3", len(items))
	}

	count, err := db.GetActivityCount()
	if err != nil || count != 3 {
		t.Fatalf("count = %d (%v), want 3", count, err)
	}

	overall, err := db.GetOverallStats(7)
	if err != nil {
		t.Fatalf("overall stats: %v", err)
	}
	if overall.Total != 3 || overall.SuccessCount != 2 || overall.FailureCount != 1 {
		t.Errorf("overall = %+v", overall)
	}

	byCode, err := db.GetCodeStats(7)
	if err != nil {
		t.Fatalf("code stats: %v", err)
	}
	if len(byCode) != 2 {
		t.Fatalf("code stats = %+v, want 2 groups", byCode)
	}
	if byCode[0].PromptCode != "REPHRASE" || byCode[0].Total != 2 {
		t.Errorf("top code = %+v, want REPHRASE with 2", byCode[0])
	}

	if err := db.DeleteActivity(entries[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := db.DeleteActivity(entries[0].ID); err == nil {
		t.Error("expected error deleting missing entry")
	}
}
