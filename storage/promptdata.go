package storage

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"redraft/prompts"
)

// PromptLocal exposes the database as the durable backing store behind the
// local-first prompt library.
func (db *DB) PromptLocal() prompts.Local {
	return promptLocal{db}
}

type promptLocal struct {
	db *DB
}

// Load reads the whole persisted envelope.
func (l promptLocal) Load() (prompts.LocalPromptData, error) {
	var data prompts.LocalPromptData

	rows, err := l.db.conn.Query(
		`SELECT id, name, template, is_active, created_at, updated_at FROM prompts ORDER BY created_at`)
	if err != nil {
		return data, fmt.Errorf("failed to query prompts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p prompts.CustomPrompt
		if err := rows.Scan(&p.ID, &p.Name, &p.Template, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return data, fmt.Errorf("failed to scan prompt: %w", err)
		}
		data.Prompts = append(data.Prompts, p)
	}
	if err := rows.Err(); err != nil {
		return data, err
	}

	hkRows, err := l.db.conn.Query(`SELECT id, prompt_code, combo, is_active FROM hotkeys`)
	if err != nil {
		return data, fmt.Errorf("failed to query hotkeys: %w", err)
	}
	defer hkRows.Close()

	for hkRows.Next() {
		var b prompts.HotkeyBinding
		if err := hkRows.Scan(&b.ID, &b.PromptCode, &b.Combo, &b.IsActive); err != nil {
			return data, fmt.Errorf("failed to scan hotkey: %w", err)
		}
		data.Hotkeys = append(data.Hotkeys, b)
	}
	if err := hkRows.Err(); err != nil {
		return data, err
	}

	data.SchemaVersion, _ = l.metaInt("schema_version")
	if ts, err := l.metaString("last_synced_at"); err == nil && ts != "" {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			data.LastSyncedAt = parsed
		}
	}
	return data, nil
}

// Save replaces the persisted envelope in one transaction.
func (l promptLocal) Save(data prompts.LocalPromptData) error {
	tx, err := l.db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM prompts`); err != nil {
		return fmt.Errorf("failed to clear prompts: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM hotkeys`); err != nil {
		return fmt.Errorf("failed to clear hotkeys: %w", err)
	}

	for _, p := range data.Prompts {
		if _, err := tx.Exec(
			`INSERT INTO prompts (id, name, template, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.Template, p.IsActive, p.CreatedAt, p.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert prompt %s: %w", p.ID, err)
		}
	}
	for _, b := range data.Hotkeys {
		if _, err := tx.Exec(
			`INSERT INTO hotkeys (id, prompt_code, combo, is_active) VALUES (?, ?, ?, ?)`,
			b.ID, b.PromptCode, b.Combo, b.IsActive,
		); err != nil {
			return fmt.Errorf("failed to insert hotkey %s: %w", b.ID, err)
		}
	}

	meta := map[string]string{
		"schema_version": strconv.Itoa(data.SchemaVersion),
		"last_synced_at": "",
	}
	if !data.LastSyncedAt.IsZero() {
		meta["last_synced_at"] = data.LastSyncedAt.UTC().Format(time.RFC3339)
	}
	for k, v := range meta {
		if _, err := tx.Exec(
			`INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			k, v,
		); err != nil {
			return fmt.Errorf("failed to write meta %s: %w", k, err)
		}
	}

	return tx.Commit()
}

func (l promptLocal) metaString(key string) (string, error) {
	var value string
	err := l.db.conn.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (l promptLocal) metaInt(key string) (int, error) {
	s, err := l.metaString(key)
	if err != nil || s == "" {
		return 0, err
	}
	return strconv.Atoi(s)
}
