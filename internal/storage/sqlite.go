// Package storage содержит долговременное хранилище состояний каруселей на SQLite
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"gopkg.in/yaml.v3"

	"github.com/hazadus/studio-relay/internal/carousel"
)

const schema = `CREATE TABLE IF NOT EXISTS carousels(
	message_id TEXT PRIMARY KEY,
	state TEXT NOT NULL,
	position INTEGER NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`

// SQLiteStore реализует carousel.Store поверх SQLite.
// Состояния переживают перезапуск процесса, кнопки старых сообщений продолжают работать.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite открывает (или создает) базу состояний
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ошибка создания директории базы: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия базы %s: %w", path, err)
	}
	// Один писатель: SQLite не любит параллельные записи
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка создания схемы: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close закрывает базу
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save сохраняет состояние карусели
func (s *SQLiteStore) Save(ctx context.Context, messageID string, state carousel.State) error {
	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("ошибка сериализации состояния: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO carousels (message_id, state, position, updated_at) VALUES (?, ?, ?, ?)",
		messageID, string(data), state.Index, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("ошибка записи состояния: %w", err)
	}
	return nil
}

// Load загружает состояние карусели
func (s *SQLiteStore) Load(ctx context.Context, messageID string) (carousel.State, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT state FROM carousels WHERE message_id = ?", messageID).Scan(&raw)
	if err == sql.ErrNoRows {
		return carousel.State{}, false, nil
	}
	if err != nil {
		return carousel.State{}, false, fmt.Errorf("ошибка чтения состояния: %w", err)
	}

	var state carousel.State
	if err := yaml.Unmarshal([]byte(raw), &state); err != nil {
		return carousel.State{}, false, fmt.Errorf("ошибка разбора состояния: %w", err)
	}
	return state, true, nil
}

// Count возвращает количество сохраненных каруселей
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM carousels").Scan(&count)
	return count, err
}
