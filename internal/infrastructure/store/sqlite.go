package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"lifecode-recipe/internal/core/recipe"
	"lifecode-recipe/internal/pkg/common"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS recipes (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL,
	name       TEXT NOT NULL,
	lookup_key TEXT NOT NULL UNIQUE,
	total_cost REAL NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	data       TEXT NOT NULL
)`

// SQLiteStore 以 SQLite 保存紀錄，完整紀錄存為 JSON
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite 開啟（或建立）資料庫檔案；":memory:" 用於測試
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite store path is empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// 單一連線避免 database is locked
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA busy_timeout = 5000", "PRAGMA journal_mode=WAL"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating recipes table: %w", err)
	}

	common.LogInfo("SQLite 儲存已開啟", zap.String("path", path))
	return &SQLiteStore{db: db}, nil
}

// Lookup 以 lookup key 查詢
func (s *SQLiteStore) Lookup(ctx context.Context, key string) (*recipe.RecipeRecord, error) {
	var data string
	err := s.db.QueryRowContext(ctx, "SELECT data FROM recipes WHERE lookup_key = ?", key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying recipe: %w", err)
	}
	return decodeRecord([]byte(data))
}

// Append 新增紀錄；lookup key 衝突回傳 ErrAlreadyExists
func (s *SQLiteStore) Append(ctx context.Context, rec *recipe.RecipeRecord) error {
	if err := validate(rec); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding recipe: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO recipes (id, name, lookup_key, total_cost, created_at, data)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(lookup_key) DO NOTHING`,
		rec.ID, rec.Name, rec.LookupKey, rec.TotalCost,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano), string(data),
	)
	if err != nil {
		return fmt.Errorf("inserting recipe: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("inserting recipe: %w", err)
	}
	if n == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// List 依寫入順序列出
func (s *SQLiteStore) List(ctx context.Context) ([]*recipe.RecipeRecord, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT data FROM recipes ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("listing recipes: %w", err)
	}
	defer rows.Close()

	var out []*recipe.RecipeRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning recipe: %w", err)
		}
		rec, err := decodeRecord([]byte(data))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close 關閉資料庫連線
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func decodeRecord(data []byte) (*recipe.RecipeRecord, error) {
	var rec recipe.RecipeRecord
	if err := common.ParseJSONBytes(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding recipe: %w", err)
	}
	return &rec, nil
}
