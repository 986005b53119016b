package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"lifecode-recipe/internal/core/recipe"
	"lifecode-recipe/internal/pkg/common"
)

const badgerPrefix = "recipe:"

// BadgerStore 以 Badger KV 保存紀錄，key 為 "recipe:<lookup key>"
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger 開啟資料目錄；":memory:" 使用記憶體模式
func OpenBadger(path string) (*BadgerStore, error) {
	if path == "" {
		return nil, errors.New("badger store path is empty")
	}
	var opts badger.Options
	if path == ":memory:" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
		opts.SyncWrites = true
		opts.CompactL0OnClose = true
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	common.LogInfo("Badger 儲存已開啟", zap.String("path", path))
	return &BadgerStore{db: db}, nil
}

// Lookup 以 lookup key 查詢
func (s *BadgerStore) Lookup(_ context.Context, key string) (*recipe.RecipeRecord, error) {
	var rec *recipe.RecipeRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerPrefix + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			rec, err = decodeRecord(val)
			return err
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Append 新增紀錄；key 已存在或同時寫入衝突時回傳 ErrAlreadyExists
func (s *BadgerStore) Append(_ context.Context, rec *recipe.RecipeRecord) error {
	if err := validate(rec); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	key := []byte(badgerPrefix + rec.LookupKey)

	err = s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return ErrAlreadyExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, data)
	})
	// 衝突表示另一筆同 key 的寫入已先提交
	if errors.Is(err, badger.ErrConflict) {
		return ErrAlreadyExists
	}
	return err
}

// List 依建立時間列出
func (s *BadgerStore) List(_ context.Context) ([]*recipe.RecipeRecord, error) {
	var out []*recipe.RecipeRecord
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(badgerPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				rec, err := decodeRecord(val)
				if err != nil {
					return err
				}
				out = append(out, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortByCreated(out)
	return out, nil
}

// Close 關閉資料庫
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
