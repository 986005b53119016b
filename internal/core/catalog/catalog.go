// Package catalog holds the approved grocery SKU list and its unit prices.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// Entry 核准食材；Price 為每公斤或每公升價格，0 表示不計價（如水、鹽）
type Entry struct {
	Name  string  `json:"name" mapstructure:"name"`
	Price float64 `json:"price" mapstructure:"price"`
}

// Catalog 唯讀的核准食材目錄，啟動時載入一次
type Catalog struct {
	entries []Entry
	folded  []string
	index   map[string]int
}

// Fold 將名稱轉為比對用的形式（去除前後空白、小寫）
func Fold(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// New 由食材清單建立目錄，名稱（忽略大小寫）重複或價格為負時回傳錯誤
func New(entries []Entry) (*Catalog, error) {
	c := &Catalog{
		entries: make([]Entry, 0, len(entries)),
		folded:  make([]string, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		key := Fold(e.Name)
		if key == "" {
			return nil, fmt.Errorf("catalog entry with empty name")
		}
		if e.Price < 0 {
			return nil, fmt.Errorf("catalog entry %q has negative price %v", e.Name, e.Price)
		}
		if _, dup := c.index[key]; dup {
			return nil, fmt.Errorf("duplicate catalog entry %q", e.Name)
		}
		c.index[key] = len(c.entries)
		c.entries = append(c.entries, Entry{Name: strings.TrimSpace(e.Name), Price: e.Price})
		c.folded = append(c.folded, key)
	}
	return c, nil
}

// Default 回傳內建的核准食材目錄
func Default() *Catalog {
	c, err := New(defaultEntries)
	if err != nil {
		panic(fmt.Sprintf("catalog: invalid default entries: %v", err))
	}
	return c
}

// Load 由 JSON 或 YAML 檔案載入目錄，格式為 {"skus": [{"name": ..., "price": ...}]}
func Load(path string) (*Catalog, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var file struct {
		SKUs []Entry `mapstructure:"skus"`
	}
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("failed to decode catalog file: %w", err)
	}
	if len(file.SKUs) == 0 {
		return nil, fmt.Errorf("catalog file %s has no skus", path)
	}
	return New(file.SKUs)
}

// Names 依原始順序回傳所有已正規化的 SKU 名稱
func (c *Catalog) Names() []string {
	out := make([]string, len(c.folded))
	copy(out, c.folded)
	return out
}

// Entries 依原始順序回傳所有食材
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Contains 判斷名稱是否為核准食材（忽略大小寫）
func (c *Catalog) Contains(name string) bool {
	_, ok := c.index[Fold(name)]
	return ok
}

// Lookup 取得食材資料
func (c *Catalog) Lookup(name string) (Entry, bool) {
	i, ok := c.index[Fold(name)]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Price 取得單價，不存在時回傳 0
func (c *Catalog) Price(name string) float64 {
	e, _ := c.Lookup(name)
	return e.Price
}

// Len 目錄大小
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Search 依子字串搜尋食材，結果依名稱排序
func (c *Catalog) Search(query string) []Entry {
	q := Fold(query)
	var out []Entry
	for i, key := range c.folded {
		if q == "" || strings.Contains(key, q) {
			out = append(out, c.entries[i])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
