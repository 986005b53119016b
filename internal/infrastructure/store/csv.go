package store

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"lifecode-recipe/internal/core/matching"
	"lifecode-recipe/internal/core/normalize"
	"lifecode-recipe/internal/core/recipe"
	"lifecode-recipe/internal/pkg/common"
)

// CSV 欄位
const (
	colID                 = "id"
	colName               = "name"
	colLookupKey          = "lookup_key"
	colTitle              = "title"
	colPortion            = "portion"
	colIngredients        = "ingredients"
	colMatchedGroceries   = "matched_groceries"
	colUnmatchedGroceries = "unmatched_groceries"
	colAccompaniment      = "accompaniment"
	colTotalCost          = "total_cost"
	colPreparationSteps   = "preparation_steps"
	colReportedGroceries  = "reported_groceries"
	colReportedUnmatched  = "reported_unmatched"
	colReportedCost       = "reported_cost"
	colExtra              = "extra"
	colCreatedAt          = "created_at"
)

// csvHeader 新檔案寫入的欄位順序
var csvHeader = []string{
	colID, colName, colLookupKey, colTitle, colPortion,
	colIngredients, colMatchedGroceries, colUnmatchedGroceries,
	colAccompaniment, colTotalCost, colPreparationSteps,
	colReportedGroceries, colReportedUnmatched, colReportedCost,
	colExtra, colCreatedAt,
}

// legacyColumns 舊版表格的欄位名稱
var legacyColumns = map[string]string{
	"recipe_name":                           colName,
	"recipe_name_tamil":                     colLookupKey,
	"standard_portion_assumed_(per_person)": colPortion,
	"ingredients_(with_unit_quantity)":      colIngredients,
	"organic_grocery_required_(per_person)": colReportedGroceries,
	"grocery_didn’t_match_(if_any)":         colReportedUnmatched,
	"grocery_didn't_match_(if_any)":         colReportedUnmatched,
	"suitable_accompaniment_(if_any)":       colAccompaniment,
	"total_cost_(₹_per_person)":             colReportedCost,
	"response":                              colPreparationSteps,
}

var costPattern = regexp.MustCompile(`\d+(?:,\d{3})*(?:\.\d+)?`)

// CSVStore 以附加寫入的 CSV 檔保存紀錄，啟動時載入索引
type CSVStore struct {
	path    string
	keyFunc func(string) string

	mu      sync.RWMutex
	header  []string
	records map[string]*recipe.RecipeRecord
	order   []string
}

// CSVOption CSV 儲存選項
type CSVOption func(*CSVStore)

// WithKeyFunc 舊資料缺少 lookup key 時用來推導的函式
func WithKeyFunc(f func(string) string) CSVOption {
	return func(s *CSVStore) { s.keyFunc = f }
}

// OpenCSV 開啟 CSV 儲存；檔案不存在時於第一次寫入時建立
func OpenCSV(path string, opts ...CSVOption) (*CSVStore, error) {
	if path == "" {
		return nil, errors.New("csv store path is empty")
	}
	s := &CSVStore{
		path:    path,
		keyFunc: normalize.Key,
		records: make(map[string]*recipe.RecipeRecord),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	common.LogInfo("CSV 儲存已載入",
		zap.String("path", path),
		zap.Int("records", len(s.order)),
	)
	return s, nil
}

func (s *CSVStore) load() error {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open csv store: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read csv header: %w", err)
	}
	s.header = header
	cols := columnIndex(header)

	skipped := 0
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read csv row: %w", err)
		}
		rec := s.decode(cols, row)
		if rec.LookupKey == "" {
			skipped++
			continue
		}
		// 重複的 key 以第一筆為準
		if _, ok := s.records[rec.LookupKey]; ok {
			skipped++
			continue
		}
		s.records[rec.LookupKey] = rec
		s.order = append(s.order, rec.LookupKey)
	}
	if skipped > 0 {
		common.LogWarn("CSV 儲存略過部分資料列", zap.Int("skipped", skipped))
	}
	return nil
}

// readHeader 讀取既有檔案的表頭，必須包含菜名或 lookup key 欄位
func readHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv store: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	cols := columnIndex(header)
	_, hasName := cols[colName]
	_, hasKey := cols[colLookupKey]
	if !hasName && !hasKey {
		return nil, fmt.Errorf("csv store %s has no recipe columns in its header", path)
	}
	return header, nil
}

// columnIndex 欄位名稱到索引，支援舊版欄位名稱
func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if alias, ok := legacyColumns[name]; ok {
			name = alias
		}
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	return cols
}

func (s *CSVStore) decode(cols map[string]int, row []string) *recipe.RecipeRecord {
	get := func(col string) string {
		i, ok := cols[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rec := &recipe.RecipeRecord{
		ID:                get(colID),
		Name:              get(colName),
		LookupKey:         get(colLookupKey),
		Title:             get(colTitle),
		Portion:           get(colPortion),
		Accompaniment:     get(colAccompaniment),
		PreparationSteps:  get(colPreparationSteps),
		ReportedGroceries: get(colReportedGroceries),
		ReportedUnmatched: get(colReportedUnmatched),
		ReportedCost:      get(colReportedCost),
	}
	if rec.LookupKey == "" && rec.Name != "" {
		rec.LookupKey = s.keyFunc(rec.Name)
	}
	if rec.Accompaniment == "" {
		rec.Accompaniment = recipe.NotApplicable
	}

	rec.Ingredients = decodeIngredients(get(colIngredients))
	decodeJSONCell(get(colMatchedGroceries), &rec.MatchedGroceries)
	decodeJSONCell(get(colUnmatchedGroceries), &rec.UnmatchedGroceries)
	decodeJSONCell(get(colExtra), &rec.Extra)

	if v := get(colTotalCost); v != "" {
		rec.TotalCost = parseCost(v)
	} else if rec.ReportedCost != "" {
		rec.TotalCost = parseCost(rec.ReportedCost)
	}
	if v := get(colCreatedAt); v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			rec.CreatedAt = t
		}
	}
	return rec
}

// decodeIngredients JSON 陣列，舊資料則為逐行文字
func decodeIngredients(cell string) []recipe.IngredientLine {
	if cell == "" {
		return nil
	}
	if strings.HasPrefix(cell, "[") {
		var lines []recipe.IngredientLine
		if err := common.ParseJSON(cell, &lines); err == nil {
			return lines
		}
	}
	var lines []recipe.IngredientLine
	for _, l := range strings.Split(cell, "\n") {
		l = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(l), "-*•"))
		if l != "" {
			lines = append(lines, recipe.IngredientLine{Raw: l})
		}
	}
	return lines
}

func decodeJSONCell(cell string, v interface{}) {
	if cell == "" {
		return
	}
	if err := common.ParseJSON(cell, v); err != nil {
		common.LogDebug("CSV 欄位不是有效 JSON", zap.Error(err))
	}
}

// parseCost 由 "₹ 1,094.50" 之類的文字取出數值
func parseCost(text string) float64 {
	m := costPattern.FindString(text)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}

// Lookup 以 lookup key 查詢
func (s *CSVStore) Lookup(_ context.Context, key string) (*recipe.RecipeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

// Append 附加一列並 fsync；key 已存在回傳 ErrAlreadyExists
func (s *CSVStore) Append(_ context.Context, rec *recipe.RecipeRecord) error {
	if err := validate(rec); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.LookupKey]; ok {
		return ErrAlreadyExists
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open csv store: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat csv store: %w", err)
	}

	w := csv.NewWriter(f)
	switch {
	case info.Size() == 0:
		s.header = csvHeader
		if err := w.Write(csvHeader); err != nil {
			return fmt.Errorf("failed to write csv header: %w", err)
		}
	case s.header == nil:
		// 開啟時檔案尚不存在，之後由其他程序建立
		header, err := readHeader(s.path)
		if err != nil {
			return err
		}
		s.header = header
	}
	row, err := encodeRow(s.header, rec)
	if err != nil {
		return err
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("failed to write csv row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv row: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync csv store: %w", err)
	}

	s.records[rec.LookupKey] = rec.Clone()
	s.order = append(s.order, rec.LookupKey)
	return nil
}

// encodeRow 依既有表頭排列欄位，舊版表頭也能繼續附加
func encodeRow(header []string, rec *recipe.RecipeRecord) ([]string, error) {
	values := map[string]string{
		colID:                rec.ID,
		colName:              rec.Name,
		colLookupKey:         rec.LookupKey,
		colTitle:             rec.Title,
		colPortion:           rec.Portion,
		colAccompaniment:     rec.Accompaniment,
		colTotalCost:         strconv.FormatFloat(rec.TotalCost, 'f', 2, 64),
		colPreparationSteps:  rec.PreparationSteps,
		colReportedGroceries: rec.ReportedGroceries,
		colReportedUnmatched: rec.ReportedUnmatched,
		colReportedCost:      rec.ReportedCost,
		colCreatedAt:         rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	for col, v := range map[string]interface{}{
		colIngredients:        rec.Ingredients,
		colMatchedGroceries:   nonNil(rec.MatchedGroceries),
		colUnmatchedGroceries: nonNil(rec.UnmatchedGroceries),
	} {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", col, err)
		}
		values[col] = string(b)
	}
	if len(rec.Extra) > 0 {
		b, err := json.Marshal(rec.Extra)
		if err != nil {
			return nil, fmt.Errorf("failed to encode extra: %w", err)
		}
		values[colExtra] = string(b)
	}

	cols := columnIndex(header)
	row := make([]string, len(header))
	for col, i := range cols {
		row[i] = values[col]
	}
	return row, nil
}

func nonNil(g []matching.Grocery) []matching.Grocery {
	if g == nil {
		return []matching.Grocery{}
	}
	return g
}

// List 依檔案順序列出
func (s *CSVStore) List(_ context.Context) ([]*recipe.RecipeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*recipe.RecipeRecord, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.records[key].Clone())
	}
	return out, nil
}

// Close 每次寫入都已關檔，無需釋放
func (s *CSVStore) Close() error { return nil }
