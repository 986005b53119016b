package recipe

import (
	"context"
	"errors"
	"strings"
	"time"

	"lifecode-recipe/internal/core/matching"
)

// 哨兵字串，用來區分「空白」與「不適用／生成失敗」
const (
	NotApplicable       = "Not applicable"
	StepsFailedSentinel = "Recipe generator failed to generate preparation steps."
)

// Store 錯誤
var (
	ErrRecordNotFound = errors.New("recipe record not found")
	ErrRecordExists   = errors.New("recipe record already exists")
)

// IngredientLine 食材行：原始文字，或結構化的 {name, quantity, purpose}
type IngredientLine struct {
	Raw      string `json:"raw,omitempty"`
	Name     string `json:"name,omitempty"`
	Quantity string `json:"quantity,omitempty"`
	Purpose  string `json:"purpose,omitempty"`
}

// Text 轉為 "<名稱> - <份量>" 形式的單行文字
func (l IngredientLine) Text() string {
	if l.Raw != "" {
		return l.Raw
	}
	name := strings.TrimSpace(l.Name)
	qty := strings.TrimSpace(l.Quantity)
	switch {
	case name == "":
		return ""
	case qty == "":
		return name
	default:
		return name + " - " + qty
	}
}

// RecipeRecord 一道菜一筆，寫入後即不再修改
type RecipeRecord struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	LookupKey          string             `json:"lookup_key"`
	Title              string             `json:"title,omitempty"`
	Portion            string             `json:"portion"`
	Ingredients        []IngredientLine   `json:"ingredients"`
	MatchedGroceries   []matching.Grocery `json:"matched_groceries"`
	UnmatchedGroceries []matching.Grocery `json:"unmatched_groceries"`
	Accompaniment      string             `json:"accompaniment"`
	TotalCost          float64            `json:"total_cost"`
	PreparationSteps   string             `json:"preparation_steps"`
	ReportedGroceries  string             `json:"reported_groceries,omitempty"`
	ReportedUnmatched  string             `json:"reported_unmatched,omitempty"`
	ReportedCost       string             `json:"reported_cost,omitempty"`
	Extra              map[string]string  `json:"extra,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
}

// Clone 深層複製，回傳的紀錄與原紀錄不共用任何切片或 map
func (r *RecipeRecord) Clone() *RecipeRecord {
	if r == nil {
		return nil
	}
	cp := *r
	if r.Ingredients != nil {
		cp.Ingredients = append([]IngredientLine(nil), r.Ingredients...)
	}
	cp.MatchedGroceries = cloneGroceries(r.MatchedGroceries)
	cp.UnmatchedGroceries = cloneGroceries(r.UnmatchedGroceries)
	if r.Extra != nil {
		cp.Extra = make(map[string]string, len(r.Extra))
		for k, v := range r.Extra {
			cp.Extra[k] = v
		}
	}
	return &cp
}

func cloneGroceries(in []matching.Grocery) []matching.Grocery {
	if in == nil {
		return nil
	}
	out := make([]matching.Grocery, len(in))
	for i, g := range in {
		if g.Quantity != nil {
			q := *g.Quantity
			g.Quantity = &q
		}
		out[i] = g
	}
	return out
}

// HasAccompaniment 是否有實際的配菜內容
func (r *RecipeRecord) HasAccompaniment() bool {
	return !isNotApplicable(r.Accompaniment)
}

// StepsFailed 是否為生成失敗的步驟
func (r *RecipeRecord) StepsFailed() bool {
	return r.PreparationSteps == StepsFailedSentinel
}

// Store 食譜儲存：以 lookup key 查詢與附加寫入。
// Lookup 查無資料回傳 ErrRecordNotFound；Append 遇到重複 key 回傳 ErrRecordExists。
type Store interface {
	Lookup(ctx context.Context, key string) (*RecipeRecord, error)
	Append(ctx context.Context, rec *RecipeRecord) error
}

// Generator LLM 文字生成；apiKey 為空時使用預設金鑰
type Generator interface {
	Generate(ctx context.Context, prompt, apiKey string) (string, error)
}

// LookupResult 查詢結果
type LookupResult struct {
	Record   *RecipeRecord `json:"record"`
	Fresh    bool          `json:"fresh"`
	Markdown string        `json:"markdown"`
}

func isNotApplicable(s string) bool {
	switch strings.ToLower(strings.Trim(strings.TrimSpace(s), "•*-. ")) {
	case "", "not applicable", "n/a", "na", "none", "nil":
		return true
	}
	return false
}
