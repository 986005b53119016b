package recipe

import (
	"sort"
	"strings"
)

// Field 回應中可辨識的段落
type Field string

const (
	FieldTitle         Field = "title"
	FieldPortion       Field = "portion"
	FieldIngredients   Field = "ingredients"
	FieldGroceries     Field = "groceries"
	FieldUnmatched     Field = "unmatched"
	FieldAccompaniment Field = "accompaniment"
	FieldCost          Field = "cost"
	FieldSteps         Field = "steps"
)

// Label 段落標籤：Title 與 Qualifier 組成提示詞中的標題，Synonyms 為解析時接受的前綴
type Label struct {
	Field     Field
	Title     string
	Qualifier string
	Emoji     string
	Hint      string
	Synonyms  []string
}

// Heading 提示詞中使用的完整標題
func (l Label) Heading() string {
	if l.Qualifier == "" {
		return l.Title
	}
	return l.Title + " " + l.Qualifier
}

// Labels 依輸出順序排列的標籤表；提示詞與解析器共用此表
var Labels = []Label{
	{
		Field:     FieldTitle,
		Title:     "Recipe Name",
		Qualifier: "(traditional Tamil)",
		Emoji:     "🍃",
		Hint:      "[Recipe Name here]",
		Synonyms:  []string{"Recipe Name", "Dish Name", "Recipe Title"},
	},
	{
		Field:     FieldPortion,
		Title:     "Standard Portion Assumed",
		Qualifier: "(Per Person)",
		Emoji:     "🍽️",
		Hint:      "\n    • Yield – ___ g cooked\n    • Calories – ___ kcal approx.\n    • Quantity – Approx. ___",
		Synonyms:  []string{"Standard Portion Assumed", "Standard Portion", "Portion Details", "Portion"},
	},
	{
		Field:     FieldIngredients,
		Title:     "Ingredients",
		Qualifier: "(with unit quantity)",
		Emoji:     "🧂",
		Hint:      "\n    • [Ingredient - quantity unit]",
		Synonyms:  []string{"Ingredients", "Ingredient List"},
	},
	{
		Field:     FieldGroceries,
		Title:     "Organic Grocery Required",
		Qualifier: "(Per Person)",
		Emoji:     "🌿",
		Hint:      "\n    • [Matched Grocery - quantity unit]",
		Synonyms:  []string{"Organic Grocery Required", "Organic Grocery", "Grocery Required", "Groceries Required"},
	},
	{
		Field:     FieldUnmatched,
		Title:     "Grocery Didn't Match",
		Qualifier: "(if any)",
		Emoji:     "❓",
		Hint:      "\n    • [Unmatched Grocery - quantity unit] or \"• Not applicable\"",
		Synonyms:  []string{"Grocery Didn't Match", "Groceries Didn't Match", "Unmatched Grocery", "Unmatched Groceries"},
	},
	{
		Field:     FieldAccompaniment,
		Title:     "Suitable Accompaniment",
		Qualifier: "(if any)",
		Emoji:     "🥗",
		Hint:      "[Details here]",
		Synonyms:  []string{"Suitable Accompaniment", "Accompaniment", "Accompaniments"},
	},
	{
		Field:     FieldCost,
		Title:     "Total Cost",
		Qualifier: "(₹ Per Person)",
		Emoji:     "💰",
		Hint:      "[Cost here]",
		Synonyms:  []string{"Total Cost", "Estimated Cost"},
	},
	{
		Field:     FieldSteps,
		Title:     "Preparation Steps",
		Emoji:     "🧾",
		Hint:      "\n    1. [Step 1]\n    2. [Step 2]",
		Synonyms:  []string{"Preparation Steps", "Preparation Method", "Preparation", "Response", "Method", "Instructions", "Steps"},
	},
}

type synonym struct {
	text  string
	field Field
}

// 依長度由長到短，讓 "Preparation Steps" 先於 "Preparation"
var synonymIndex = buildSynonymIndex()

func buildSynonymIndex() []synonym {
	var out []synonym
	for _, l := range Labels {
		for _, s := range l.Synonyms {
			out = append(out, synonym{text: foldLabel(s), field: l.Field})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i].text) > len(out[j].text) })
	return out
}

// LabelFor 取得欄位對應的標籤
func LabelFor(f Field) (Label, bool) {
	for _, l := range Labels {
		if l.Field == f {
			return l, true
		}
	}
	return Label{}, false
}

// lookupLabel 判斷標題文字是否為已知標籤。標籤需為開頭前綴，
// 其後去除括號說明後最多再接兩個字，避免一般句子被誤認為標題。
func lookupLabel(head string) (Field, bool) {
	h := foldLabel(head)
	if h == "" {
		return "", false
	}
	for _, s := range synonymIndex {
		if !strings.HasPrefix(h, s.text) {
			continue
		}
		rest := h[len(s.text):]
		if rest != "" && rest[0] != ' ' && rest[0] != '(' {
			continue
		}
		if len(strings.Fields(stripParens(rest))) <= 2 {
			return s.field, true
		}
	}
	return "", false
}

// foldLabel 小寫、統一引號並合併空白
func foldLabel(s string) string {
	s = strings.NewReplacer("’", "'", "‘", "'", "`", "'").Replace(s)
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func stripParens(s string) string {
	var sb strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '(':
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
		case depth == 0:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
