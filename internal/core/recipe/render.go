package recipe

import (
	"fmt"
	"strings"
)

const (
	freshBanner      = "👨‍🍳 Freshly prepared by Lifecode Chef!"
	rememberedBanner = "📒 Lifecode Chef remembered this one!"
)

// FormatCost 以 "₹ 94.00" 格式顯示金額
func FormatCost(v float64) string {
	return fmt.Sprintf("₹ %.2f", v)
}

// RenderMarkdown 將食譜轉為聊天回覆；fresh 表示剛由 LLM 生成
func RenderMarkdown(rec *RecipeRecord, fresh bool) string {
	if rec == nil {
		return ""
	}
	var sb strings.Builder
	if fresh {
		sb.WriteString("_" + freshBanner + "_\n\n")
	} else {
		sb.WriteString("_" + rememberedBanner + "_\n\n")
	}

	fmt.Fprintf(&sb, "## %s\n\n", displayName(rec))
	writeSection(&sb, "Portion Details", rec.Portion)
	writeSection(&sb, "Ingredients", ingredientText(rec.Ingredients))
	writeSection(&sb, "Preparation Steps", rec.PreparationSteps)
	if rec.HasAccompaniment() {
		writeSection(&sb, "Suitable Accompaniment", rec.Accompaniment)
	}
	if len(rec.UnmatchedGroceries) > 0 {
		lines := make([]string, 0, len(rec.UnmatchedGroceries))
		for _, g := range rec.UnmatchedGroceries {
			lines = append(lines, "• "+g.Line)
		}
		writeSection(&sb, "Grocery Didn't Match", strings.Join(lines, "\n"))
	}
	writeSection(&sb, "Estimated Cost", FormatCost(rec.TotalCost))
	return strings.TrimRight(sb.String(), "\n") + "\n"
}

func displayName(rec *RecipeRecord) string {
	if rec.Name != "" {
		return TitleCase(rec.Name)
	}
	return rec.Title
}

func writeSection(sb *strings.Builder, title, body string) {
	fmt.Fprintf(sb, "### %s\n%s\n\n", title, strings.TrimSpace(body))
}

func ingredientText(lines []IngredientLine) string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		text := l.Text()
		if text == "" {
			continue
		}
		if l.Raw == "" {
			text = "• " + text
			if l.Purpose != "" {
				text += " (" + l.Purpose + ")"
			}
		}
		out = append(out, text)
	}
	return strings.Join(out, "\n")
}
