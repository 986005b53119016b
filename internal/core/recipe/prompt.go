package recipe

import (
	"fmt"
	"strconv"
	"strings"

	"lifecode-recipe/internal/core/catalog"
)

const promptPersona = `You are a wise and experienced 60+ year old Chettinad chef working for a modern nutrition brand called Lifecode.
Your task is to prepare precise traditional Tamil recipes using only the below grocery items and their prices.
You must not invent new ingredients or use different names.`

const banner = "===================="

// BuildPrompt 產生送往 LLM 的提示詞：核准食材、價格、段落格式（取自 Labels）與 JSON 食材陣列
func BuildPrompt(dish string, c *catalog.Catalog) string {
	var sb strings.Builder
	sb.WriteString(promptPersona)
	sb.WriteString("\n")

	writeBanner(&sb, "📦 APPROVED INGREDIENTS")
	entries := c.Entries()
	for _, e := range entries {
		fmt.Fprintf(&sb, "• %s\n", e.Name)
	}

	writeBanner(&sb, "💰 INGREDIENT PRICES")
	for _, e := range entries {
		fmt.Fprintf(&sb, "• %s – ₹%s/kg or /L\n", e.Name, strconv.FormatFloat(e.Price, 'f', -1, 64))
	}

	writeBanner(&sb, "🎯 OUTPUT FORMAT (MUST FOLLOW EXACTLY)")
	for i, l := range Labels {
		fmt.Fprintf(&sb, "%d. %s:", i+1, l.Heading())
		if strings.HasPrefix(l.Hint, "\n") {
			sb.WriteString(l.Hint)
		} else {
			sb.WriteString(" " + l.Hint)
		}
		sb.WriteString("\n")
	}

	writeBanner(&sb, "🧾 STRUCTURED INGREDIENTS")
	sb.WriteString("After the sections above, also list the ingredients as a JSON array of objects with the keys \"name\", \"quantity\" and \"purpose\", for example:\n")
	sb.WriteString(`[{"name": "Almonds (Whole)", "quantity": "50g", "purpose": "garnish"}]`)
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "Dish Name: %s\n", strings.TrimSpace(dish))
	sb.WriteString("Only use g/ml units. Never use cups, spoons, pinch, etc. Stick to the above SKU list only.\n")
	return sb.String()
}

func writeBanner(sb *strings.Builder, title string) {
	sb.WriteString(banner + "\n" + title + "\n" + banner + "\n")
}
