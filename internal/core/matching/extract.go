// Package matching maps free-text ingredient lines onto the approved SKU catalog
// and produces the per-person cost estimate.
package matching

import (
	"regexp"
	"strconv"
	"strings"

	"lifecode-recipe/internal/core/catalog"
)

// 單位字詞；長字在前，搭配 \b 避免 "1 large onion" 的 l 被當成公升
const unitPattern = `(?:kilograms?|kgs?|grams?|gms?|gm|g|millilit(?:er|re)s?|ml|lit(?:er|re)s?|ltrs?|l|cups?|tablespoons?|tbsps?|teaspoons?|tsps?|pinch(?:es)?|nos?\.?|pieces?|pcs?|cloves?|sprigs?|handful|approx\.?|about)`

var (
	listMarkerRe   = regexp.MustCompile(`^\s*(?:[-*•‣·]+|\d+[.)])\s+`)
	bracketRe      = regexp.MustCompile(`\[[^\]]*\]`)
	annotationRe   = regexp.MustCompile(`[\(\[].*?[\)\]]`)
	leadingQtyRe   = regexp.MustCompile(`(?i)^(?:(?:approx\.?|about|~)\s*)?[\d\s/.,½¼¾⅓⅔-]*\d[\d\s/.,½¼¾⅓⅔-]*(?:` + unitPattern + `\b\.?)?\s*(?:of\s+)?`)
	pureQtyRe      = regexp.MustCompile(`(?i)^(?:(?:approx\.?|about|~)\s*)?[\d\s/.,½¼¾⅓⅔-]*\d[\d\s/.,½¼¾⅓⅔-]*\s*(?:` + unitPattern + `\b\.?)?$`)
	quantityRe     = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)(?:\s*/\s*(\d+))?\s*(` + unitPattern + `)\b`)
	nameSeparators = []string{" - ", " – ", " — ", ": "}
)

// 不代表食材的填充字
var sentinelNames = map[string]bool{
	"not applicable": true,
	"n/a":            true,
	"na":             true,
	"none":           true,
	"nil":            true,
	"-":              true,
}

// ExtractName 由食材行取出比對用的名稱（已折疊）。
// "<名稱> - <份量>" 形式保留名稱原樣（含括號註記）；
// 份量在前的形式則去除份量、單位與括號註記。
// 無法取得名稱時回傳空字串。
func ExtractName(line string) string {
	s := strings.TrimSpace(line)
	s = listMarkerRe.ReplaceAllString(s, "")
	s = bracketRe.ReplaceAllString(s, "")
	s = strings.Trim(s, "*_` ")

	if left, right, ok := splitNameQuantity(s); ok {
		switch {
		case isQuantity(left) && !isQuantity(right):
			s = stripQuantity(right)
		default:
			s = left
		}
	} else {
		s = stripQuantity(s)
	}

	name := strings.Join(strings.Fields(catalog.Fold(s)), " ")
	name = strings.Trim(name, " .,;:-")
	if name == "" || sentinelNames[name] || isQuantity(name) {
		return ""
	}
	return name
}

func splitNameQuantity(s string) (string, string, bool) {
	for _, sep := range nameSeparators {
		if i := strings.Index(s, sep); i > 0 {
			return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+len(sep):]), true
		}
	}
	return "", "", false
}

// stripQuantity 去除開頭份量與單位、括號註記以及逗號後的描述
func stripQuantity(s string) string {
	s = leadingQtyRe.ReplaceAllString(strings.TrimSpace(s), "")
	s = annotationRe.ReplaceAllString(s, "")
	if i := strings.Index(s, ","); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func isQuantity(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && pureQtyRe.MatchString(s)
}

// Quantity 份量
type Quantity struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// ParseQuantity 取出文字中第一個「數字+單位」；僅供顯示與結構化資料使用，不參與計價
func ParseQuantity(text string) (Quantity, bool) {
	m := quantityRe.FindStringSubmatch(text)
	if m == nil {
		return Quantity{}, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Quantity{}, false
	}
	if m[2] != "" {
		d, err := strconv.ParseFloat(m[2], 64)
		if err != nil || d == 0 {
			return Quantity{}, false
		}
		v /= d
	}
	return Quantity{Value: v, Unit: canonicalUnit(m[3])}, true
}

func canonicalUnit(u string) string {
	u = strings.TrimSuffix(strings.ToLower(u), ".")
	switch {
	case strings.HasPrefix(u, "kilogram"), strings.HasPrefix(u, "kg"):
		return "kg"
	case strings.HasPrefix(u, "millilit"), u == "ml":
		return "ml"
	case strings.HasPrefix(u, "lit"), strings.HasPrefix(u, "ltr"), u == "l":
		return "l"
	case strings.HasPrefix(u, "gram"), strings.HasPrefix(u, "gm"), u == "g":
		return "g"
	case strings.HasPrefix(u, "cup"):
		return "cup"
	case strings.HasPrefix(u, "tablespoon"), strings.HasPrefix(u, "tbsp"):
		return "tbsp"
	case strings.HasPrefix(u, "teaspoon"), strings.HasPrefix(u, "tsp"):
		return "tsp"
	case strings.HasPrefix(u, "pinch"):
		return "pinch"
	case strings.HasPrefix(u, "clove"):
		return "clove"
	case strings.HasPrefix(u, "sprig"):
		return "sprig"
	case u == "approx", u == "about":
		return ""
	default:
		return "piece"
	}
}
