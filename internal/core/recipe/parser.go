package recipe

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"lifecode-recipe/internal/pkg/common"
)

// ParsedRecipe 解析後的 LLM 回應
type ParsedRecipe struct {
	Title             string
	Portion           string
	Ingredients       string
	Structured        []IngredientLine
	Groceries         string
	ReportedUnmatched string
	ReportedCost      string
	Accompaniment     string
	PreparationSteps  string
	// Extra 未知標籤，以原始標題文字為鍵
	Extra map[string]string
	// Found 回應中實際出現過的段落
	Found map[Field]bool
	// DecodeFailed 內嵌的食材 JSON 區塊無法解析
	DecodeFailed bool
}

var (
	numberedRe    = regexp.MustCompile(`^(\d{1,2})[.)]\s*(.*)$`)
	mdHeadingRe   = regexp.MustCompile(`^\s*#{1,6}\s*(.+?)\s*#*\s*$`)
	titleHeadRe   = regexp.MustCompile(`^##\s*([^#\s].*?)\s*#*\s*$`)
	fenceLineRe   = regexp.MustCompile("(?m)^\\s*```[A-Za-z]*\\s*$\\n?")
	connectorWord = map[string]bool{"of": true, "and": true, "the": true, "if": true, "any": true, "per": true, "with": true, "to": true, "for": true, "&": true}
)

// scanner 狀態：目前所在段落（已知欄位或未知標籤）
type section struct {
	field Field
	extra string
}

func (s section) none() bool { return s.field == "" && s.extra == "" }

// Parse 將 LLM 的自由文字回應解析為固定欄位；任何輸入都不會失敗。
// requestedName 用於回應中沒有食譜名稱時的後備標題。
func Parse(raw, requestedName string) *ParsedRecipe {
	p := &ParsedRecipe{
		Extra: map[string]string{},
		Found: map[Field]bool{},
	}

	text := strings.ToValidUTF8(raw, "")
	text = strings.ReplaceAll(text, "\r\n", "\n")

	if items, rest, found, err := extractIngredientBlock(text); found {
		text = rest
		if err != nil {
			p.DecodeFailed = true
			common.LogWarn("Failed to decode structured ingredient block", zap.Error(err))
		} else {
			p.Structured = items
		}
	}

	var (
		cur    section
		buffer []string
		// step 步驟段落中最後一個編號
		step int
	)
	flush := func() {
		if cur.none() {
			return
		}
		p.set(cur, strings.TrimSpace(strings.Join(buffer, "\n")))
	}

	for _, line := range strings.Split(text, "\n") {
		if next, content, ok := p.matchHeader(line, cur, step); ok {
			flush()
			cur = next
			step = 0
			buffer = buffer[:0]
			if content != "" {
				buffer = append(buffer, content)
			}
			continue
		}
		if cur.none() {
			continue
		}
		if cur.field == FieldSteps {
			if n, ok := stepNumber(line); ok {
				step = n
			}
		}
		buffer = append(buffer, line)
	}
	flush()

	p.finalize(text, requestedName)
	return p
}

func (p *ParsedRecipe) set(s section, value string) {
	if s.extra != "" {
		p.Extra[s.extra] = appendSection(p.Extra[s.extra], value)
		return
	}
	p.Found[s.field] = true
	switch s.field {
	case FieldTitle:
		if p.Title == "" {
			p.Title = firstLine(value)
		}
	case FieldPortion:
		p.Portion = appendSection(p.Portion, value)
	case FieldIngredients:
		p.Ingredients = appendSection(p.Ingredients, value)
	case FieldGroceries:
		p.Groceries = appendSection(p.Groceries, value)
	case FieldUnmatched:
		p.ReportedUnmatched = appendSection(p.ReportedUnmatched, value)
	case FieldAccompaniment:
		p.Accompaniment = appendSection(p.Accompaniment, value)
	case FieldCost:
		p.ReportedCost = appendSection(p.ReportedCost, value)
	case FieldSteps:
		p.PreparationSteps = appendSection(p.PreparationSteps, value)
	}
}

func (p *ParsedRecipe) finalize(text, requestedName string) {
	p.Title = strings.Trim(p.Title, "*_ []")
	if p.Title == "" {
		p.Title = fallbackTitle(text, requestedName)
	}
	if !p.Found[FieldSteps] {
		p.PreparationSteps = StepsFailedSentinel
	}
	if isNotApplicable(p.Accompaniment) {
		p.Accompaniment = NotApplicable
	}
}

// matchHeader 判斷一行是否為段落標題，回傳新段落與同一行標題後的內容。
// step 為目前步驟段落中最後一個編號，用來分辨步驟與接在後面的編號標籤。
func (p *ParsedRecipe) matchHeader(line string, cur section, step int) (section, string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return section{}, "", false
	}

	isHeading := false
	if m := mdHeadingRe.FindStringSubmatch(trimmed); m != nil && strings.HasPrefix(trimmed, "#") {
		isHeading = true
		trimmed = m[1]
	}
	bold := strings.HasPrefix(trimmed, "**") || strings.HasPrefix(trimmed, "__")

	s := strings.TrimLeftFunc(trimmed, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	numbered, number := false, 0
	if m := numberedRe.FindStringSubmatch(s); m != nil {
		numbered = true
		number, _ = strconv.Atoi(m[1])
		s = strings.TrimLeft(m[2], "*_ ")
	}
	inSteps := cur.field == FieldSteps

	head, content, hasColon := splitHead(s)
	head = strings.TrimSpace(strings.Trim(head, "*_ "))
	content = strings.TrimSpace(strings.Trim(content, "*_ "))
	if head == "" {
		return section{}, "", false
	}
	if !hasColon && !isHeading && !(bold && strings.HasSuffix(strings.TrimSpace(s), "**")) {
		return section{}, "", false
	}

	if field, ok := lookupLabel(head); ok {
		// 步驟內的 "2. Preparation: ..." 是步驟本身
		if inSteps && numbered && field == FieldSteps {
			return section{}, "", false
		}
		return section{field: field}, content, true
	}

	// 未知標籤只接受編號標題；步驟段落內編號需中斷步驟順序
	if numbered && hasColon && isTitleCase(head) && (!inSteps || number != step+1) {
		return section{extra: head}, content, true
	}
	return section{}, "", false
}

// stepNumber 取得步驟行開頭的編號
func stepNumber(line string) (int, bool) {
	m := numberedRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	return n, err == nil
}

// splitHead 以第一個冒號切開標題與內容
func splitHead(s string) (string, string, bool) {
	i := strings.IndexAny(s, ":：")
	if i < 0 {
		return s, "", false
	}
	_, size := utf8.DecodeRuneInString(s[i:])
	return s[:i], s[i+size:], true
}

// isTitleCase 最多六個字，每個字首字母大寫（連接詞與括號內容除外）
func isTitleCase(head string) bool {
	words := strings.Fields(stripParens(head))
	if len(words) == 0 || len(words) > 6 {
		return false
	}
	for _, w := range words {
		if connectorWord[strings.ToLower(w)] {
			continue
		}
		r := []rune(w)
		if !unicode.IsUpper(r[0]) {
			return false
		}
	}
	return true
}

// fallbackTitle 依序使用：請求的菜名（首字大寫），第一個非標籤的 "## " 標題
func fallbackTitle(text, requestedName string) string {
	if name := strings.TrimSpace(requestedName); name != "" {
		return TitleCase(name)
	}
	for _, line := range strings.Split(text, "\n") {
		m := titleHeadRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		candidate := strings.Trim(m[1], "*_ ")
		if _, isLabel := lookupLabel(strings.TrimRight(candidate, ":")); isLabel || candidate == "" {
			continue
		}
		return candidate
	}
	return ""
}

// TitleCase 英文首字大寫
func TitleCase(s string) string {
	return cases.Title(language.English).String(strings.Join(strings.Fields(s), " "))
}

// IngredientLines 還原為逐行食材：優先使用結構化區塊，否則拆分 Ingredients 段落，
// 兩者皆無時改用回應中的 Organic Grocery 段落
func (p *ParsedRecipe) IngredientLines() []IngredientLine {
	if len(p.Structured) > 0 {
		out := make([]IngredientLine, len(p.Structured))
		copy(out, p.Structured)
		return out
	}
	text := p.Ingredients
	if strings.TrimSpace(text) == "" {
		text = p.Groceries
	}
	var out []IngredientLine
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, IngredientLine{Raw: line})
		}
	}
	return out
}

// extractIngredientBlock 尋找內嵌的 [{...}] 食材陣列並自文字中移除。
// found 為 true 但 err 不為 nil 時表示區塊存在但無法解析。
func extractIngredientBlock(text string) (items []IngredientLine, rest string, found bool, err error) {
	start, end := findJSONArray(text)
	if start < 0 {
		return nil, text, false, nil
	}
	block := text[start:end]
	rest = text[:start] + text[end:]
	rest = fenceLineRe.ReplaceAllString(rest, "")

	var raw []map[string]interface{}
	if err = common.ParseJSON(block, &raw); err != nil {
		if retry := common.ParseJSON(common.RepairJSON(block), &raw); retry != nil {
			return nil, rest, true, fmt.Errorf("invalid ingredient block: %w", err)
		}
		err = nil
	}

	for _, obj := range raw {
		line := IngredientLine{
			Name:     stringField(obj, "name"),
			Quantity: stringField(obj, "quantity"),
			Purpose:  stringField(obj, "purpose"),
		}
		if line.Name != "" {
			items = append(items, line)
		}
	}
	return items, rest, true, nil
}

// findJSONArray 找出第一個以 "[" 後接 "{" 開始的陣列，並以括號配對（忽略字串內容）找到結尾
func findJSONArray(text string) (int, int) {
	for i := 0; i < len(text); i++ {
		if text[i] != '[' {
			continue
		}
		j := i + 1
		for j < len(text) && (text[j] == ' ' || text[j] == '\n' || text[j] == '\t' || text[j] == '\r') {
			j++
		}
		if j >= len(text) || text[j] != '{' {
			continue
		}
		if end := matchBracket(text, i); end > 0 {
			return i, end
		}
		return -1, -1
	}
	return -1, -1
}

func matchBracket(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

func stringField(obj map[string]interface{}, key string) string {
	v, ok := obj[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func appendSection(existing, value string) string {
	switch {
	case existing == "":
		return value
	case value == "":
		return existing
	default:
		return existing + "\n" + value
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}
