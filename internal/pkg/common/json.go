package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// ParseJSON 解析 JSON 字符串到結構體
func ParseJSON(data string, v interface{}) error {
	return decodeJSON(strings.NewReader(data), v)
}

// ParseJSONBytes 解析 JSON 位元組切片到結構體
func ParseJSONBytes(data []byte, v interface{}) error {
	return decodeJSON(bytes.NewReader(data), v)
}

func decodeJSON(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := dec.Decode(v); err != nil {
		return err
	}

	// 確保沒有多餘資料
	for {
		t, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if t != nil {
			return fmt.Errorf("unexpected extra JSON data")
		}
	}
}

var (
	unquotedKeyPattern = regexp.MustCompile(`([{\[,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
	trailingCommaRe    = regexp.MustCompile(`,\s*([}\]])`)
)

// QuoteJSONKeys 將未加雙引號的鍵補上雙引號
func QuoteJSONKeys(raw string) string {
	return unquotedKeyPattern.ReplaceAllString(raw, `$1"$2":`)
}

// RepairJSON 修補 LLM 常見的 JSON 瑕疵：未加引號的鍵、結尾多餘逗號、智慧引號
func RepairJSON(raw string) string {
	raw = strings.NewReplacer("“", `"`, "”", `"`).Replace(raw)
	raw = QuoteJSONKeys(raw)
	return trailingCommaRe.ReplaceAllString(raw, "$1")
}
