// Package normalize canonicalizes free-text dish names into lookup keys.
package normalize

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Transliterator 將文字轉寫到目標文字系統
type Transliterator interface {
	Transliterate(text string) (string, error)
}

// TransliteratorFunc 讓一般函式實作 Transliterator
type TransliteratorFunc func(string) (string, error)

// Transliterate 實作 Transliterator
func (f TransliteratorFunc) Transliterate(text string) (string, error) { return f(text) }

// Normalizer 名稱正規化器；純函式，無 I/O
type Normalizer struct {
	translit Transliterator
}

// Option 正規化器選項
type Option func(*Normalizer)

// WithTransliterator 指定轉寫器
func WithTransliterator(t Transliterator) Option {
	return func(n *Normalizer) { n.translit = t }
}

// WithoutTransliteration 只做 trim 與大小寫折疊
func WithoutTransliteration() Option {
	return func(n *Normalizer) { n.translit = nil }
}

// New 建立正規化器，預設使用 ITRANS→泰米爾文轉寫
func New(opts ...Option) *Normalizer {
	n := &Normalizer{translit: ITRANSTamil()}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

var defaultNormalizer = New()

// Key 以預設正規化器產生查詢鍵
func Key(text string) string {
	return defaultNormalizer.Normalize(text)
}

// Normalize 產生查詢鍵：trim、合併空白、大小寫折疊，再嘗試轉寫；
// 轉寫失敗時退回折疊後的文字
func (n *Normalizer) Normalize(text string) string {
	folded := Fold(text)
	if folded == "" || n.translit == nil {
		return folded
	}

	out, err := n.transliterate(folded)
	if err != nil || strings.TrimSpace(out) == "" {
		return folded
	}
	return norm.NFC.String(strings.Join(strings.Fields(out), " "))
}

// Fold trim、合併空白並做 Unicode 大小寫折疊
func Fold(text string) string {
	s := strings.ToValidUTF8(text, "�")
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	s = cases.Fold().String(norm.NFC.String(s))
	return norm.NFC.String(s)
}

func (n *Normalizer) transliterate(text string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("transliterator panic: %v", r)
		}
	}()
	return n.translit.Transliterate(text)
}
