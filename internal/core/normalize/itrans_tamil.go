package normalize

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedRune 輸入含有 ITRANS 以外的字元
var ErrUnsupportedRune = errors.New("unsupported rune for ITRANS transliteration")

const pulli = "்" // ்

type vowel struct {
	independent string
	sign        string
}

// 依長度由長到短比對
var itransVowels = []struct {
	token string
	vowel
}{
	{"aa", vowel{"ஆ", "ா"}},
	{"ai", vowel{"ஐ", "ை"}},
	{"au", vowel{"ஔ", "ௌ"}},
	{"ii", vowel{"ஈ", "ீ"}},
	{"ee", vowel{"ஈ", "ீ"}},
	{"uu", vowel{"ஊ", "ூ"}},
	{"oo", vowel{"ஊ", "ூ"}},
	{"a", vowel{"அ", ""}},
	{"i", vowel{"இ", "ி"}},
	{"u", vowel{"உ", "ு"}},
	{"e", vowel{"ஏ", "ே"}},
	{"o", vowel{"ஓ", "ோ"}},
}

var itransConsonants = []struct {
	token  string
	letter string
}{
	{"ksh", "க்ஷ"},
	{"chh", "ச"},
	{"ch", "ச"},
	{"kh", "க"},
	{"gh", "க"},
	{"jh", "ஜ"},
	{"th", "த"},
	{"dh", "த"},
	{"ph", "ப"},
	{"bh", "ப"},
	{"sh", "ஷ"},
	{"zh", "ழ"},
	{"ng", "ங"},
	{"ny", "ஞ"},
	{"k", "க"},
	{"g", "க"},
	{"c", "ச"},
	{"j", "ஜ"},
	{"t", "த"},
	{"d", "த"},
	{"n", "ந"},
	{"p", "ப"},
	{"b", "ப"},
	{"m", "ம"},
	{"y", "ய"},
	{"r", "ர"},
	{"l", "ல"},
	{"v", "வ"},
	{"w", "வ"},
	{"s", "ஸ"},
	{"h", "ஹ"},
	{"f", "ஃப"},
	{"q", "க"},
	{"x", "க்ஸ"},
	{"z", "ஜ"},
}

type itransTamil struct{}

// ITRANSTamil 回傳 ITRANS（拉丁拼音）→泰米爾文轉寫器；
// 大小寫差異在折疊後已不存在，因此只處理小寫 ASCII
func ITRANSTamil() Transliterator {
	return itransTamil{}
}

// Transliterate 實作 Transliterator
func (itransTamil) Transliterate(text string) (string, error) {
	var sb strings.Builder
	for i := 0; i < len(text); {
		b := text[i]
		if b >= 0x80 {
			return "", fmt.Errorf("%w at byte %d", ErrUnsupportedRune, i)
		}
		if b >= 'A' && b <= 'Z' {
			b += 'a' - 'A'
		}

		if letter, n := matchConsonant(text[i:]); n > 0 {
			sb.WriteString(letter)
			i += n
			if v, m := matchVowel(text[i:]); m > 0 {
				sb.WriteString(v.sign)
				i += m
			} else {
				sb.WriteString(pulli)
			}
			continue
		}
		if v, n := matchVowel(text[i:]); n > 0 {
			sb.WriteString(v.independent)
			i += n
			continue
		}

		sb.WriteByte(b)
		i++
	}
	return sb.String(), nil
}

func matchConsonant(s string) (string, int) {
	lower := strings.ToLower(prefix(s, 3))
	for _, c := range itransConsonants {
		if strings.HasPrefix(lower, c.token) {
			return c.letter, len(c.token)
		}
	}
	return "", 0
}

func matchVowel(s string) (vowel, int) {
	lower := strings.ToLower(prefix(s, 2))
	for _, v := range itransVowels {
		if strings.HasPrefix(lower, v.token) {
			return v.vowel, len(v.token)
		}
	}
	return vowel{}, 0
}

// prefix 取前 n 個位元組（僅用於 ASCII 比對）
func prefix(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[:n]
}
