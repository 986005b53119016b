package matching

import (
	"github.com/pmezard/go-difflib/difflib"
)

// Match 相似度比對結果
type Match struct {
	Candidate string  `json:"candidate"`
	Score     float64 `json:"score"`
}

// Matcher 在候選集合中找出與 name 最相近的一項；候選為空時回傳 false
type Matcher interface {
	BestMatch(name string, candidates []string) (Match, bool)
}

// SequenceMatcher 以 difflib 序列相似度（2*M/T）比對
type SequenceMatcher struct{}

// NewSequenceMatcher 建立序列相似度比對器
func NewSequenceMatcher() *SequenceMatcher {
	return &SequenceMatcher{}
}

// BestMatch 回傳分數最高的候選；分數相同時取字典序較大者，確保結果可重現
func (m *SequenceMatcher) BestMatch(name string, candidates []string) (Match, bool) {
	if name == "" || len(candidates) == 0 {
		return Match{}, false
	}

	// seq2 固定為查詢字，逐一替換 seq1，b 的索引只建一次
	sm := difflib.NewMatcher(nil, runes(name))

	best := Match{Score: -1}
	for _, cand := range candidates {
		sm.SetSeq1(runes(cand))
		if sm.RealQuickRatio() < best.Score || sm.QuickRatio() < best.Score {
			continue
		}
		score := sm.Ratio()
		if score > best.Score || (score == best.Score && cand > best.Candidate) {
			best = Match{Candidate: cand, Score: score}
		}
	}
	return best, true
}

// Ratio 計算兩字串的序列相似度
func Ratio(a, b string) float64 {
	return difflib.NewMatcher(runes(a), runes(b)).Ratio()
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
