package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifecode-recipe/internal/core/catalog"
)

func TestExtractName(t *testing.T) {
	cases := []struct {
		line string
		want string
	}{
		{"Almonds (Whole) - 50g", "almonds (whole)"},
		{"  Moon Cheese - 20g ", "moon cheese"},
		{"* Salt - to taste", "salt"},
		{"2 cups rice (soaked overnight)", "rice"},
		{"1 large onion, finely chopped", "large onion"},
		{"200g Ragi Flour", "ragi flour"},
		{"1/2 tsp Turmeric [optional]", "turmeric"},
		{"3. Water - as needed", "water"},
		{"- 50g", ""},
		{"50 ml", ""},
		{"   ", ""},
		{"", ""},
		{"Not applicable", ""},
		{"- n/a", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ExtractName(tc.line), "line %q", tc.line)
	}
}

func TestParseQuantity(t *testing.T) {
	q, ok := ParseQuantity("Almonds (Whole) - 50g")
	require.True(t, ok)
	assert.Equal(t, Quantity{Value: 50, Unit: "g"}, q)

	q, ok = ParseQuantity("1/2 cup grated coconut")
	require.True(t, ok)
	assert.Equal(t, Quantity{Value: 0.5, Unit: "cup"}, q)

	q, ok = ParseQuantity("Milk - 1.5 litres")
	require.True(t, ok)
	assert.Equal(t, Quantity{Value: 1.5, Unit: "l"}, q)

	_, ok = ParseQuantity("Salt - to taste")
	assert.False(t, ok)
}

func TestSequenceMatcherBestMatch(t *testing.T) {
	m := NewSequenceMatcher()

	got, ok := m.BestMatch("ragi flor", catalog.Default().Names())
	require.True(t, ok)
	assert.Equal(t, "ragi flour", got.Candidate)
	assert.InDelta(t, 0.947, got.Score, 0.001)

	_, ok = m.BestMatch("ragi", nil)
	assert.False(t, ok)
	_, ok = m.BestMatch("", []string{"ragi flour"})
	assert.False(t, ok)
}

func TestSequenceMatcherTieBreakIsDeterministic(t *testing.T) {
	m := NewSequenceMatcher()

	for i := 0; i < 10; i++ {
		got, ok := m.BestMatch("abcz", []string{"abcx", "abcy", "abcw"})
		require.True(t, ok)
		assert.Equal(t, "abcy", got.Candidate)
		assert.InDelta(t, 0.75, got.Score, 1e-9)

		got, _ = m.BestMatch("abcz", []string{"abcw", "abcy", "abcx"})
		assert.Equal(t, "abcy", got.Candidate)
	}
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 1.0, Ratio("ghee", "ghee"))
	assert.Equal(t, 0.6, Ratio("abcdefghij", "abcdefxxxx"))
	assert.Equal(t, 0.0, Ratio("abc", "xyz"))
}

func TestMatchAndCostExactMatch(t *testing.T) {
	c := catalog.Default()
	e := NewEstimator(c, nil)

	res := e.MatchAndCost([]string{"Almonds (Whole) - 50g"})
	require.Len(t, res.Matched, 1)
	assert.Empty(t, res.Unmatched)

	g := res.Matched[0]
	assert.Equal(t, "almonds (whole)", g.Name)
	assert.Equal(t, "almonds (whole)", g.SKU)
	assert.True(t, g.Exact)
	assert.Equal(t, 940.0, g.UnitPrice)
	assert.Equal(t, 94.0, g.Cost)
	assert.Equal(t, 94.0, res.Total)
	require.NotNil(t, g.Quantity)
	assert.Equal(t, Quantity{Value: 50, Unit: "g"}, *g.Quantity)
}

func TestMatchAndCostEveryCatalogEntryIsExact(t *testing.T) {
	c := catalog.Default()
	e := NewEstimator(c, nil)

	for _, entry := range c.Entries() {
		g, ok := e.MatchLine(entry.Name + " - 100g")
		require.True(t, ok, entry.Name)
		assert.True(t, g.Exact, entry.Name)
		assert.Equal(t, entry.Price/10, g.Cost, entry.Name)
	}
}

func TestMatchAndCostUnknownIngredient(t *testing.T) {
	e := NewEstimator(catalog.Default(), nil)

	res := e.MatchAndCost([]string{"Moon Cheese - 20g"})
	assert.Empty(t, res.Matched)
	require.Len(t, res.Unmatched, 1)
	assert.Equal(t, "moon cheese", res.Unmatched[0].Name)
	assert.Equal(t, "Moon Cheese - 20g", res.Unmatched[0].Line)
	assert.Empty(t, res.Unmatched[0].SKU)
	assert.Equal(t, 0.0, res.Unmatched[0].Cost)
	assert.Equal(t, 0.0, res.Total)
}

func TestMatchAndCostThresholdBoundary(t *testing.T) {
	c, err := catalog.New([]catalog.Entry{{Name: "abcdefghij", Price: 100}})
	require.NoError(t, err)
	e := NewEstimator(c, nil)

	// 2*6/20 = 0.6，剛好達到門檻
	at := e.MatchAndCost([]string{"abcdefxxxx - 10g"})
	require.Len(t, at.Matched, 1)
	assert.Equal(t, "abcdefghij", at.Matched[0].SKU)
	assert.False(t, at.Matched[0].Exact)
	assert.Equal(t, 10.0, at.Total)

	// 2*6/21 ≈ 0.571
	below := e.MatchAndCost([]string{"abcdefxxxxx - 10g"})
	assert.Empty(t, below.Matched)
	require.Len(t, below.Unmatched, 1)
	assert.InDelta(t, 0.571, below.Unmatched[0].Score, 0.001)

	// 2*7/20 = 0.7
	above := e.MatchAndCost([]string{"abcdefgxxx - 10g"})
	assert.Len(t, above.Matched, 1)
}

func TestMatchAndCostSkipsEmptyNames(t *testing.T) {
	e := NewEstimator(catalog.Default(), nil)

	res := e.MatchAndCost([]string{"", "   ", "- 50g", "Not applicable", "Ragi Flour - 100g"})
	assert.Len(t, res.Matched, 1)
	assert.Empty(t, res.Unmatched)
}

func TestMatchAndCostIsAdditive(t *testing.T) {
	e := NewEstimator(catalog.Default(), nil)
	lines := []string{
		"Almonds (Whole) - 50g",
		"Ragi Flour - 100g",
		"ragi flor - 20g",
		"Water - as needed",
		"Moon Cheese - 20g",
	}

	res := e.MatchAndCost(lines)
	assert.Len(t, res.Matched, 4)
	assert.Len(t, res.Unmatched, 1)

	var sum float64
	for _, line := range lines {
		sum += e.MatchAndCost([]string{line}).Total
	}
	assert.InDelta(t, sum, res.Total, 1e-9)
	assert.InDelta(t, 94.0+9.2+9.2+0, res.Total, 1e-9)
	assert.Equal(t, 112.4, Round2(res.Total))
}

func TestEstimatorOptions(t *testing.T) {
	c := catalog.Default()

	e := NewEstimator(c, nil, WithDivisor(4), WithThreshold(0.95))
	assert.Equal(t, 4.0, e.Divisor())
	assert.Equal(t, 0.95, e.Threshold())

	res := e.MatchAndCost([]string{"Almonds (Whole) - 50g", "ragi flor - 10g"})
	assert.Equal(t, 235.0, res.Total)
	assert.Len(t, res.Unmatched, 1)

	ignored := NewEstimator(c, nil, WithDivisor(0), WithThreshold(2))
	assert.Equal(t, DefaultDivisor, ignored.Divisor())
	assert.Equal(t, DefaultThreshold, ignored.Threshold())
}

type fixedMatcher struct{ m Match }

func (f fixedMatcher) BestMatch(string, []string) (Match, bool) { return f.m, true }

func TestEstimatorUsesInjectedMatcher(t *testing.T) {
	e := NewEstimator(catalog.Default(), fixedMatcher{Match{Candidate: "ragi flour", Score: 0.8}})

	res := e.MatchAndCost([]string{"finger millet flour - 100g"})
	require.Len(t, res.Matched, 1)
	assert.Equal(t, "ragi flour", res.Matched[0].SKU)
	assert.InDelta(t, 9.2, res.Total, 1e-9)
}
