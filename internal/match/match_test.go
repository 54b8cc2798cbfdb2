package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchingBlocks(t *testing.T) {
	m := newSequenceMatcher([]rune("abxcd"), []rune("abcd"))
	assert.Equal(t, []block{{0, 0, 2}, {3, 2, 2}, {5, 4, 0}}, m.matchingBlocks())

	assert.InDelta(t, 0.75, newSequenceMatcher([]rune("abcd"), []rune("bcde")).ratio(), 1e-9)
	assert.InDelta(t, 1.0, newSequenceMatcher(nil, nil).ratio(), 1e-9)
}

func TestProcess(t *testing.T) {
	assert.Equal(t, "dr  jane doe", Process("Dr. Jane Doe"))
	assert.Equal(t, "o brien", Process("  O'Brien! "))
	assert.Equal(t, "lodie", Process("Élodie"))
	assert.Equal(t, "snake_case  42", Process("snake_case #42"))
	assert.Equal(t, "", Process("..."))
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 97, Ratio("this is a test", "this is a test!"))
	assert.Equal(t, 91, Ratio("fuzzy wuzzy was a bear", "wuzzy fuzzy was a bear"))
	assert.Equal(t, 100, Ratio("same", "same"))
	assert.Equal(t, 0, Ratio("", "x"))
	assert.Equal(t, 100, Ratio("", ""))
}

func TestPartialRatio(t *testing.T) {
	assert.Equal(t, 100, PartialRatio("this is a test", "this is a test!"))
	assert.Equal(t, 100, PartialRatio("jane doe", "dr  jane doe"))
	assert.Equal(t, 0, PartialRatio("abc", ""))
}

func TestTokenRatios(t *testing.T) {
	assert.Equal(t, 100, tokenSortRatio("fuzzy wuzzy was a bear", "wuzzy fuzzy was a bear", false))
	assert.Equal(t, 100, tokenSetRatio("fuzzy was a bear", "fuzzy fuzzy was a bear", false))
	assert.Equal(t, 0, tokenSetRatio("", "bear", false))
}

func TestWRatio(t *testing.T) {
	assert.Equal(t, 90, WRatio("cowboys", "Dallas Cowboys"))
	assert.Equal(t, 90, WRatio("dr. jane doe", "jane doe"))
	assert.Equal(t, 100, WRatio("Jane Doe", "jane doe"))
	assert.Equal(t, 0, WRatio("", "jane doe"))
	assert.Equal(t, 0, WRatio("...", "jane doe"))
}

func TestMatcher_Best(t *testing.T) {
	teams := []string{"Atlanta Falcons", "New York Jets", "New York Giants", "Dallas Cowboys"}

	r := Best("cowboys", teams)
	require.True(t, r.Found)
	assert.Equal(t, "Dallas Cowboys", r.Match)
	assert.Equal(t, 3, r.Index)
	assert.Equal(t, 90, r.Score)
}

func TestMatcher_ExactMatchScores100(t *testing.T) {
	r := Best("john roe", []string{"jane doe", "john roe", "john roe"})

	assert.True(t, r.Found)
	assert.Equal(t, "john roe", r.Match)
	assert.Equal(t, 1, r.Index, "first of equal candidates wins")
	assert.Equal(t, 100, r.Score)
}

func TestMatcher_EmptyCandidates(t *testing.T) {
	for _, q := range []string{"", "jane doe"} {
		assert.Equal(t, None, Best(q, nil))
		assert.Equal(t, None, Best(q, []string{}))
	}
}

func TestMatcher_NoCandidateAboveFloor(t *testing.T) {
	assert.Equal(t, None, Best("", []string{"jane doe"}))
	assert.Equal(t, None, Best("jane doe", []string{"", "!!"}))
}

func TestMatcher_TieGoesToFirst(t *testing.T) {
	m := NewMatcher([]string{"alpha", "beta", "gamma"}).
		WithScorer(func(_, _ string) int { return 50 })

	r := m.Best("anything")
	assert.Equal(t, "alpha", r.Match)
	assert.Equal(t, 50, r.Score)
	assert.Equal(t, 3, m.Len())
}

func TestMatcher_Deterministic(t *testing.T) {
	m := NewMatcher([]string{"jane doe", "john roe", "jon rowe", "joan doe"})
	first := m.Best("dr jon roe")
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, m.Best("dr jon roe"))
	}
}

func TestMatcher_TitledNames(t *testing.T) {
	m := NewMatcher([]string{"jane doe", "john roe"})

	jane := m.Best("dr. jane doe")
	assert.Equal(t, "jane doe", jane.Match)
	assert.Equal(t, 90, jane.Score)

	jon := m.Best("dr jon roe")
	assert.Equal(t, "john roe", jon.Match)
	assert.LessOrEqual(t, jon.Score, 85)
}
