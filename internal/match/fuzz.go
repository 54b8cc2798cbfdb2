package match

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Weights applied by WRatio to the partial and token-based scores.
const (
	unbaseScale       = 0.95
	partialScale      = 0.90
	longPartialScale  = 0.60
	partialLenRatio   = 1.5
	longPartialRatio  = 8.0
	partialPerfectCut = 0.995
)

// Process prepares a string for scoring. Runes 128 to 255 are dropped,
// anything that is not a letter, number or underscore becomes a space,
// and the result is lowercased and trimmed.
func Process(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 128 && r <= 255:
			continue
		case unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte(' ')
		}
	}
	return strings.TrimSpace(strings.ToLower(sb.String()))
}

// round rounds half to even
func round(f float64) int {
	return int(math.RoundToEven(f))
}

// Ratio scores the similarity of two strings in [0,100].
func Ratio(s1, s2 string) int {
	if s1 == s2 {
		return 100
	}
	if s1 == "" || s2 == "" {
		return 0
	}
	return round(100 * newSequenceMatcher([]rune(s1), []rune(s2)).ratio())
}

// PartialRatio scores the best alignment of the shorter string against
// windows of the longer one.
func PartialRatio(s1, s2 string) int {
	if s1 == s2 {
		return 100
	}
	if s1 == "" || s2 == "" {
		return 0
	}

	shorter, longer := []rune(s1), []rune(s2)
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	best := 0.0
	for _, x := range newSequenceMatcher(shorter, longer).matchingBlocks() {
		start := x.B - x.A
		if start < 0 {
			start = 0
		}
		end := start + len(shorter)
		if end > len(longer) {
			end = len(longer)
		}

		r := newSequenceMatcher(shorter, longer[start:end]).ratio()
		if r > partialPerfectCut {
			return 100
		}
		if r > best {
			best = r
		}
	}
	return round(100 * best)
}

func sortedTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// tokenSortRatio compares already processed strings after sorting their
// tokens.
func tokenSortRatio(p1, p2 string, partial bool) int {
	s1, s2 := sortedTokens(p1), sortedTokens(p2)
	if partial {
		return PartialRatio(s1, s2)
	}
	return Ratio(s1, s2)
}

// tokenSetRatio compares the shared tokens against each side's leftovers.
func tokenSetRatio(p1, p2 string, partial bool) int {
	if p1 == "" || p2 == "" {
		return 0
	}

	set1 := tokenSet(p1)
	set2 := tokenSet(p2)

	var common, only1, only2 []string
	for t := range set1 {
		if set2[t] {
			common = append(common, t)
		} else {
			only1 = append(only1, t)
		}
	}
	for t := range set2 {
		if !set1[t] {
			only2 = append(only2, t)
		}
	}
	sort.Strings(common)
	sort.Strings(only1)
	sort.Strings(only2)

	sect := strings.Join(common, " ")
	combined1 := strings.TrimSpace(sect + " " + strings.Join(only1, " "))
	combined2 := strings.TrimSpace(sect + " " + strings.Join(only2, " "))

	score := Ratio
	if partial {
		score = PartialRatio
	}
	return max(score(sect, combined1), score(sect, combined2), score(combined1, combined2))
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range strings.Fields(s) {
		set[t] = true
	}
	return set
}

// WRatio processes both strings and returns the weighted best of the plain,
// partial and token-based scores.
func WRatio(s1, s2 string) int {
	return wratio(Process(s1), Process(s2))
}

// wratio scores two already processed strings.
func wratio(p1, p2 string) int {
	if p1 == "" || p2 == "" {
		return 0
	}

	base := float64(Ratio(p1, p2))

	l1, l2 := len([]rune(p1)), len([]rune(p2))
	lenRatio := float64(max(l1, l2)) / float64(min(l1, l2))

	if lenRatio < partialLenRatio {
		tsor := float64(tokenSortRatio(p1, p2, false)) * unbaseScale
		tser := float64(tokenSetRatio(p1, p2, false)) * unbaseScale
		return round(max(base, tsor, tser))
	}

	scale := partialScale
	if lenRatio > longPartialRatio {
		scale = longPartialScale
	}
	partial := float64(PartialRatio(p1, p2)) * scale
	ptsor := float64(tokenSortRatio(p1, p2, true)) * unbaseScale * scale
	ptser := float64(tokenSetRatio(p1, p2, true)) * unbaseScale * scale
	return round(max(base, partial, ptsor, ptser))
}
