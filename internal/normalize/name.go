// Package normalize derives the name keys used to match physicians across
// workbooks.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var spaceRe = regexp.MustCompile(`\s+`)

// Options selects optional normalization rules
type Options struct {
	// StripTitles drops periods and a leading "dr" token
	StripTitles bool
}

// Name normalizes a raw name cell. Anything that is not a string, including
// nil, yields "". Every literal "MD" and every comma is removed, then the
// result is trimmed and lowercased.
//
// "MD" is removed wherever it appears, so a name like "AMDur" loses it too.
func Name(v any) string {
	return Options{}.Name(v)
}

// Name normalizes v with the receiver's rules applied after the base rule.
func (o Options) Name(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}

	s = strings.ReplaceAll(s, "MD", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	// Caser is stateful, one per call
	s = cases.Lower(language.Und).String(s)

	if o.StripTitles {
		s = stripTitles(s)
	}
	return s
}

func stripTitles(s string) string {
	s = strings.ReplaceAll(s, ".", " ")
	s = strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
	if rest, ok := strings.CutPrefix(s, "dr "); ok {
		return rest
	}
	if s == "dr" {
		return ""
	}
	return s
}

// Column normalizes every value of a column. The second result lists rows
// whose key came out empty.
func (o Options) Column(values []any) ([]string, []int) {
	out := make([]string, len(values))
	var empty []int
	for i, v := range values {
		out[i] = o.Name(v)
		if out[i] == "" {
			empty = append(empty, i)
		}
	}
	return out, empty
}
