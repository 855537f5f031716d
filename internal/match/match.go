// Package match holds the name-matching strategies used by the rules when
// comparing diagnoses to pre-existing conditions and sub-limit labels to
// charge categories. Inputs are expected to be normalized already.
package match

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Strategy names accepted by New.
const (
	StrategyExact = "exact"
	StrategyFuzzy = "fuzzy"
)

// DefaultMinTermLen is the PED substring threshold: a term must be longer
// than this to match inside a longer diagnosis.
const DefaultMinTermLen = 3

// Matcher reports whether candidate matches term.
type Matcher interface {
	Match(candidate, term string) bool
}

// Exact matches only identical strings.
type Exact struct{}

func (Exact) Match(candidate, term string) bool {
	return candidate != "" && candidate == term
}

// Substring matches identical strings, or a term that occurs inside the
// candidate. Terms of MinTermLen runes or fewer only match exactly. With
// Bidirectional set the candidate may also occur inside the term.
type Substring struct {
	MinTermLen    int
	Bidirectional bool
}

func (s Substring) Match(candidate, term string) bool {
	if candidate == "" || term == "" {
		return false
	}
	if candidate == term {
		return true
	}
	if utf8.RuneCountInString(term) > s.MinTermLen && strings.Contains(candidate, term) {
		return true
	}
	if s.Bidirectional && utf8.RuneCountInString(candidate) > s.MinTermLen && strings.Contains(term, candidate) {
		return true
	}
	return false
}

// Set is the pair of matchers the rule engine needs.
type Set struct {
	Condition Matcher // diagnosis vs pre-existing condition
	Category  Matcher // charge category vs sub-limit label
}

// Default returns the fuzzy matchers with the standard threshold.
func Default() Set {
	return Set{
		Condition: Substring{MinTermLen: DefaultMinTermLen},
		Category:  Substring{Bidirectional: true},
	}
}

// New builds a Set for the named strategy.
func New(strategy string, minTermLen int) (Set, error) {
	switch strategy {
	case "", StrategyFuzzy:
		return Set{
			Condition: Substring{MinTermLen: minTermLen},
			Category:  Substring{Bidirectional: true},
		}, nil
	case StrategyExact:
		return Set{Condition: Exact{}, Category: Exact{}}, nil
	default:
		return Set{}, fmt.Errorf("unknown match strategy %q", strategy)
	}
}
