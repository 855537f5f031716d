package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/gyeh/claimaudit/internal/model"
)

const (
	minFallbackText = 10
	plausibleMin    = 1000.0
	plausibleMax    = 5000000.0
	rawTextLimit    = 200
)

const amountPattern = `([1-9][\d,]*(?:\.\d{1,2})?)`

// Ordered most specific first so dates and reference numbers are not taken
// for the bill total.
var totalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:total|grand\s+total|net\s+amount|final\s+amount)[\s:]+rs\.?\s*` + amountPattern),
	regexp.MustCompile(`(?i)(?:total|grand\s+total|net\s+amount|final\s+amount)[\s:]+₹\s*` + amountPattern),
	regexp.MustCompile(`(?i)total[\s:]+` + amountPattern),
	regexp.MustCompile(`(?i)amount[\s:]+` + amountPattern),
	regexp.MustCompile(`₹\s*` + amountPattern),
}

var coveragePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:sum\s+insured|coverage(?:\s+amount)?|sum\s+assured)[\s:]*(?:rs\.?|₹|inr)?\s*` + amountPattern),
}

// FallbackBill builds a minimal bill from raw text: one misc line item
// carrying the detected total. It returns nil only when the text is
// essentially empty.
func FallbackBill(text string, log zerolog.Logger) *model.Bill {
	if nonSpaceLen(text) < minFallbackText {
		return nil
	}

	total := 0.0
	for _, re := range totalPatterns {
		v, ok := lastAmount(re, text)
		if !ok {
			continue
		}
		if v >= plausibleMin && v <= plausibleMax {
			total = v
			break
		}
		if v > plausibleMax {
			log.Warn().Float64("amount", v).Msg("fallback total seems unusually high")
			total = v
			break
		}
	}

	raw := text
	if len([]rune(raw)) > rawTextLimit {
		raw = string([]rune(raw)[:rawTextLimit])
	}

	return &model.Bill{
		ID:           "BILL-FALLBACK",
		HospitalName: firstHeading(text, 5, "Unknown Hospital"),
		Diagnosis:    []string{},
		Charges: []model.LineItem{{
			ID:       "LI-FALLBACK-001",
			Label:    "Misc",
			Category: model.CategoryMisc,
			Amount:   total,
			RawText:  raw,
		}},
		StatedTotalAmount: total,
		Currency:          "INR",
	}
}

// FallbackPolicy builds a minimal policy from raw text: a coverage amount if
// one is printed, no pre-existing diseases and no limits.
func FallbackPolicy(text string) *model.Policy {
	if nonSpaceLen(text) < minFallbackText {
		return nil
	}
	p := &model.Policy{
		ID:          "POL-FALLBACK",
		InsurerName: firstHeading(text, 5, "Unknown Insurer"),
		PEDList:     []string{},
	}
	for _, re := range coveragePatterns {
		if v, ok := lastAmount(re, text); ok {
			p.CoverageAmount = v
			break
		}
	}
	return p
}

// lastAmount returns the last match of re in text, usually the final total
// at the bottom of a bill.
func lastAmount(re *regexp.Regexp, text string) (float64, bool) {
	matches := re.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return 0, false
	}
	s := strings.ReplaceAll(matches[len(matches)-1][1], ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func firstHeading(text string, maxLines int, def string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	for _, line := range lines {
		if l := strings.TrimSpace(line); l != "" && len(line) > 3 {
			return l
		}
	}
	return def
}

func nonSpaceLen(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
