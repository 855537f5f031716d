package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Money values travel as float64 (JSON friendly) and are summed as decimals so
// repeated additions do not drift. Results are rounded to paise.
const moneyPlaces = 2

var currencyNoise = regexp.MustCompile(`(?i)(₹|inr|rs\.?|,|\s)`)

var printer = message.NewPrinter(language.English)

// Dec converts a float amount to a decimal.
func Dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// Sum adds amounts exactly.
func Sum(amounts ...float64) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}
	return total
}

// Percent returns base * pct / 100.
func Percent(base, pct float64) decimal.Decimal {
	return Dec(base).Mul(Dec(pct)).Div(decimal.NewFromInt(100))
}

// ToFloat rounds d to two places and returns it as a float64.
func ToFloat(d decimal.Decimal) float64 {
	return d.Round(moneyPlaces).InexactFloat64()
}

// amountSuffixes are trailing unit markers, matched after currencyNoise has
// removed spaces.
var amountSuffixes = []string{"/day", "perday", "/-"}

// ParseAmount reads a currency string such as "₹1,50,000.00", "Rs. 3000" or
// "₹3,000 per day". Returns ok=false when nothing numeric remains.
func ParseAmount(s string) (float64, bool) {
	s = strings.ToLower(currencyNoise.ReplaceAllString(s, ""))
	for _, suffix := range amountSuffixes {
		s = strings.TrimSuffix(s, suffix)
	}
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// FormatAmount renders v with thousands separators and no fraction, e.g. "150,000".
func FormatAmount(v float64) string {
	return printer.Sprintf("%.0f", v)
}
