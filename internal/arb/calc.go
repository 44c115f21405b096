// Package arb provides the arbitrage arithmetic: implied market percentage,
// return on investment, and odds-text parsing. All functions are pure; the
// strict sub-100% test always runs on unrounded values.
package arb

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var decimalPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// MarketPercentage returns the sum of implied probabilities of a two-sided
// market, expressed as a percentage: (1/left + 1/right) × 100.
func MarketPercentage(left, right float64) float64 {
	return (1/left + 1/right) * 100
}

// ROI returns the fractional profit achievable by staking proportionally
// across a pair with the given market percentage.
func ROI(marketPct float64) float64 {
	return 1/(marketPct/100) - 1
}

// IsArbitrage reports whether a market percentage indicates an arbitrage.
// The boundary is strict: exactly 100.0 is not an arbitrage.
func IsArbitrage(marketPct float64) bool {
	return marketPct < 100.0
}

// ParseOdds converts odds text to a float. Direct conversion is tried first;
// failing that, the last decimal-looking substring in the text is used (cells
// sometimes carry prefixes or trailing markup fragments). Non-positive values
// are rejected.
func ParseOdds(text string) (float64, bool) {
	s := strings.TrimSpace(text)
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, v > 0
	}
	matches := decimalPattern.FindAllString(s, -1)
	if len(matches) == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(matches[len(matches)-1], 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// Round2 rounds to 2 decimal places (market percentage storage precision).
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round6 rounds to 6 decimal places (ROI storage precision).
func Round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
