// Package models defines the core domain entities for the arbscan application.
// These models represent detected arbitrage opportunities, per-agency odds
// tables, and the snapshot payload persisted after every scan run.
//
// Terminology (matching the odds source's own naming):
//   - Market: one betting market within a game, e.g. "Total Points".
//   - Match label: the paired selections, "Outcome1 @ odds1 | Outcome2 @ odds2".
//   - Book table: the per-agency odds listing found on a market's detail page.
package models

import (
	"errors"
	"sort"
	"time"
)

// Opportunity is one detected two-sided betting pair whose implied
// probabilities sum below 100%. It is created by the extractor, optionally
// enriched with a BestOddsTable by the reconciler, and never mutated after
// enrichment.
type Opportunity struct {
	Sport            string         `json:"sport"`
	Game             string         `json:"game"`
	Market           string         `json:"market"`
	Match            string         `json:"match"`
	Date             string         `json:"date"`
	DateISO          string         `json:"dateISO,omitempty"`
	CompetitionID    int            `json:"competitionId"`
	MarketPercentage float64        `json:"marketPercentage"`
	ROI              float64        `json:"roi"`
	URL              string         `json:"url,omitempty"`
	SearchPhrase     string         `json:"searchPhrase"`
	BookTable        *BestOddsTable `json:"bookTable,omitempty"`
}

// Validate checks that all opportunity fields are valid.
func (o *Opportunity) Validate() error {
	if o.Sport == "" {
		return errors.New("sport must not be empty")
	}
	if o.Market == "" {
		return errors.New("market must not be empty")
	}
	if o.Match == "" {
		return errors.New("match label must not be empty")
	}
	if o.CompetitionID <= 0 {
		return errors.New("competition ID must be positive")
	}
	if o.MarketPercentage <= 0 {
		return errors.New("market percentage must be positive")
	}
	if o.MarketPercentage >= 100.0 {
		return errors.New("market percentage must be strictly below 100")
	}
	if o.ROI <= 0 {
		return errors.New("roi must be positive for an arbitrage pair")
	}
	return nil
}

// AgencyQuote is one row of a BestOddsTable: a single agency's odds for both
// sides of the market. Left and Right keep the raw cell text so that
// non-numeric placeholders ("susp", "-") survive the round trip.
type AgencyQuote struct {
	Agency     string `json:"agency"`
	Left       string `json:"left"`
	Right      string `json:"right"`
	Updated    string `json:"updated,omitempty"`
	UpdatedISO string `json:"updatedISO,omitempty"`
}

// BestQuote names the agency offering the maximum odds for one side.
type BestQuote struct {
	Agency string  `json:"agency"`
	Odds   float64 `json:"odds"`
}

// BestOdds holds the per-side winners of the best-odds scan. A nil side means
// no parseable odds were found for it.
type BestOdds struct {
	Left  *BestQuote `json:"left,omitempty"`
	Right *BestQuote `json:"right,omitempty"`
}

// BestOddsTable is the per-agency odds table attached to an Opportunity after
// reconciliation. Headers always has four labels: the agency column, the two
// outcome labels, and "Updated". Best odds follow first-seen-wins on ties.
type BestOddsTable struct {
	Headers []string      `json:"headers"`
	Rows    []AgencyQuote `json:"rows"`
	Best    BestOdds      `json:"best"`
}

// Validate checks the table's structural invariants.
func (t *BestOddsTable) Validate() error {
	if len(t.Headers) != 4 {
		return errors.New("best odds table must have exactly 4 headers")
	}
	if len(t.Rows) == 0 {
		return errors.New("best odds table must have at least one row")
	}
	if t.Best.Left != nil && t.Best.Left.Odds <= 0 {
		return errors.New("best left odds must be positive")
	}
	if t.Best.Right != nil && t.Best.Right.Odds <= 0 {
		return errors.New("best right odds must be positive")
	}
	return nil
}

// OpportunitySet is the full output payload for one scan run. It replaces the
// prior snapshot wholesale when persisted.
type OpportunitySet struct {
	LastUpdated time.Time     `json:"lastUpdated"`
	Items       []Opportunity `json:"items"`
}

// SortByROI orders items by descending ROI. This is a final output guarantee;
// items are collected in document order during the run.
func (s *OpportunitySet) SortByROI() {
	sort.SliceStable(s.Items, func(i, j int) bool {
		return s.Items[i].ROI > s.Items[j].ROI
	})
}
