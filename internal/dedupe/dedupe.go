// Package dedupe decides which opportunities are worth notifying: at or
// above the ROI threshold, reconciled against allow-listed agencies on both
// sides, and not previously seen. Seen keys are stable identity fingerprints
// persisted between runs so the same real-world market is never renotified.
package dedupe

import (
	"sort"
	"strconv"
	"strings"

	"github.com/arb-arena/arbscan/internal/models"
)

// Key builds the canonical identity key for an opportunity: pipe-joined,
// lower-cased, whitespace-trimmed competition ID, sport, game, market, and
// match label, plus the ISO date when available (raw date otherwise, kept
// verbatim).
func Key(o *models.Opportunity) string {
	date := o.DateISO
	if date == "" {
		date = o.Date
	}
	parts := []string{
		strconv.Itoa(o.CompetitionID),
		fold(o.Sport),
		fold(o.Game),
		fold(o.Market),
		fold(o.Match),
		date,
	}
	return strings.Join(parts, "|")
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SeenKeys is the process-wide set of already-notified identity keys. It is
// loaded once at start of run, only ever grows, and is written back in full
// at end of run.
type SeenKeys struct {
	keys map[string]struct{}
}

// NewSeenKeys builds the set from a persisted key list.
func NewSeenKeys(keys []string) *SeenKeys {
	s := &SeenKeys{keys: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		s.keys[k] = struct{}{}
	}
	return s
}

// Has reports whether the key has already triggered a notification.
func (s *SeenKeys) Has(key string) bool {
	_, ok := s.keys[key]
	return ok
}

// Add records a key as seen.
func (s *SeenKeys) Add(key string) {
	s.keys[key] = struct{}{}
}

// Sorted returns all keys in sorted order, the persisted format.
func (s *SeenKeys) Sorted() []string {
	out := make([]string, 0, len(s.keys))
	for k := range s.keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Filter selects new notifiable opportunities from a scan's output.
type Filter struct {
	threshold float64
	allowed   map[string]struct{}
}

// NewFilter creates a Filter with the given ROI threshold fraction and
// allow-listed counterparty names. Allow-list entries are normalized with
// the same rules applied to reconciled agency names.
func NewFilter(threshold float64, allowed []string) *Filter {
	f := &Filter{threshold: threshold, allowed: make(map[string]struct{}, len(allowed))}
	for _, name := range allowed {
		if n := models.NormalizeAgency(name); n != "" {
			f.allowed[n] = struct{}{}
		}
	}
	return f
}

// Select returns the opportunities that clear the ROI threshold, have both
// best-odds agencies in the allow-list, and are not yet in seen. Every
// selected key is added to seen, so feeding the same set through twice
// yields nothing the second time. Results are sorted by descending ROI; any
// display cap is the notifier's concern, not this filter's.
func (f *Filter) Select(set *models.OpportunitySet, seen *SeenKeys) []models.Opportunity {
	var hits []models.Opportunity
	for _, item := range set.Items {
		if item.ROI < f.threshold {
			continue
		}
		if !f.allowedPair(item.BookTable) {
			continue
		}
		key := Key(&item)
		if seen.Has(key) {
			continue
		}
		seen.Add(key)
		hits = append(hits, item)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].ROI > hits[j].ROI
	})
	return hits
}

// allowedPair requires a reconciled table with best odds on both sides, each
// offered by an allow-listed agency. Unreconciled opportunities never pass:
// reporting requires confirmation against current best-of-market prices.
func (f *Filter) allowedPair(table *models.BestOddsTable) bool {
	if table == nil || table.Best.Left == nil || table.Best.Right == nil {
		return false
	}
	if table.Best.Left.Agency == "" || table.Best.Right.Agency == "" ||
		table.Best.Left.Odds <= 0 || table.Best.Right.Odds <= 0 {
		return false
	}
	if _, ok := f.allowed[models.NormalizeAgency(table.Best.Left.Agency)]; !ok {
		return false
	}
	if _, ok := f.allowed[models.NormalizeAgency(table.Best.Right.Agency)]; !ok {
		return false
	}
	return true
}
