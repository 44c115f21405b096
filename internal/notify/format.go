package notify

import (
	"fmt"
	"strings"

	"github.com/arb-arena/arbscan/internal/models"
)

// FormatMessage renders the alert text for a batch of new hits. Hits beyond
// the cap are omitted from the message body but counted in the header.
func FormatMessage(hits []models.Opportunity, thresholdPct float64, limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New arbs over threshold (%.1f%%)", thresholdPct)
	if limit > 0 && len(hits) > limit {
		fmt.Fprintf(&b, " — showing %d of %d", limit, len(hits))
		hits = hits[:limit]
	}
	b.WriteString("\n")

	for _, hit := range hits {
		b.WriteString("\n")
		b.WriteString(formatHit(&hit))
		b.WriteString("\n")
	}
	return b.String()
}

// formatHit renders one opportunity as a five-line block:
//
//	⚡ Basketball
//	Alpha vs Beta — Total Points
//	Over 200.5 - 1.90 | Under 200.5 - 2.10
//	Sportsbet @ 1.90  |  TAB @ 2.12
//	ROI: 2.15%  |  01/09/2026 19:30
func formatHit(o *models.Opportunity) string {
	lines := []string{
		"⚡ " + o.Sport,
		fmt.Sprintf("%s — %s", o.Game, o.Market),
		o.Match,
	}
	if o.BookTable != nil && o.BookTable.Best.Left != nil && o.BookTable.Best.Right != nil {
		lines = append(lines, fmt.Sprintf("%s @ %.2f  |  %s @ %.2f",
			o.BookTable.Best.Left.Agency, o.BookTable.Best.Left.Odds,
			o.BookTable.Best.Right.Agency, o.BookTable.Best.Right.Odds,
		))
	}
	date := o.Date
	if date == "" {
		date = o.DateISO
	}
	lines = append(lines, fmt.Sprintf("ROI: %.2f%%  |  %s", o.ROI*100, date))
	return strings.Join(lines, "\n")
}
