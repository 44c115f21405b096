// Package reconcile re-verifies extracted opportunities against the
// per-agency odds table on a market's detail page. It locates the market's
// sub-table by search phrase, parses it under one of three recognized
// layouts, selects the best odds per side, and recomputes the arbitrage
// figures from those best odds.
//
// This is the confirming half of the pipeline's two-stage check: extractor
// odds can be stale or non-best, so no opportunity is reported unless
// reconciliation succeeds and the recomputed market percentage is still
// below 100%.
package reconcile

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/arb-arena/arbscan/internal/arb"
	"github.com/arb-arena/arbscan/internal/models"
)

// Layout indices into a data row's cells. An updated index of -1 means the
// layout carries no updated-time column.
type layout struct {
	leftHeader  int
	rightHeader int
	agency      int
	left        int
	right       int
	updated     int
}

var (
	wideLayout   = layout{leftHeader: 2, rightHeader: 4, agency: 0, left: 1, right: 3, updated: -1}
	lineLayout   = layout{leftHeader: 1, rightHeader: 3, agency: 0, left: 1, right: 3, updated: 4}
	normalLayout = layout{leftHeader: -2, rightHeader: -1, agency: 0, left: 1, right: 2, updated: 3}
)

var (
	countUpPattern = regexp.MustCompile(`countUpFromTime\(\s*(\d{10,})`)
	clockPattern   = regexp.MustCompile(`\b([01]?\d|2[0-3]):[0-5]\d\b`)
)

// excludedAgency marks a synthetic, non-tradable quote; its presence
// contaminates the whole market.
const excludedAgency = "bookmaker"

// Apply reconciles one opportunity against its detail page. It returns false
// when the opportunity must be discarded: a bookmaker-contaminated table, or
// a recomputed market percentage at or above 100%. When the search phrase
// cannot be located at all the opportunity passes through unmodified —
// unverifiable, not wrong.
func Apply(opp *models.Opportunity, doc *goquery.Document) bool {
	table, found := BuildTable(doc, opp.SearchPhrase)
	if !found {
		return true
	}

	for _, row := range table.Rows {
		if models.NormalizeAgency(row.Agency) == excludedAgency {
			return false
		}
	}

	if table.Best.Left != nil && table.Best.Right != nil &&
		table.Best.Left.Odds > 0 && table.Best.Right.Odds > 0 {
		pct := arb.MarketPercentage(table.Best.Left.Odds, table.Best.Right.Odds)
		if !arb.IsArbitrage(pct) {
			return false
		}
		opp.MarketPercentage = arb.Round2(pct)
		opp.ROI = arb.Round6(arb.ROI(pct))
	}

	opp.BookTable = table
	return true
}

// BuildTable locates the market sub-table anchored by the given search phrase
// and parses it into a BestOddsTable. The second return value is false when
// the phrase cannot be found or the table has no data rows.
func BuildTable(doc *goquery.Document, phrase string) (*models.BestOddsTable, bool) {
	anchor := findAnchor(doc, phrase)
	if anchor == nil {
		return nil, false
	}

	following := anchor.NextAllFiltered("tr")
	lay := detectLayout(anchor, following)

	headers := tableHeaders(anchor, lay)
	rows := collectRows(following, lay)
	if len(rows) == 0 {
		return nil, false
	}

	table := &models.BestOddsTable{
		Headers: headers,
		Rows:    rows,
		Best:    bestPerSide(rows),
	}
	return table, true
}

// findAnchor returns the first row whose label cell contains the phrase,
// case-insensitively. Market subheading rows carry a selection link in their
// label cell, which distinguishes them from agency data rows.
func findAnchor(doc *goquery.Document, phrase string) *goquery.Selection {
	needle := strings.ToLower(phrase)
	var anchor *goquery.Selection
	doc.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if !isSubheading(row) {
			return true
		}
		label := strings.ToLower(strings.TrimSpace(rowCells(row).Eq(0).Text()))
		if strings.Contains(label, needle) {
			anchor = row
			return false
		}
		return true
	})
	return anchor
}

// isSubheading reports whether a row is a market subheading: its first cell
// holds a link rather than plain agency text.
func isSubheading(row *goquery.Selection) bool {
	cells := rowCells(row)
	return cells.Length() > 0 && cells.Eq(0).Find("a").Length() > 0
}

func rowCells(row *goquery.Selection) *goquery.Selection {
	return row.ChildrenFiltered("td, th")
}

// detectLayout chooses the table layout from two structural signals: the
// anchor row's cell count, and the first non-blank following row's cell
// count. Wide main-market tables have oversized anchor rows; line/draw
// tables have five-cell data rows; everything else is the normal four-cell
// shape.
func detectLayout(anchor, following *goquery.Selection) layout {
	if rowCells(anchor).Length() > 5 {
		return wideLayout
	}
	dataCells := 0
	following.EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if isBlankRow(row) {
			return true
		}
		dataCells = rowCells(row).Length()
		return false
	})
	if dataCells == 5 {
		return lineLayout
	}
	return normalLayout
}

// tableHeaders assembles the fixed four-label header sequence. Negative
// layout indices count from the end of the anchor row (the permissive
// normal-layout variant).
func tableHeaders(anchor *goquery.Selection, lay layout) []string {
	cells := rowCells(anchor)
	return []string{
		"Agency",
		strings.TrimSpace(cells.Eq(headerIndex(lay.leftHeader, cells.Length())).Text()),
		strings.TrimSpace(cells.Eq(headerIndex(lay.rightHeader, cells.Length())).Text()),
		"Updated",
	}
}

func headerIndex(i, n int) int {
	if i < 0 {
		return n + i
	}
	return i
}

// collectRows walks the rows after the anchor, skipping blank spacer rows,
// until the next subheading marks the end of this market's table.
func collectRows(following *goquery.Selection, lay layout) []models.AgencyQuote {
	minCells := lay.right + 1
	if lay.updated >= 0 && lay.updated+1 > minCells {
		minCells = lay.updated + 1
	}

	var rows []models.AgencyQuote
	following.EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if isBlankRow(row) {
			return true
		}
		if isSubheading(row) {
			return false
		}
		cells := rowCells(row)
		if cells.Length() < minCells {
			return true
		}
		agency := models.CleanAgencyName(cells.Eq(lay.agency).Text())
		if agency == "" {
			return true
		}
		quote := models.AgencyQuote{
			Agency: agency,
			Left:   strings.TrimSpace(cells.Eq(lay.left).Text()),
			Right:  strings.TrimSpace(cells.Eq(lay.right).Text()),
		}
		if lay.updated >= 0 {
			quote.Updated, quote.UpdatedISO = updatedTime(cells.Eq(lay.updated))
		}
		rows = append(rows, quote)
		return true
	})
	return rows
}

func isBlankRow(row *goquery.Selection) bool {
	return strings.TrimSpace(row.Text()) == ""
}

// updatedTime extracts the quote's updated time from a cell. The embedded
// epoch-millisecond timing directive is authoritative when present; the
// cell's directly-owned text is scanned for an HH:MM pattern otherwise, and
// the raw text is kept verbatim as the last resort.
func updatedTime(cell *goquery.Selection) (display, iso string) {
	if html, err := cell.Html(); err == nil {
		if m := countUpPattern.FindStringSubmatch(html); m != nil {
			if ms, err := strconv.ParseInt(m[1], 10, 64); err == nil {
				t := time.UnixMilli(ms).UTC()
				return t.Format("15:04"), t.Format(time.RFC3339)
			}
		}
	}

	own := ownText(cell)
	if m := clockPattern.FindString(own); m != "" {
		return m, ""
	}
	return strings.TrimSpace(cell.Text()), ""
}

// ownText concatenates the cell's direct text nodes, excluding nested markup.
func ownText(cell *goquery.Selection) string {
	var b strings.Builder
	cell.Contents().Each(func(_ int, n *goquery.Selection) {
		if goquery.NodeName(n) == "#text" {
			b.WriteString(n.Text())
		}
	})
	return b.String()
}

// bestPerSide scans all rows and keeps the maximum parseable odds per side.
// Ties keep the first row encountered.
func bestPerSide(rows []models.AgencyQuote) models.BestOdds {
	var best models.BestOdds
	for _, row := range rows {
		if v, ok := arb.ParseOdds(row.Left); ok {
			if best.Left == nil || v > best.Left.Odds {
				best.Left = &models.BestQuote{Agency: row.Agency, Odds: v}
			}
		}
		if v, ok := arb.ParseOdds(row.Right); ok {
			if best.Right == nil || v > best.Right.Odds {
				best.Right = &models.BestQuote{Agency: row.Agency, Odds: v}
			}
		}
	}
	return best
}
