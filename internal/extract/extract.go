// Package extract implements the raw pair extractor: it walks a rendered
// multibet page and pulls out candidate two-outcome odds pairs together with
// their market, game, and date context.
//
// The page contract is narrow: odds cells are td elements with the
// more-market-odds id, each carrying 2–3 selection links whose text encodes
// "<label> - <odds>". Market and game context live on preceding rows at fixed
// structural distances. Extraction is per-cell fault isolated; a cell that
// fails any step is skipped without affecting its siblings.
package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/arb-arena/arbscan/internal/arb"
	"github.com/arb-arena/arbscan/internal/models"
)

const (
	oddsCellSelector   = `td#more-market-odds`
	sportSelector      = `select.dd-select[name="sport"] option[selected]`
	defaultSport       = "Unknown Sport"
	defaultMarket      = "Unknown Market"
	defaultGame        = "Unknown Game"
	defaultDate        = "Unknown Date"
	drawOddsTolerance  = 1e-6
	excludedMarketWord = "Win"
)

var (
	addSelectionPattern = regexp.MustCompile(`addSelection\((.*)\);`)
	overHalfPattern     = regexp.MustCompile(`(?i)over\s*\+?0\.5`)
	underHalfPattern    = regexp.MustCompile(`(?i)under\s*\+?0\.5`)
)

// Extractor pulls candidate opportunities out of rendered competition pages.
type Extractor struct {
	bettingBaseURL string
}

// New creates an Extractor. bettingBaseURL is used to build per-pair detail
// URLs from the selection links' addSelection hooks.
func New(bettingBaseURL string) *Extractor {
	return &Extractor{bettingBaseURL: strings.TrimRight(bettingBaseURL, "/")}
}

// Pairs extracts all arbitrage candidates from one competition's page, in
// document order. Pairs whose implied probability sum reaches 100% are
// already excluded here; reconciliation may still reject survivors later.
func (e *Extractor) Pairs(doc *goquery.Document, compID int) []models.Opportunity {
	sport := sportName(doc)

	var out []models.Opportunity
	doc.Find(oddsCellSelector).Each(func(_ int, cell *goquery.Selection) {
		if opp, ok := e.pairFromCell(cell, sport, compID); ok {
			out = append(out, opp)
		}
	})
	return out
}

func (e *Extractor) pairFromCell(cell *goquery.Selection, sport string, compID int) (models.Opportunity, bool) {
	anchors := cell.Find("a")
	n := anchors.Length()
	if n < 2 || n > 3 {
		return models.Opportunity{}, false
	}

	left := anchors.Eq(0)
	right := anchors.Eq(1)
	if n == 3 {
		// A three-link cell is only usable when the middle link is the
		// non-bettable draw placeholder priced at exactly 1.00. True
		// three-way markets are rejected outright.
		midOdds, ok := trailingOdds(anchors.Eq(1).Text())
		if !ok || !withinDrawTolerance(midOdds) {
			return models.Opportunity{}, false
		}
		right = anchors.Eq(2)
	}

	market := marketName(cell)
	if strings.HasPrefix(market, excludedMarketWord) {
		return models.Opportunity{}, false
	}
	game, date := gameAndDate(cell)

	leftText := strings.TrimSpace(left.Text())
	rightText := strings.TrimSpace(right.Text())

	_, leftOdds, ok := splitSelection(leftText)
	if !ok {
		return models.Opportunity{}, false
	}
	_, rightOdds, ok := splitSelection(rightText)
	if !ok {
		return models.Opportunity{}, false
	}

	if strings.EqualFold(sport, "Baseball") && isHalfRunTotal(leftText+" "+rightText) {
		return models.Opportunity{}, false
	}

	pct := arb.MarketPercentage(leftOdds, rightOdds)
	if !arb.IsArbitrage(pct) {
		return models.Opportunity{}, false
	}

	match := leftText + " | " + rightText
	opp := models.Opportunity{
		Sport:            sport,
		Game:             game,
		Market:           market,
		Match:            match,
		Date:             date,
		DateISO:          dateISO(date),
		CompetitionID:    compID,
		MarketPercentage: arb.Round2(pct),
		ROI:              arb.Round6(arb.ROI(pct)),
		URL:              e.detailURL(left, compID),
		SearchPhrase:     SearchPhrase(match),
	}
	return opp, true
}

// sportName reads the selected option of the sport selector once per page.
func sportName(doc *goquery.Document) string {
	name := strings.TrimSpace(doc.Find(sportSelector).First().Text())
	if name == "" {
		return defaultSport
	}
	return name
}

// marketName walks up two row levels from the odds cell, then to the
// structurally preceding row, and reads its first link's text.
func marketName(cell *goquery.Selection) string {
	marketRow := cell.ParentsFiltered("tr").Eq(1).PrevAllFiltered("tr").First()
	name := strings.TrimSpace(marketRow.Find("a").First().Text())
	if name == "" {
		return defaultMarket
	}
	return name
}

// gameAndDate walks up three row levels, then to the preceding row; when that
// row has at least three cells, cell 1 holds the raw date text and cell 2 the
// game label.
func gameAndDate(cell *goquery.Selection) (game, date string) {
	game, date = defaultGame, defaultDate
	headerRow := cell.ParentsFiltered("tr").Eq(2).PrevAllFiltered("tr").First()
	cells := headerRow.Find("td")
	if cells.Length() >= 3 {
		if d := strings.TrimSpace(cells.Eq(1).Text()); d != "" {
			date = d
		}
		if g := strings.TrimSpace(cells.Eq(2).Text()); g != "" {
			game = g
		}
	}
	return game, date
}

// splitSelection splits "<label> - <odds>" on the last " - " separator. The
// label itself may contain hyphens; the odds value never does.
func splitSelection(text string) (label string, odds float64, ok bool) {
	i := strings.LastIndex(text, " - ")
	if i < 0 {
		return "", 0, false
	}
	label = strings.TrimSpace(text[:i])
	v, err := strconv.ParseFloat(strings.TrimSpace(text[i+3:]), 64)
	if err != nil || v <= 0 {
		return "", 0, false
	}
	return label, v, true
}

// trailingOdds parses the odds value after the last hyphen, used for the
// middle draw link where the full " - " separator is not guaranteed.
func trailingOdds(text string) (float64, bool) {
	i := strings.LastIndex(text, "-")
	if i < 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(text[i+1:]), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func withinDrawTolerance(odds float64) bool {
	diff := odds - 1.0
	return diff > -drawOddsTolerance && diff < drawOddsTolerance
}

// isHalfRunTotal reports whether a combined label text names both sides of a
// half-run total. These baseball markets are known to produce false arbitrage
// signals on the source site.
func isHalfRunTotal(combined string) bool {
	return overHalfPattern.MatchString(combined) && underHalfPattern.MatchString(combined)
}

// detailURL rebuilds the market detail URL from the selection link's
// addSelection onclick hook. Falls back to the competition's betting page
// when the hook is absent or malformed.
func (e *Extractor) detailURL(anchor *goquery.Selection, compID int) string {
	onclick, exists := anchor.Attr("onclick")
	if exists {
		if m := addSelectionPattern.FindStringSubmatch(onclick); m != nil {
			args := strings.Split(m[1], ",")
			if len(args) >= 7 {
				for i := range args {
					args[i] = strings.Trim(strings.TrimSpace(args[i]), "'")
				}
				marketID, competitionID, matchNumber, period, function := args[2], args[3], args[4], args[5], args[6]
				return fmt.Sprintf(
					"%s/betting?function=%s&competitionid=%s&period=%s&marketid=%s&matchnumber=%s&websiteid=1856&oddsType=&swif=&whitelabel=",
					e.bettingBaseURL, function, competitionID, period, marketID, matchNumber,
				)
			}
		}
	}
	return fmt.Sprintf("%s/betting?competitionid=%d", e.bettingBaseURL, compID)
}

// SearchPhrase derives the label used to re-locate a market on its detail
// page: the right-hand selection's label, with "+" removed for Under lines
// (the detail page renders the line without the plus sign).
func SearchPhrase(match string) string {
	parts := strings.SplitN(match, "|", 2)
	if len(parts) != 2 {
		return match
	}
	right := strings.TrimSpace(parts[1])
	phrase := right
	if i := strings.LastIndex(right, " - "); i >= 0 {
		phrase = strings.TrimSpace(right[:i])
	}
	if strings.Contains(phrase, "Under") {
		phrase = strings.ReplaceAll(phrase, "+", "")
	}
	return phrase
}

var isoLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// dateISO normalizes a raw venue-local date to "YYYY-MM-DD", best effort.
// Returns the empty string when no known layout matches.
func dateISO(raw string) string {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	if t, err := time.Parse("02/01/2006 15:04", raw); err == nil {
		return t.Format("2006-01-02")
	}
	return ""
}
