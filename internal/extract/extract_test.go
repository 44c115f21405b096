package extract

import (
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

// page builds a rendered competition page with one market section. The odds
// cell sits three row levels deep so the market row and the game/date row land
// at the structural distances the extractor walks.
func page(sport, market, date, game, cellHTML string) string {
	return fmt.Sprintf(`<html><body>
<select class="dd-select" name="sport"><option selected>%s</option></select>
<table>
  <tr><td>h</td><td>%s</td><td>%s</td></tr>
  <tr><td>
    <table>
      <tr><td><a href="#">%s</a></td></tr>
      <tr><td>
        <table>
          <tr>%s</tr>
        </table>
      </td></tr>
    </table>
  </td></tr>
</table>
</body></html>`, sport, date, game, market, cellHTML)
}

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

const twoWayCell = `<td id="more-market-odds">
<a href="#" onclick="addSelection(this, 0, '9001', '123', '3', '0', '1');">Over 180.5 - 2.10</a>
<a href="#">Under 180.5 - 2.10</a>
</td>`

func TestPairsTwoOutcomeCell(t *testing.T) {
	doc := parse(t, page("Basketball", "Total Points", "01/09/2026 19:30", "Alpha vs Beta", twoWayCell))
	e := New("https://example.com")

	opps := e.Pairs(doc, 10)
	if len(opps) != 1 {
		t.Fatalf("got %d opportunities, want 1", len(opps))
	}
	o := opps[0]
	if o.Sport != "Basketball" {
		t.Errorf("sport = %q", o.Sport)
	}
	if o.Market != "Total Points" {
		t.Errorf("market = %q", o.Market)
	}
	if o.Game != "Alpha vs Beta" {
		t.Errorf("game = %q", o.Game)
	}
	if o.Date != "01/09/2026 19:30" {
		t.Errorf("date = %q", o.Date)
	}
	if o.DateISO != "2026-09-01" {
		t.Errorf("dateISO = %q", o.DateISO)
	}
	if o.Match != "Over 180.5 - 2.10 | Under 180.5 - 2.10" {
		t.Errorf("match = %q", o.Match)
	}
	if o.CompetitionID != 10 {
		t.Errorf("competitionID = %d", o.CompetitionID)
	}
	// (1/2.10 + 1/2.10) × 100 = 95.24 after rounding; ROI = 0.05.
	if o.MarketPercentage != 95.24 {
		t.Errorf("marketPercentage = %v", o.MarketPercentage)
	}
	if o.ROI != 0.05 {
		t.Errorf("roi = %v", o.ROI)
	}
	if o.SearchPhrase != "Under 180.5" {
		t.Errorf("searchPhrase = %q", o.SearchPhrase)
	}
	want := "https://example.com/betting?function=1&competitionid=123&period=0&marketid=9001&matchnumber=3&websiteid=1856&oddsType=&swif=&whitelabel="
	if o.URL != want {
		t.Errorf("url = %q, want %q", o.URL, want)
	}
}

func TestPairsThreeLinkDrawPlaceholder(t *testing.T) {
	// Middle link priced at exactly 1.00 is the non-bettable placeholder; the
	// cell reduces to its outer pair.
	cell := `<td id="more-market-odds">
<a href="#">Home - 1.90</a>
<a href="#">Draw - 1.00</a>
<a href="#">Away - 2.30</a>
</td>`
	doc := parse(t, page("Soccer", "Match Result Line", "01/09/2026 19:30", "Alpha vs Beta", cell))
	opps := New("https://example.com").Pairs(doc, 10)
	if len(opps) != 1 {
		t.Fatalf("got %d opportunities, want 1", len(opps))
	}
	if opps[0].Match != "Home - 1.90 | Away - 2.30" {
		t.Errorf("match = %q", opps[0].Match)
	}
}

func TestPairsThreeWayMarketRejected(t *testing.T) {
	cell := `<td id="more-market-odds">
<a href="#">Home - 1.90</a>
<a href="#">Draw - 3.40</a>
<a href="#">Away - 1.95</a>
</td>`
	doc := parse(t, page("Soccer", "Match Result", "01/09/2026 19:30", "Alpha vs Beta", cell))
	if opps := New("https://example.com").Pairs(doc, 10); len(opps) != 0 {
		t.Fatalf("three-way market must be rejected, got %d", len(opps))
	}
}

func TestPairsWinMarketExcluded(t *testing.T) {
	doc := parse(t, page("Basketball", "Win Margin", "01/09/2026 19:30", "Alpha vs Beta", twoWayCell))
	if opps := New("https://example.com").Pairs(doc, 10); len(opps) != 0 {
		t.Fatalf("market with Win prefix must be excluded, got %d", len(opps))
	}
}

func TestPairsBaseballHalfRunTotalExcluded(t *testing.T) {
	cell := `<td id="more-market-odds">
<a href="#">Over 0.5 - 2.05</a>
<a href="#">Under 0.5 - 2.05</a>
</td>`
	doc := parse(t, page("Baseball", "First Inning Runs", "01/09/2026 19:30", "Alpha vs Beta", cell))
	if opps := New("https://example.com").Pairs(doc, 10); len(opps) != 0 {
		t.Fatalf("baseball half-run total must be excluded, got %d", len(opps))
	}

	// The same pair outside Baseball is kept.
	doc = parse(t, page("Cricket", "First Over Runs", "01/09/2026 19:30", "Alpha vs Beta", cell))
	if opps := New("https://example.com").Pairs(doc, 10); len(opps) != 1 {
		t.Fatalf("non-baseball half total should survive, got %d", len(opps))
	}
}

func TestPairsNonArbitrageRejected(t *testing.T) {
	cell := `<td id="more-market-odds">
<a href="#">Over 180.5 - 1.90</a>
<a href="#">Under 180.5 - 2.10</a>
</td>`
	doc := parse(t, page("Basketball", "Total Points", "01/09/2026 19:30", "Alpha vs Beta", cell))
	if opps := New("https://example.com").Pairs(doc, 10); len(opps) != 0 {
		t.Fatalf("pair summing above 100%% must be rejected, got %d", len(opps))
	}
}

func TestPairsMalformedCellSkipped(t *testing.T) {
	cells := []string{
		`<td id="more-market-odds"><a href="#">Only One - 2.10</a></td>`,
		`<td id="more-market-odds"><a href="#">No Separator 2.10</a><a href="#">Under - 2.10</a></td>`,
		`<td id="more-market-odds"><a href="#">Over - susp</a><a href="#">Under - 2.10</a></td>`,
	}
	for i, cell := range cells {
		doc := parse(t, page("Basketball", "Total Points", "01/09/2026 19:30", "Alpha vs Beta", cell))
		if opps := New("https://example.com").Pairs(doc, 10); len(opps) != 0 {
			t.Errorf("cell %d: malformed cell must be skipped, got %d", i, len(opps))
		}
	}
}

func TestPairsMissingContextDefaults(t *testing.T) {
	// A cell with no surrounding market or game rows still extracts, with
	// placeholder context, except the market default starts with no Win prefix.
	html := `<html><body><table><tr><td id="more-market-odds">
<a href="#">Over 180.5 - 2.10</a>
<a href="#">Under 180.5 - 2.10</a>
</td></tr></table></body></html>`
	doc := parse(t, html)
	opps := New("https://example.com").Pairs(doc, 10)
	if len(opps) != 1 {
		t.Fatalf("got %d opportunities, want 1", len(opps))
	}
	o := opps[0]
	if o.Sport != "Unknown Sport" || o.Market != "Unknown Market" || o.Game != "Unknown Game" || o.Date != "Unknown Date" {
		t.Errorf("unexpected defaults: %+v", o)
	}
	if o.DateISO != "" {
		t.Errorf("dateISO should be empty for unparseable date, got %q", o.DateISO)
	}
	if o.URL != "https://example.com/betting?competitionid=10" {
		t.Errorf("fallback url = %q", o.URL)
	}
}

func TestSearchPhrase(t *testing.T) {
	tests := []struct {
		match, want string
	}{
		{"Over 180.5 - 2.10 | Under 180.5 - 2.10", "Under 180.5"},
		{"Over +0.5 - 2.05 | Under +0.5 - 2.05", "Under 0.5"},
		{"Home - 1.90 | Away - 2.30", "Away"},
		{"no separator here", "no separator here"},
	}
	for _, tt := range tests {
		if got := SearchPhrase(tt.match); got != tt.want {
			t.Errorf("SearchPhrase(%q) = %q, want %q", tt.match, got, tt.want)
		}
	}
}
