// Package discovery probes competition IDs for populated betting pages. Each
// probe is an independent, side-effect-free HTTP read; a fixed worker pool
// fans the IDs out and every worker writes only its own result slot.
package discovery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
)

// Markers indicating a populated page: the selection JS hook, or a rendered
// odds cell.
var selectionHook = regexp.MustCompile(`addSelection\s*\(`)

const oddsCellMarker = `id="more-market-odds"`

const probeUserAgent = "Mozilla/5.0 (compatible; ArbScan/1.0)"

// Prober checks which competition IDs currently serve odds.
type Prober struct {
	baseURL string
	client  *http.Client
}

// NewProber creates a Prober against the betting base URL, with a
// per-request timeout.
func NewProber(baseURL string, timeout time.Duration) *Prober {
	return &Prober{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Result is the discovery run's output payload.
type Result struct {
	DiscoveredAt  time.Time `json:"discoveredAt"`
	Range         string    `json:"range"`
	Skip          []int     `json:"skip"`
	ActiveCompIDs []int     `json:"activeCompIDs"`
}

// Active probes all candidate IDs with the given number of workers and
// returns the populated ones, sorted. A probe failure counts as inactive;
// the run is never aborted by one bad ID.
func (p *Prober) Active(ctx context.Context, ids []int, workers int) []int {
	if workers <= 0 {
		workers = 1
	}
	if workers > len(ids) {
		workers = len(ids)
	}

	active := make([]bool, len(ids))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				active[i] = p.hasOdds(ctx, ids[i])
			}
		}()
	}

	for i := range ids {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var found []int
	for i, ok := range active {
		if ok {
			found = append(found, ids[i])
		}
	}
	sort.Ints(found)
	return found
}

// hasOdds fetches one competition's betting page and scans for markers.
func (p *Prober) hasOdds(ctx context.Context, compID int) bool {
	url := fmt.Sprintf("%s/betting?competitionid=%d", p.baseURL, compID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", probeUserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return false
	}

	html := string(body)
	return selectionHook.MatchString(html) || strings.Contains(html, oddsCellMarker)
}
