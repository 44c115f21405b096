// Command discover probes a range of competition IDs and reports which ones
// currently serve odds. The active list is printed comma-separated to stdout
// for easy piping into environment files, and optionally written as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/arb-arena/arbscan/internal/config"
	"github.com/arb-arena/arbscan/internal/discovery"
)

var (
	idRange = flag.String("range", "1-150", `ID range/list, e.g. "1-150" or "1-20,40,41"`)
	skip    = flag.String("skip", "72,73,108,114", "Comma-separated IDs to skip")
	baseURL = flag.String("base-url", "http://odds.aussportsbetting.com", "Betting site base URL")
	outPath = flag.String("out", "", "Optional path for the JSON result")
	workers = flag.Int("workers", 16, "Concurrent probe workers")
	timeout = flag.Duration("timeout", 10*time.Second, "Per-request timeout")
)

func main() {
	flag.Parse()

	skipIDs, err := parseSkip(*skip)
	if err != nil {
		log.Fatalf("Invalid skip list: %v", err)
	}
	ids, err := config.ParseCompIDs(*idRange, skipIDs)
	if err != nil {
		log.Fatalf("Invalid range: %v", err)
	}

	start := time.Now()
	prober := discovery.NewProber(*baseURL, *timeout)
	active := prober.Active(context.Background(), ids, *workers)

	fmt.Println(joinInts(active))

	if *outPath != "" {
		result := discovery.Result{
			DiscoveredAt:  time.Now().UTC(),
			Range:         *idRange,
			Skip:          skipIDs,
			ActiveCompIDs: active,
		}
		if err := writeResult(*outPath, &result); err != nil {
			log.Fatalf("Failed to write result: %v", err)
		}
	}

	fmt.Fprintf(os.Stderr, "Discovered %d active IDs in %.1fs\n",
		len(active), time.Since(start).Seconds())
}

func parseSkip(spec string) ([]int, error) {
	var out []int
	for _, piece := range strings.Split(spec, ",") {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		var id int
		if _, err := fmt.Sscanf(piece, "%d", &id); err != nil {
			return nil, fmt.Errorf("invalid ID %q", piece)
		}
		out = append(out, id)
	}
	sort.Ints(out)
	return out, nil
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ",")
}

func writeResult(path string, result *discovery.Result) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
