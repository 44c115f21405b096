package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"sync/atomic"
	"testing"
	"time"
)

// oddsServer serves a populated betting page for the given competition IDs
// and an empty shell for everything else.
func oddsServer(t *testing.T, populated map[int]string) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Path != "/betting" {
			http.NotFound(w, r)
			return
		}
		id, err := strconv.Atoi(r.URL.Query().Get("competitionid"))
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		body, ok := populated[id]
		if !ok {
			body = "<html><body><p>No markets available</p></body></html>"
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestActiveFindsPopulatedPages(t *testing.T) {
	srv, requests := oddsServer(t, map[int]string{
		3: `<html><body><a onclick="addSelection(this, 0, '1', '3', '1', '0', '1');">x</a></body></html>`,
		7: `<html><body><table><tr><td id="more-market-odds"></td></tr></table></body></html>`,
	})
	p := NewProber(srv.URL, 5*time.Second)

	ids := []int{1, 2, 3, 4, 5, 6, 7, 8}
	got := p.Active(context.Background(), ids, 4)
	if !reflect.DeepEqual(got, []int{3, 7}) {
		t.Fatalf("active = %v, want [3 7]", got)
	}
	if n := requests.Load(); n != int64(len(ids)) {
		t.Errorf("server saw %d requests, want %d", n, len(ids))
	}
}

func TestActiveOutputSorted(t *testing.T) {
	srv, _ := oddsServer(t, map[int]string{
		9: `<html><body>addSelection(a)</body></html>`,
		2: `<html><body>addSelection(b)</body></html>`,
		5: `<html><body>addSelection(c)</body></html>`,
	})
	p := NewProber(srv.URL, 5*time.Second)

	got := p.Active(context.Background(), []int{9, 5, 2}, 2)
	if !reflect.DeepEqual(got, []int{2, 5, 9}) {
		t.Fatalf("active = %v, want sorted [2 5 9]", got)
	}
}

func TestActiveMoreWorkersThanIDs(t *testing.T) {
	srv, _ := oddsServer(t, map[int]string{1: `<html>addSelection (x)</html>`})
	p := NewProber(srv.URL, 5*time.Second)

	if got := p.Active(context.Background(), []int{1}, 16); !reflect.DeepEqual(got, []int{1}) {
		t.Fatalf("active = %v, want [1]", got)
	}
	if got := p.Active(context.Background(), []int{1}, 0); !reflect.DeepEqual(got, []int{1}) {
		t.Fatalf("zero workers must still probe, got %v", got)
	}
}

func TestHasOddsErrorsCountAsInactive(t *testing.T) {
	// Server errors and unreachable hosts both yield no active IDs rather
	// than aborting the run.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	p := NewProber(srv.URL, 2*time.Second)
	if got := p.Active(context.Background(), []int{1, 2}, 2); len(got) != 0 {
		t.Fatalf("failing server must yield nothing, got %v", got)
	}

	down := NewProber("http://127.0.0.1:1", 500*time.Millisecond)
	if got := down.Active(context.Background(), []int{1}, 1); len(got) != 0 {
		t.Fatalf("unreachable host must yield nothing, got %v", got)
	}
}

func TestActiveHonorsContextCancel(t *testing.T) {
	srv, _ := oddsServer(t, map[int]string{1: `addSelection(`})
	p := NewProber(srv.URL, 5*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := p.Active(ctx, []int{1, 2, 3}, 2); len(got) != 0 {
		t.Fatalf("cancelled context must yield nothing, got %v", got)
	}
}
