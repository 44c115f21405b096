// Package fetch renders odds pages in a headless browser and hands back
// parsed documents. It is the pipeline's only input collaborator: each call
// either yields a document or a definitive unavailable error. The core never
// retries fetches; a failed competition simply contributes nothing.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

// ErrUnavailable wraps every navigation, timeout, or render failure so
// callers can treat all of them as one per-unit outcome.
var ErrUnavailable = errors.New("page unavailable")

const (
	compIDSelector = `input[name="compid"]`
	updateSelector = `#update`
	oddsSelector   = `td#more-market-odds`

	// The page re-renders asynchronously after the update click; the odds
	// cells appear before the last rows settle.
	renderSettle = time.Second
)

// Client fetches rendered odds pages via a headless Chrome instance. Each
// fetch runs in its own browser context with its own timeout.
type Client struct {
	multibetURL string
	navTimeout  time.Duration
	allocOpts   []chromedp.ExecAllocatorOption
}

// New creates a Client. navTimeout bounds every page load and element wait.
func New(multibetURL string, navTimeout time.Duration, headless bool) *Client {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1600, 1200),
	)
	return &Client{
		multibetURL: multibetURL,
		navTimeout:  navTimeout,
		allocOpts:   opts,
	}
}

// CompetitionPage loads the multibet page for one competition: it fills the
// compid input, triggers the update, waits for odds cells to render, and
// returns the resulting document.
func (c *Client) CompetitionPage(ctx context.Context, compID int) (*goquery.Document, error) {
	html, err := c.render(ctx,
		chromedp.Navigate(c.multibetURL),
		chromedp.WaitVisible(compIDSelector, chromedp.ByQuery),
		chromedp.SetValue(compIDSelector, strconv.Itoa(compID), chromedp.ByQuery),
		chromedp.Evaluate(
			`document.querySelector('input[name="compid"]').dispatchEvent(new Event('change'))`, nil),
		chromedp.Click(updateSelector, chromedp.ByQuery),
		chromedp.WaitReady(oddsSelector, chromedp.ByQuery),
		chromedp.Sleep(renderSettle),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: competition %d: %v", ErrUnavailable, compID, err)
	}
	return parseDocument(html)
}

// DetailPage loads a market detail page by URL.
func (c *Client) DetailPage(ctx context.Context, url string) (*goquery.Document, error) {
	html, err := c.render(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, url, err)
	}
	return parseDocument(html)
}

// render runs the actions in a fresh browser context bounded by the
// navigation timeout and captures the final page HTML.
func (c *Client) render(ctx context.Context, actions ...chromedp.Action) (string, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, c.allocOpts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, c.navTimeout)
	defer cancelRun()

	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	if err := chromedp.Run(runCtx, actions...); err != nil {
		return "", err
	}
	return html, nil
}

func parseDocument(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: parse rendered page: %v", ErrUnavailable, err)
	}
	return doc, nil
}
