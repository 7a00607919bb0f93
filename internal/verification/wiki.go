// Package verification resolves trivia claims against an external
// encyclopedia (Wikipedia REST + MediaWiki search) with a token-overlap
// containment heuristic. This is best-effort corroboration, not semantic
// fact-checking: false positives and negatives are expected and acceptable.
//
// Failures are values, never errors: every path returns a Result whose
// Reason explains a negative outcome (no_content, timeout, error). Network
// calls are bounded by retries with exponential backoff, an overall call
// timeout, and a client-side rate limiter so batch verification cannot
// hammer the upstream.
package verification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Result is the outcome of one claim verification.
type Result struct {
	OK     bool
	Reason string // set only on negative outcomes
}

// Negative outcome reasons.
const (
	ReasonNoContent = "no_content"
	ReasonTimeout   = "timeout"
	ReasonError     = "error"
	ReasonMismatch  = "mismatch"
)

// Defaults for the client knobs.
const (
	defaultBaseURL     = "https://ru.wikipedia.org"
	defaultRetries     = 3
	defaultBackoff     = 300 * time.Millisecond
	defaultCallTimeout = 8 * time.Second

	// searchQueryLen caps how much of the claim feeds the full-text search.
	searchQueryLen = 100
)

var (
	wikipediaURLRe = regexp.MustCompile(`(?i)wikipedia\.org/`)
	wikiTitleRe    = regexp.MustCompile(`wiki/([^#?]+)`)
)

// Client talks to a Wikipedia-compatible read-only API pair: the REST
// page-summary endpoint and the MediaWiki full-text search endpoint. The
// zero value is not usable; construct with NewClient.
type Client struct {
	http        *http.Client
	baseURL     string
	limiter     *rate.Limiter
	retries     int
	backoff     time.Duration
	callTimeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different host (tests use httptest).
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRetries sets the per-request attempt count (minimum 1).
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 1 {
			c.retries = n
		}
	}
}

// WithBackoff sets the base delay doubled between attempts.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.backoff = d
		}
	}
}

// WithCallTimeout bounds one whole Verify call, both lookup legs included.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.callTimeout = d
		}
	}
}

// WithRateLimit paces outgoing requests.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// NewClient builds a verification client with sane defaults: the Russian
// Wikipedia, 3 attempts per request, 300ms exponential backoff, an 8s call
// timeout, and 2 requests/second pacing.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:        &http.Client{Timeout: defaultCallTimeout},
		baseURL:     defaultBaseURL,
		limiter:     rate.NewLimiter(rate.Limit(2), 4),
		retries:     defaultRetries,
		backoff:     defaultBackoff,
		callTimeout: defaultCallTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Verify checks whether claim text is plausibly supported by encyclopedia
// content. When sourceURL is a recognized Wikipedia article link, the
// article's summary is fetched directly; otherwise (or when that yields
// nothing) a full-text search on the claim's first 100 characters picks the
// top hit. Cancellation and deadline expiry surface as
// Result{OK:false, Reason:"timeout"}, never as an error.
func (c *Client) Verify(ctx context.Context, claim string, sourceURL *string) Result {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	content, err := c.lookup(ctx, claim, sourceURL)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return Result{OK: false, Reason: ReasonTimeout}
		}
		return Result{OK: false, Reason: ReasonError}
	}
	if content == "" {
		return Result{OK: false, Reason: ReasonNoContent}
	}
	if TokenMatch(claim, content) {
		return Result{OK: true}
	}
	return Result{OK: false, Reason: ReasonMismatch}
}

// lookup obtains summary content for the claim: by article title when the
// source URL names one, falling back to full-text search. An empty string
// with nil error means neither path produced content.
func (c *Client) lookup(ctx context.Context, claim string, sourceURL *string) (string, error) {
	if sourceURL != nil && wikipediaURLRe.MatchString(*sourceURL) {
		if title, ok := titleFromURL(*sourceURL); ok {
			extract, err := c.summary(ctx, title)
			if err != nil {
				return "", err
			}
			if extract != "" {
				return extract, nil
			}
		}
	}
	return c.searchSummary(ctx, claim)
}

// TokenMatch implements the containment heuristic: lowercase the claim,
// split on whitespace, keep tokens of at least 4 runes, cap at the first 6,
// count how many appear as substrings of the lowercased summary, and require
// hits >= max(2, ceil(n/3)).
func TokenMatch(claim, summary string) bool {
	sum := strings.ToLower(summary)
	var tokens []string
	for _, t := range strings.Fields(strings.ToLower(claim)) {
		if len([]rune(t)) >= 4 {
			tokens = append(tokens, t)
			if len(tokens) == 6 {
				break
			}
		}
	}
	hits := 0
	for _, t := range tokens {
		if strings.Contains(sum, t) {
			hits++
		}
	}
	need := int(math.Max(2, math.Ceil(float64(len(tokens))/3)))
	return hits >= need
}

// titleFromURL extracts and decodes the article title from a /wiki/ path.
func titleFromURL(raw string) (string, bool) {
	m := wikiTitleRe.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	title, err := url.PathUnescape(m[1])
	if err != nil {
		return m[1], true
	}
	return title, true
}

// summary fetches the REST page summary extract for a title.
func (c *Client) summary(ctx context.Context, title string) (string, error) {
	var body struct {
		Extract string `json:"extract"`
	}
	u := c.baseURL + "/api/rest_v1/page/summary/" + url.PathEscape(title)
	if err := c.getJSON(ctx, u, &body); err != nil {
		return "", err
	}
	return body.Extract, nil
}

// searchSummary runs a full-text search on the claim prefix and fetches the
// summary of the top hit.
func (c *Client) searchSummary(ctx context.Context, claim string) (string, error) {
	q := claim
	if runes := []rune(q); len(runes) > searchQueryLen {
		q = string(runes[:searchQueryLen])
	}

	var body struct {
		Query struct {
			Search []struct {
				Title string `json:"title"`
			} `json:"search"`
		} `json:"query"`
	}
	u := c.baseURL + "/w/api.php?action=query&list=search&srsearch=" + url.QueryEscape(q) +
		"&format=json&utf8=1&srwhat=text&srlimit=1"
	if err := c.getJSON(ctx, u, &body); err != nil {
		return "", err
	}
	if len(body.Query.Search) == 0 {
		return "", nil
	}
	return c.summary(ctx, body.Query.Search[0].Title)
}

// getJSON fetches a URL with bounded retries and exponential backoff,
// decoding the response body into v. Non-2xx statuses count as attempt
// failures and are retried like transport errors.
func (c *Client) getJSON(ctx context.Context, u string, v any) error {
	var lastErr error
	delay := c.backoff
	for attempt := 0; attempt < c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := c.getJSONOnce(ctx, u, v); err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		return nil
	}
	return lastErr
}

func (c *Client) getJSONOnce(ctx context.Context, u string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status_%d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
