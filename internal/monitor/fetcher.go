package monitor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"go.opentelemetry.io/otel"

	"github.com/turnwatch/turnwatch/internal/platform/timeouts"
)

// Fetcher retrieves the remote game state for a session URL.
//
// Every outcome is classified: a fresh payload, an unchanged resource, or an
// error. Errors are transient by contract; callers report them and move on,
// they never retry inline.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (FetchResult, error)
}

// FetchResult is the outcome of one conditional fetch.
type FetchResult struct {
	// Unchanged reports that the resource did not change since the last
	// fetch of the same URL.
	Unchanged bool
	// State holds the decoded payload for a fresh fetch; nil when Unchanged.
	State *GameState
}

// HTTPFetcher fetches game state over HTTP with ETag revalidation. It keeps
// one cached validator token per URL; every full response refreshes the
// token, so a stale entry costs at most one full fetch.
type HTTPFetcher struct {
	client *http.Client

	mu     sync.Mutex
	tokens map[string]string
}

// NewHTTPFetcher returns an HTTPFetcher with the default request timeout.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeouts.RemoteFetch},
		tokens: make(map[string]string),
	}
}

// Fetch performs one conditional GET against url.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (FetchResult, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "monitor.fetch")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return FetchResult{}, fmt.Errorf("build request: %w", err)
	}
	if token := f.token(url); token != "" {
		req.Header.Set("If-None-Match", token)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return FetchResult{}, fmt.Errorf("fetch game state: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return FetchResult{Unchanged: true}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return FetchResult{}, fmt.Errorf("fetch game state: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return FetchResult{}, fmt.Errorf("read game state: %w", err)
	}
	state, err := decodeGameState(body)
	if err != nil {
		return FetchResult{}, err
	}
	if token := resp.Header.Get("ETag"); token != "" {
		f.setToken(url, token)
	}
	return FetchResult{State: state}, nil
}

func (f *HTTPFetcher) token(url string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokens[url]
}

func (f *HTTPFetcher) setToken(url, token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[url] = token
}
