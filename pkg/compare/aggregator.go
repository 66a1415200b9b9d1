// Package compare fans a single generation request out to the fixed set of
// image backends and merges their responses into one comparison.
package compare

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/arena-ai/arena/pkg/audit"
	"github.com/arena-ai/arena/pkg/backends"
	"github.com/arena-ai/arena/pkg/cache/memory"
	"github.com/arena-ai/arena/pkg/models"
)

// CacheStore is the comparison cache consumed by the Aggregator.
type CacheStore interface {
	Get(key models.ComparisonKey) (models.ComparisonResult, bool)
	Put(key models.ComparisonKey, result models.ComparisonResult) error
	Clear() error
}

// CallAuditor records individual backend call outcomes.
type CallAuditor interface {
	Log(ctx context.Context, entry models.AuditEntry) error
}

// Aggregator dispatches one request per backend concurrently, reports
// per-completion progress, and caches fully successful comparisons. A single
// backend failure fails the whole comparison; partial results are discarded
// and never cached.
type Aggregator struct {
	mu          sync.Mutex
	resolver    *backends.Resolver
	timeout     time.Duration
	onProgress  func(models.ProgressEvent)
	tokenCtx    context.Context
	tokenCancel context.CancelFunc
	dedupe      bool
	gate        func(ctx context.Context) error

	cache   CacheStore
	client  *http.Client
	auditor CallAuditor
	flight  singleflight.Group
}

// New creates an Aggregator. A nil cache falls back to an in-memory store
// whose entries live until cleared. timeout bounds each backend request
// individually, not the comparison as a whole; zero disables it.
func New(resolver *backends.Resolver, cache CacheStore, timeout time.Duration) *Aggregator {
	if cache == nil {
		cache = memory.New(0)
	}
	tokenCtx, tokenCancel := context.WithCancel(context.Background())
	return &Aggregator{
		resolver:    resolver,
		timeout:     timeout,
		tokenCtx:    tokenCtx,
		tokenCancel: tokenCancel,
		cache:       cache,
		client:      &http.Client{},
	}
}

// SetBaseURL replaces the shared backend base URL for subsequent dispatches.
// Requests already in flight are unaffected.
func (a *Aggregator) SetBaseURL(baseURL string) { a.resolver.SetBaseURL(baseURL) }

// SetAuthToken replaces the bearer token for subsequent dispatches.
func (a *Aggregator) SetAuthToken(token string) { a.resolver.SetAuthToken(token) }

// SetTimeout replaces the per-request timeout for subsequent dispatches.
func (a *Aggregator) SetTimeout(d time.Duration) {
	a.mu.Lock()
	a.timeout = d
	a.mu.Unlock()
}

// SetProgressFunc installs the progress hook used by CompareModels.
func (a *Aggregator) SetProgressFunc(fn func(models.ProgressEvent)) {
	a.mu.Lock()
	a.onProgress = fn
	a.mu.Unlock()
}

// SetAuditor installs an auditor recording each backend call outcome.
func (a *Aggregator) SetAuditor(auditor CallAuditor) {
	a.mu.Lock()
	a.auditor = auditor
	a.mu.Unlock()
}

// SetDedupeInFlight coalesces overlapping comparisons for the same key into
// one dispatch. Off by default: overlapping identical calls each issue their
// own backend requests.
func (a *Aggregator) SetDedupeInFlight(enabled bool) {
	a.mu.Lock()
	a.dedupe = enabled
	a.mu.Unlock()
}

// SetDispatchGate installs a check that runs after a cache miss and before
// any backend is queried. A non-nil error fails the comparison. Cached
// results bypass the gate entirely.
func (a *Aggregator) SetDispatchGate(fn func(ctx context.Context) error) {
	a.mu.Lock()
	a.gate = fn
	a.mu.Unlock()
}

// CancelRequests aborts all requests dispatched under the current
// cancellation token and mints a fresh token, so later comparisons are
// unaffected. Safe to call with nothing in flight. The cache is untouched.
func (a *Aggregator) CancelRequests() {
	a.mu.Lock()
	cancel := a.tokenCancel
	a.tokenCtx, a.tokenCancel = context.WithCancel(context.Background())
	a.mu.Unlock()
	cancel()
}

// ClearCache empties the comparison cache.
func (a *Aggregator) ClearCache() error {
	return a.cache.Clear()
}

// CompareModels runs one comparison for (prompt, seed). A fresh cache entry
// resolves immediately with no network activity and no progress events.
// Otherwise all backends are queried concurrently; the call fails on the
// first backend error.
func (a *Aggregator) CompareModels(ctx context.Context, prompt string, seed int64) (models.ComparisonResult, error) {
	a.mu.Lock()
	fn := a.onProgress
	a.mu.Unlock()
	result, _, err := a.Compare(ctx, prompt, seed, fn)
	return result, err
}

// CompareModelsWithProgress is CompareModels with a per-call progress
// function instead of the instance-level hook.
func (a *Aggregator) CompareModelsWithProgress(ctx context.Context, prompt string, seed int64, onProgress func(models.ProgressEvent)) (models.ComparisonResult, error) {
	result, _, err := a.Compare(ctx, prompt, seed, onProgress)
	return result, err
}

// Compare is the full entry point: it additionally reports whether the
// result came from cache. Callers that record history or count usage should
// do so only when cached is false.
func (a *Aggregator) Compare(ctx context.Context, prompt string, seed int64, onProgress func(models.ProgressEvent)) (models.ComparisonResult, bool, error) {
	key := models.ComparisonKey{Prompt: prompt, Seed: seed}

	if result, ok := a.cache.Get(key); ok {
		return result, true, nil
	}

	a.mu.Lock()
	dedupe := a.dedupe
	gate := a.gate
	a.mu.Unlock()

	if gate != nil {
		if err := gate(ctx); err != nil {
			return nil, false, err
		}
	}

	if !dedupe {
		result, err := a.dispatch(ctx, key, onProgress)
		return result, false, err
	}

	v, err, _ := a.flight.Do(flightKey(key), func() (any, error) {
		return a.dispatch(ctx, key, onProgress)
	})
	if err != nil {
		return nil, false, err
	}
	return v.(models.ComparisonResult), false, nil
}

func flightKey(key models.ComparisonKey) string {
	return strconv.FormatInt(key.Seed, 10) + "\x00" + key.Prompt
}

func (a *Aggregator) dispatch(ctx context.Context, key models.ComparisonKey, onProgress func(models.ProgressEvent)) (models.ComparisonResult, error) {
	a.mu.Lock()
	token := a.tokenCtx
	timeout := a.timeout
	a.mu.Unlock()

	// Tie this batch to the cancellation token active at dispatch time.
	// CancelRequests rotates the token, so it never reaches later batches.
	batchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(token, cancel)
	defer stop()

	var (
		progressMu sync.Mutex
		completed  []models.ModelID
		results    = make(models.ComparisonResult, len(models.AllModels))
	)

	g, gctx := errgroup.WithContext(batchCtx)
	for _, id := range models.AllModels {
		g.Go(func() error {
			res, err := a.fetchOne(gctx, id, key, timeout)
			if err != nil {
				return err
			}
			progressMu.Lock()
			results[id] = res
			completed = append(completed, id)
			ev := models.ProgressEvent{
				Percentage: float64(len(completed)) / float64(len(models.AllModels)) * 100,
				Completed:  slices.Clone(completed),
			}
			if onProgress != nil {
				onProgress(ev)
			}
			progressMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if token.Err() != nil && errors.Is(err, context.Canceled) {
			return nil, ErrCanceled
		}
		return nil, err
	}

	_ = a.cache.Put(key, results)
	return results, nil
}

// fetchOne issues a single backend request with its own timeout.
func (a *Aggregator) fetchOne(ctx context.Context, id models.ModelID, key models.ComparisonKey, timeout time.Duration) (models.ModelResult, error) {
	ep := a.resolver.Resolve(id)

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	endpoint := fmt.Sprintf("%s/%s", ep.URL, id)
	q := url.Values{}
	q.Set("prompt", key.Prompt)
	q.Set("seed", strconv.FormatInt(key.Seed, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return models.ModelResult{}, &TransportError{Model: id, Err: err}
	}
	if ep.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+ep.AuthToken)
	}

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		terr := &TransportError{Model: id, Err: err}
		a.auditCall(id, endpoint, key, 0, time.Since(start), terr)
		return models.ModelResult{}, terr
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		serr := &StatusError{Model: id, StatusCode: resp.StatusCode, Message: decodeErrorMessage(resp.Body)}
		a.auditCall(id, endpoint, key, resp.StatusCode, time.Since(start), serr)
		return models.ModelResult{}, serr
	}

	var out models.ModelResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		terr := &TransportError{Model: id, Err: fmt.Errorf("decode response: %w", err)}
		a.auditCall(id, endpoint, key, resp.StatusCode, time.Since(start), terr)
		return models.ModelResult{}, terr
	}

	a.auditCall(id, endpoint, key, resp.StatusCode, time.Since(start), nil)
	return out, nil
}

// decodeErrorMessage extracts a backend-supplied error message from a non-2xx
// body, accepting both {"error":{"message":...}} and {"message":...} shapes.
func decodeErrorMessage(r io.Reader) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return ""
	}
	if body.Error.Message != "" {
		return body.Error.Message
	}
	return body.Message
}

func (a *Aggregator) auditCall(id models.ModelID, endpoint string, key models.ComparisonKey, status int, latency time.Duration, callErr error) {
	a.mu.Lock()
	auditor := a.auditor
	a.mu.Unlock()
	if auditor == nil {
		return
	}

	entry := models.AuditEntry{
		Model:      id,
		URL:        endpoint,
		PromptHash: audit.HashPrompt(key.Prompt),
		Seed:       key.Seed,
		StatusCode: status,
		LatencyMs:  latency.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}
	if callErr != nil {
		entry.Error = callErr.Error()
	}

	go func() {
		if err := auditor.Log(context.Background(), entry); err != nil {
			log.Printf("audit log error: %v", err)
		}
	}()
}
