package backends

import (
	"strings"
	"sync"

	"github.com/arena-ai/arena/pkg/config"
	"github.com/arena-ai/arena/pkg/models"
)

// Endpoint is a resolved backend target.
type Endpoint struct {
	URL       string
	AuthToken string
}

// Resolver maps model identifiers to endpoints. Per-model overrides from
// configuration take precedence over the shared base URL and token.
type Resolver struct {
	mu        sync.RWMutex
	baseURL   string
	authToken string
	overrides map[models.ModelID]config.BackendConfig
}

// New creates a Resolver from the default base URL/token and any per-model
// overrides.
func New(baseURL, authToken string, overrides []config.BackendConfig) *Resolver {
	m := make(map[models.ModelID]config.BackendConfig, len(overrides))
	for _, o := range overrides {
		m[o.Model] = o
	}
	return &Resolver{
		baseURL:   strings.TrimRight(baseURL, "/"),
		authToken: authToken,
		overrides: m,
	}
}

// Resolve returns the endpoint for a model. Override fields fall back to the
// shared base URL and token when empty.
func (r *Resolver) Resolve(model models.ModelID) Endpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ep := Endpoint{URL: r.baseURL, AuthToken: r.authToken}
	o, ok := r.overrides[model]
	if !ok {
		return ep
	}
	if o.URL != "" {
		ep.URL = strings.TrimRight(o.URL, "/")
	}
	if o.AuthToken != "" {
		ep.AuthToken = o.AuthToken
	}
	return ep
}

// SetBaseURL replaces the shared base URL for subsequent resolutions.
func (r *Resolver) SetBaseURL(baseURL string) {
	r.mu.Lock()
	r.baseURL = strings.TrimRight(baseURL, "/")
	r.mu.Unlock()
}

// SetAuthToken replaces the shared bearer token for subsequent resolutions.
func (r *Resolver) SetAuthToken(token string) {
	r.mu.Lock()
	r.authToken = token
	r.mu.Unlock()
}
