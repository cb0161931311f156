// Package api exposes the HTTP surface: auth flows, Graph API proxy
// routes, and the chat assistant. All responses are JSON.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/adspilot/metads-assistant/internal/advisor"
	"github.com/adspilot/metads-assistant/internal/assistant"
	"github.com/adspilot/metads-assistant/internal/auth"
	"github.com/adspilot/metads-assistant/internal/config"
	"github.com/adspilot/metads-assistant/internal/meta"
	"github.com/adspilot/metads-assistant/internal/pkg/httputil"
	"github.com/adspilot/metads-assistant/internal/storage"
)

// Handlers carries the services behind the HTTP routes. The chat store,
// cache, and limiter are nil when Postgres or Redis is not configured;
// handlers degrade to stateless behavior in that case.
type Handlers struct {
	assistant *assistant.Assistant
	advisor   *advisor.Advisor
	client    *meta.Client
	monitor   *meta.Monitor
	authSvc   *auth.Service
	chats     *storage.ChatRepo
	cache     *storage.InsightCache
	limiter   *storage.RateLimiter
	chatCfg   config.ChatConfig
}

// NewHandlers wires route handlers over the given services.
func NewHandlers(
	asst *assistant.Assistant,
	adv *advisor.Advisor,
	client *meta.Client,
	monitor *meta.Monitor,
	authSvc *auth.Service,
	chats *storage.ChatRepo,
	cache *storage.InsightCache,
	limiter *storage.RateLimiter,
	chatCfg config.ChatConfig,
) *Handlers {
	return &Handlers{
		assistant: asst,
		advisor:   adv,
		client:    client,
		monitor:   monitor,
		authSvc:   authSvc,
		chats:     chats,
		cache:     cache,
		limiter:   limiter,
		chatCfg:   chatCfg,
	}
}

// HealthCheck reports service liveness. Unauthenticated.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// metaToken resolves the Meta access token for a request: an explicit
// access_token query parameter wins, otherwise the token stored on the
// authenticated user's account is used.
func metaToken(r *http.Request) string {
	if t := r.URL.Query().Get("access_token"); t != "" {
		return t
	}
	if user := auth.CurrentUser(r.Context()); user != nil {
		return user.MetaAccessToken
	}
	return ""
}

// requireMetaToken resolves the Meta token or writes a 400 explaining how
// to connect an account.
func requireMetaToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := metaToken(r)
	if token == "" {
		httputil.BadRequest(w, "no Meta access token on file; connect your Meta account first")
		return "", false
	}
	return token, true
}

// writeGraphError maps a Graph API failure onto the response. Remote
// rejections pass through verbatim as 502; anything else is a 500.
func writeGraphError(w http.ResponseWriter, err error) {
	var metaErr *meta.MetaError
	if errors.As(err, &metaErr) {
		httputil.BadGateway(w, metaErr.Message)
		return
	}
	httputil.InternalError(w, err)
}
