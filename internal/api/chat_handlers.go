package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adspilot/metads-assistant/internal/advisor"
	"github.com/adspilot/metads-assistant/internal/assistant"
	"github.com/adspilot/metads-assistant/internal/auth"
	"github.com/adspilot/metads-assistant/internal/meta"
	"github.com/adspilot/metads-assistant/internal/pkg/httputil"
	"github.com/adspilot/metads-assistant/internal/pkg/logger"
	"github.com/adspilot/metads-assistant/internal/storage"
)

type chatMessageRequest struct {
	Content   string `json:"content"`
	SessionID string `json:"session_id"`
}

type chatMessageResponse struct {
	assistant.Reply
	SessionID string `json:"session_id,omitempty"`
}

// SendChatMessage runs one assistant turn. Classification and dispatch
// failures come back inside the reply body with a 200, matching how the
// chat UI renders them. When persistence is configured, both halves of the
// turn are stored.
func (h *Handlers) SendChatMessage(w http.ResponseWriter, r *http.Request) {
	var req chatMessageRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.Content == "" {
		httputil.BadRequest(w, "content is required")
		return
	}

	user := auth.CurrentUser(r.Context())

	if h.limiter != nil {
		allowed, err := h.limiter.Allow(r.Context(), user.ID)
		if err != nil {
			logger.Warn("rate limiter unavailable, allowing request", "error", err.Error())
		} else if !allowed {
			httputil.Error(w, http.StatusTooManyRequests, "too many chat messages, slow down")
			return
		}
	}

	reply := h.assistant.HandleMessage(r.Context(), user.MetaAccessToken, req.Content)

	resp := chatMessageResponse{Reply: reply, SessionID: req.SessionID}
	if h.chats != nil {
		resp.SessionID = h.persistTurn(r, user.ID, req.SessionID, req.Content, reply)
	}
	httputil.OK(w, resp)
}

// persistTurn stores the user message and the reply, creating a session on
// first contact. Persistence failures only log; the turn already happened.
func (h *Handlers) persistTurn(r *http.Request, userID, sessionID, content string, reply assistant.Reply) string {
	ctx := r.Context()

	if sessionID == "" {
		session, err := h.chats.CreateSession(ctx, userID, truncateTitle(content))
		if err != nil {
			logger.Warn("could not create chat session", "error", err.Error())
			return ""
		}
		sessionID = session.ID
	}

	_, err := h.chats.AppendMessage(ctx, &storage.ChatMessage{
		SessionID: sessionID,
		UserID:    userID,
		Role:      storage.RoleUser,
		Content:   content,
	})
	if err != nil {
		logger.Warn("could not persist user message", "error", err.Error())
		return sessionID
	}

	text := reply.Text
	if text == "" {
		text = reply.Err
	}
	_, err = h.chats.AppendMessage(ctx, &storage.ChatMessage{
		SessionID: sessionID,
		UserID:    userID,
		Role:      storage.RoleAssistant,
		Content:   text,
	})
	if err != nil {
		logger.Warn("could not persist assistant message", "error", err.Error())
	}
	return sessionID
}

func truncateTitle(content string) string {
	const maxTitle = 60
	if len(content) <= maxTitle {
		return content
	}
	return content[:maxTitle]
}

// GetChatSuggestions returns the canned example prompts.
func (h *Handlers) GetChatSuggestions(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{"suggestions": assistant.DefaultSuggestions})
}

type analyzeRequest struct {
	AccountID string `json:"account_id"`
}

// AnalyzeCampaigns fetches an account's campaigns and returns aggregate
// numbers, recommendations, and a performance chart in one call.
func (h *Handlers) AnalyzeCampaigns(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.AccountID == "" {
		httputil.BadRequest(w, "account_id is required")
		return
	}

	token, ok := requireMetaToken(w, r)
	if !ok {
		return
	}

	cmd := &assistant.Command{
		Kind:   assistant.KindGetCampaigns,
		Params: map[string]any{"account_id": req.AccountID},
	}
	result, err := h.assistant.Dispatcher().Dispatch(r.Context(), token, cmd)
	if err != nil {
		writeGraphError(w, err)
		return
	}

	campaigns := result.Campaigns
	var totalSpend, totalCTR float64
	active := 0
	for _, c := range campaigns {
		totalSpend += meta.ParseMetric(c.Spend)
		totalCTR += meta.ParseMetric(c.CTR)
		if c.Status == meta.StatusActive {
			active++
		}
	}
	avgCTR := 0.0
	if len(campaigns) > 0 {
		avgCTR = totalCTR / float64(len(campaigns))
	}

	httputil.OK(w, map[string]any{
		"analysis": map[string]any{
			"total_campaigns":  len(campaigns),
			"active_campaigns": active,
			"total_spend":      totalSpend / 100,
			"avg_ctr":          avgCTR,
		},
		"recommendations": advisor.Recommendations(campaigns),
		"chart_data":      assistant.CampaignPerformanceChart(result.Records),
	})
}

// ListChatSessions returns the user's conversations.
func (h *Handlers) ListChatSessions(w http.ResponseWriter, r *http.Request) {
	if h.chats == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "chat history is not enabled")
		return
	}

	sessions, err := h.chats.Sessions(r.Context(), auth.CurrentUser(r.Context()).ID)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"chats": sessions, "total": len(sessions)})
}

// GetChatHistory returns the recent messages of one session.
func (h *Handlers) GetChatHistory(w http.ResponseWriter, r *http.Request) {
	if h.chats == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "chat history is not enabled")
		return
	}

	user := auth.CurrentUser(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.chats.Session(r.Context(), user.ID, sessionID)
	if err == storage.ErrSessionNotFound {
		httputil.NotFound(w, "chat session not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	messages, err := h.chats.RecentMessages(r.Context(), sessionID, h.chatCfg.HistoryLimit)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"chat": session, "messages": messages})
}
