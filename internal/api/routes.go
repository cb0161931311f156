package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/adspilot/metads-assistant/internal/auth"
)

// SetupRoutes configures the router: open health and auth entry points,
// and the /api tree behind bearer authentication.
func SetupRoutes(h *Handlers, authSvc *auth.Service, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("X-Server-Identity", "metads-assistant-v1.0")
			next.ServeHTTP(w, req)
		})
	})

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(authSvc.RequireAuth)
			r.Post("/refresh", h.Refresh)
			r.Post("/logout", h.Logout)
			r.Get("/me", h.Me)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(authSvc.RequireAuth)

		r.Route("/meta", func(r chi.Router) {
			r.Get("/validate-token", h.ValidateMetaToken)
			r.Get("/user-info", h.GetMetaUserInfo)
			r.Get("/ad-accounts", h.GetAdAccounts)
			r.Get("/login-link", h.GetLoginLink)
			r.Post("/connect", h.ConnectMetaAccount)

			r.Route("/campaigns", func(r chi.Router) {
				r.Post("/", h.CreateCampaign)
				r.Get("/{accountID}", h.GetCampaigns)
				r.Get("/{campaignID}/details", h.GetCampaignDetails)
				r.Post("/{campaignID}/status", h.UpdateCampaignStatus)
				r.Post("/{campaignID}/budget", h.UpdateCampaignBudget)
			})

			r.Get("/insights/{objectID}", h.GetInsights)

			r.Route("/ad-sets", func(r chi.Router) {
				r.Post("/", h.CreateAdSet)
				r.Get("/{campaignID}", h.GetAdSets)
			})

			r.Route("/ads", func(r chi.Router) {
				r.Post("/", h.CreateAd)
				r.Get("/{adsetID}", h.GetAds)
				r.Put("/{adID}", h.UpdateAd)
			})

			r.Route("/creatives", func(r chi.Router) {
				r.Post("/", h.CreateCreative)
				r.Get("/{accountID}", h.GetCreatives)
			})

			r.Get("/budget-schedule/{campaignID}", h.GetBudgetSchedules)
			r.Get("/ad-library", h.SearchAdLibrary)

			r.Get("/realtime/{accountID}", h.GetRealtimeInsights)
			r.Get("/strategies/{accountID}", h.GetStrategies)
			r.Post("/strategies/execute", h.ExecuteStrategy)
			r.Get("/performance/{accountID}", h.GetAccountPerformance)
		})

		r.Route("/chat", func(r chi.Router) {
			r.Post("/message", h.SendChatMessage)
			r.Get("/suggestions", h.GetChatSuggestions)
			r.Post("/analyze", h.AnalyzeCampaigns)
			r.Get("/sessions", h.ListChatSessions)
			r.Get("/sessions/{sessionID}/messages", h.GetChatHistory)
		})
	})

	return r
}
