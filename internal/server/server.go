// Package server assembles the chat backend's HTTP routes.
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/capitalize-ai/aichat/internal/handler"
	"github.com/capitalize-ai/aichat/internal/llm"
	"github.com/capitalize-ai/aichat/internal/middleware"
	"github.com/capitalize-ai/aichat/internal/service"
	"github.com/capitalize-ai/aichat/pkg/logger"
)

// Deps are the collaborators the routes need.
type Deps struct {
	Logger *logger.Logger
	Issuer *middleware.TokenIssuer
	LLM    llm.Client
	Events service.EventPublisher

	// Bcrypt cost for new passwords; zero selects the library default.
	PasswordCost int

	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSOrigins       []string

	Readiness map[string]handler.ReadinessCheck
}

// NewRouter wires services, handlers and middleware into a chi router.
func NewRouter(d Deps) (http.Handler, error) {
	if d.Logger == nil {
		return nil, errors.New("server: logger is required")
	}
	if d.Issuer == nil {
		return nil, errors.New("server: token issuer is required")
	}
	if d.LLM == nil {
		d.LLM = llm.NewEchoClient()
	}

	users := service.NewUserService(d.PasswordCost, d.Logger)
	roles := service.NewRoleService(d.Logger)
	roles.SeedDefaults()
	conversations := service.NewConversationService(roles, d.Events, d.Logger)
	chat := service.NewChatService(conversations, roles, d.LLM, d.Logger)

	healthHandler := handler.NewHealthHandler(d.Readiness)
	authHandler := handler.NewAuthHandler(users, d.Issuer, d.Logger)
	conversationHandler := handler.NewConversationHandler(conversations, d.Logger)
	chatHandler := handler.NewChatHandler(chat, d.Logger)
	roleHandler := handler.NewRoleHandler(roles, d.Logger)
	insightsHandler := handler.NewInsightsHandler(
		service.NewModelCatalog(d.LLM),
		service.NewStatisticsService(conversations, roles),
	)

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(d.Logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(d.CORSOrigins))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(d.Issuer))
				r.Get("/profile", authHandler.Profile)
				r.Put("/profile", authHandler.UpdateProfile)
				r.Post("/change-password", authHandler.ChangePassword)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(d.Issuer))
			if d.RateLimitRequests > 0 {
				r.Use(middleware.RateLimit(d.RateLimitRequests, d.RateLimitWindow))
			}

			r.Route("/conversations", func(r chi.Router) {
				r.Post("/", conversationHandler.Create)
				r.Get("/", conversationHandler.List)
				r.Get("/deleted", conversationHandler.ListDeleted)
				r.Delete("/recycle-bin/empty", conversationHandler.EmptyRecycleBin)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", conversationHandler.Get)
					r.Delete("/", conversationHandler.Delete)
					r.Post("/restore", conversationHandler.Restore)
					r.Put("/model", conversationHandler.UpdateModel)
				})
			})

			r.Post("/chat/send", chatHandler.Send)

			r.Route("/roles", func(r chi.Router) {
				r.Post("/", roleHandler.Create)
				r.Get("/mine", roleHandler.Mine)
				r.Get("/public", roleHandler.Public)
				r.Put("/{id}", roleHandler.Update)
				r.Delete("/{id}", roleHandler.Delete)
			})

			r.Get("/ai-models", insightsHandler.Models)
			r.Get("/statistics", insightsHandler.Statistics)
			r.Get("/export/conversation/{id}/{format}", conversationHandler.Export)
		})
	})

	return r, nil
}
