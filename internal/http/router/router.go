package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stagelink/marketplace-api/internal/auth"
	"github.com/stagelink/marketplace-api/internal/config"
	"github.com/stagelink/marketplace-api/internal/http/handler"
	"github.com/stagelink/marketplace-api/internal/http/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	_ "github.com/stagelink/marketplace-api/docs" // Import generated swagger docs
)

type Router struct {
	cfg                *config.Config
	logger             *zap.Logger
	tokenValidator     *auth.TokenValidator
	rateLimiter        *middleware.RateLimiter
	healthHandler      *handler.HealthHandler
	eventHandler       *handler.EventHandler
	offerHandler       *handler.OfferHandler
	negotiationHandler *handler.NegotiationHandler
	contractHandler    *handler.ContractHandler
	dashboardHandler   *handler.DashboardHandler
	watchHandler       *handler.WatchHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	tokenValidator *auth.TokenValidator,
	rateLimiter *middleware.RateLimiter,
	healthHandler *handler.HealthHandler,
	eventHandler *handler.EventHandler,
	offerHandler *handler.OfferHandler,
	negotiationHandler *handler.NegotiationHandler,
	contractHandler *handler.ContractHandler,
	dashboardHandler *handler.DashboardHandler,
	watchHandler *handler.WatchHandler,
) *Router {
	return &Router{
		cfg:                cfg,
		logger:             logger,
		tokenValidator:     tokenValidator,
		rateLimiter:        rateLimiter,
		healthHandler:      healthHandler,
		eventHandler:       eventHandler,
		offerHandler:       offerHandler,
		negotiationHandler: negotiationHandler,
		contractHandler:    contractHandler,
		dashboardHandler:   dashboardHandler,
		watchHandler:       watchHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Health probes
	r.Get("/health", rt.healthHandler.Health)
	r.Get("/health/db", rt.healthHandler.HealthDB)

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(rt.tokenValidator, rt.logger))
			r.Use(rt.rateLimiter.Limit)

			// Events
			r.Route("/events", func(r chi.Router) {
				r.Get("/", rt.eventHandler.ListMyEvents)
				r.Post("/", rt.eventHandler.CreateEvent)
				r.Get("/{id}", rt.eventHandler.GetEvent)
			})

			// Offers
			r.Route("/offers", func(r chi.Router) {
				r.Get("/", rt.offerHandler.ListOffers)
				r.Get("/watch", rt.watchHandler.WatchOffers)
				r.Post("/requests", rt.offerHandler.CreateServiceRequest)
				r.Post("/proposals", rt.offerHandler.CreateProviderOffer)
				r.Get("/{id}", rt.offerHandler.GetOffer)
				r.Get("/{id}/history", rt.offerHandler.GetOfferHistory)

				// Negotiation actions
				r.Post("/{id}/quote", rt.negotiationHandler.SubmitQuote)
				r.Post("/{id}/counter", rt.negotiationHandler.CounterOffer)
				r.Post("/{id}/accept", rt.negotiationHandler.AcceptOffer)
				r.Post("/{id}/reject", rt.negotiationHandler.RejectOffer)
				r.Post("/{id}/cancel", rt.negotiationHandler.CancelOffer)

				// Contract signature
				r.Post("/{id}/sign", rt.contractHandler.SignContract)
			})

			// Contracts
			r.Get("/contracts", rt.contractHandler.GetUserContracts)

			// Aggregated read models
			r.Get("/dashboard", rt.dashboardHandler.GetDashboard)
			r.Get("/finance/summary", rt.dashboardHandler.GetFinancialSummary)
			r.Get("/analytics/organizer", rt.dashboardHandler.GetOrganizerAnalytics)
			r.Get("/analytics/provider", rt.dashboardHandler.GetProviderAnalytics)
		})
	})

	return r
}
