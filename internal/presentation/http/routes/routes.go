// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/BrightFrames/tapx-go/internal/application/container"
	"github.com/BrightFrames/tapx-go/internal/presentation/http/handlers"
	"github.com/BrightFrames/tapx-go/internal/presentation/http/middleware"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(c *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	intentHandlers := handlers.NewIntentHandlers(c.IntentService, c.Logger)
	journeyHandlers := handlers.NewJourneyHandlers(c.JourneyService, c.AuthService, c.FeedBroadcaster, c.Logger)
	authHandlers := handlers.NewAuthHandlers(c.AuthService, c.Mailer, c.Logger)
	enquiryHandlers := handlers.NewEnquiryHandlers(c.EnquiryService, c.Logger)
	blockHandlers := handlers.NewBlockHandlers(c.BlockService, c.Logger)
	dbHandlers := handlers.NewDBHandlers(c.DB, c.Logger, c.PerfTracker)

	api := r.Group("/api/v1")

	// Public and optional-identity routes. A CTA click or a tracked event
	// must never be blocked by a missing or expired token.
	api.POST("/intents", middleware.OptionalIdentity(), intentHandlers.Create)
	api.POST("/journey/track", middleware.OptionalIdentity(), journeyHandlers.Track)
	api.GET("/journey/session/:session_id", middleware.OptionalIdentity(), journeyHandlers.GetBySession)
	api.POST("/enquiries", middleware.OptionalIdentity(), enquiryHandlers.Create)

	api.POST("/auth/signup", authHandlers.Signup)
	api.POST("/auth/login", authHandlers.Login)
	api.GET("/auth/decode", authHandlers.Decode)
	api.POST("/auth/otp", authHandlers.RequestOTP)
	api.POST("/auth/otp/verify", authHandlers.VerifyOTP)

	api.GET("/blocks/:id", blockHandlers.Get)
	api.GET("/profiles/:id/blocks", blockHandlers.ListByProfile)
	api.GET("/db/status", dbHandlers.Status)

	// Authenticated lifecycle and dashboard routes.
	auth := api.Group("")
	auth.Use(middleware.RequireIdentity())
	{
		auth.PUT("/intents/:id/resume", intentHandlers.Resume)
		auth.PUT("/intents/:id/complete", intentHandlers.Complete)
		auth.PUT("/intents/:id/fail", intentHandlers.Fail)
		auth.GET("/intents", intentHandlers.List)
		auth.GET("/intents/stats", intentHandlers.Stats)

		auth.GET("/journey/enquiry/:enquiry_id", journeyHandlers.GetByEnquiry)
		auth.GET("/journey/analytics", journeyHandlers.Analytics)
		auth.GET("/journey/feed", journeyHandlers.Feed)

		auth.POST("/blocks", blockHandlers.Create)
	}

	return r
}
