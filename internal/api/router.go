// Package api assembles the HTTP surface: routes, CORS, and the uniform
// error envelopes.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mgarrity/sift/internal/digest"
	"github.com/mgarrity/sift/internal/feedback"
	"github.com/mgarrity/sift/internal/health"
	"github.com/mgarrity/sift/internal/store"
)

// Deps carries everything the router needs. InitSchema and Seed are funcs so
// the router stays decoupled from the database wiring.
type Deps struct {
	Service       *feedback.Service
	FeedbackStore store.FeedbackStore
	DigestStore   store.DigestStore
	Generator     *digest.Generator
	InitSchema    func() error
	Seed          func(ctx context.Context) (int, error)
	Env           string
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(deps Deps) *gin.Engine {
	if deps.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())

	// Any panic escaping a handler becomes the generic 500 envelope; the
	// process keeps serving subsequent requests.
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal Server Error",
			"details": recoveredMessage(recovered),
		})
	}))

	// Permissive cross-origin headers on every response; preflight requests
	// get an empty 204.
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
		MaxAge:          12 * time.Hour,
	}))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
	})

	router.GET("/", DashboardHandler)
	router.GET("/health", gin.WrapF(health.Handler))

	apiGroup := router.Group("/api")
	{
		apiGroup.POST("/init", InitSchemaHandler(deps.InitSchema))
		apiGroup.POST("/seed", SeedHandler(deps.Seed))
		apiGroup.POST("/feedback", SubmitFeedbackHandler(deps.Service))
		apiGroup.GET("/feedback", ListFeedbackHandler(deps.FeedbackStore))
		apiGroup.POST("/digest/generate", GenerateDigestHandler(deps.Generator))
		apiGroup.GET("/digest", GetDigestHandler(deps.DigestStore))
	}

	router.GET("/webhook/slack", SlackWebhookHandler(deps.DigestStore))

	return router
}

func recoveredMessage(recovered any) string {
	if err, ok := recovered.(error); ok {
		return err.Error()
	}
	if s, ok := recovered.(string); ok {
		return s
	}
	return "unexpected error"
}
