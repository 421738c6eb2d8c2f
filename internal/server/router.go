package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Atharrvac/vanadhikar-backend/internal/handlers"
	"github.com/Atharrvac/vanadhikar-backend/internal/middleware"
	"github.com/Atharrvac/vanadhikar-backend/internal/observability"
)

type RouterConfig struct {
	ServiceName         string
	AllowedOrigins      []string
	Metrics             *observability.Metrics
	ActorMiddleware     *middleware.ActorMiddleware
	HealthHandler       *handlers.HealthHandler
	ClaimHandler        *handlers.ClaimHandler
	QueryHandler        *handlers.QueryHandler
	VerificationHandler *handlers.VerificationHandler
	CommitteeHandler    *handlers.CommitteeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Actor-Id", "X-Actor-Role"},
		AllowCredentials: true,
	}))
	router.Use(otelgin.Middleware(cfg.ServiceName))
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.GinMiddleware())
	}

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	router.GET("/metrics", observability.Handler())

	// ===============
	// || Protected ||
	// ===============
	api := router.Group("/api")
	api.Use(cfg.ActorMiddleware.RequireActor())
	{
		// Claims
		api.POST("/claims", cfg.ClaimHandler.CreateClaim)
		api.GET("/claims", cfg.QueryHandler.ListClaims)
		api.GET("/claims/stats", cfg.QueryHandler.Stats)
		api.GET("/claims/:id", cfg.ClaimHandler.GetClaim)
		api.GET("/claims/:id/history", cfg.ClaimHandler.GetHistory)
		api.PATCH("/claims/:id/priority", cfg.ClaimHandler.SetPriority)
		api.PATCH("/claims/:id/assign", cfg.ClaimHandler.AssignOfficer)
		api.POST("/claims/:id/validate/:stage", cfg.ClaimHandler.ValidateStage)
		api.POST("/claims/:id/transition", cfg.ClaimHandler.Transition)
		// Field verification
		api.GET("/claims/:id/checklist", cfg.VerificationHandler.GetChecklist)
		api.PATCH("/claims/:id/checklist/:category/:item", cfg.VerificationHandler.ToggleItem)
		api.POST("/claims/:id/verification", cfg.VerificationHandler.SubmitVerification)
		api.GET("/claims/:id/verification", cfg.VerificationHandler.GetReport)
		// Committee
		api.POST("/claims/:id/votes", cfg.CommitteeHandler.CastVote)
		api.GET("/claims/:id/votes", cfg.CommitteeHandler.ListVotes)
		api.GET("/claims/:id/consensus", cfg.CommitteeHandler.GetConsensus)
		api.POST("/claims/:id/decision", cfg.CommitteeHandler.FinalizeDecision)
		api.GET("/claims/:id/decision", cfg.CommitteeHandler.GetDecision)
	}

	return router
}

// ParseOrigins splits a comma separated origin list from the environment.
func ParseOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
