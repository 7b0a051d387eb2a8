package api

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"StoryCurator/internal/logging"
	"StoryCurator/internal/ports"
	"StoryCurator/internal/usecase"
)

const serviceName = "story-curator"

// Deps lists the use cases exposed over HTTP.
type Deps struct {
	Capture       *usecase.CaptureQueue
	Governance    *usecase.Governance
	Curation      *usecase.Curation
	Conversations *usecase.Conversations
	Social        *usecase.Social
	Articles      ports.ArticleStore
	Logger        *slog.Logger
	// AllowedOrigins feeds CORS; empty or "*" allows every origin.
	AllowedOrigins []string
}

// Handler holds the use cases behind the HTTP routes.
type Handler struct {
	capture       *usecase.CaptureQueue
	governance    *usecase.Governance
	curation      *usecase.Curation
	conversations *usecase.Conversations
	social        *usecase.Social
	articles      ports.ArticleStore
	logger        *slog.Logger
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(deps Deps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	h := &Handler{
		capture:       deps.Capture,
		governance:    deps.Governance,
		curation:      deps.Curation,
		conversations: deps.Conversations,
		social:        deps.Social,
		articles:      deps.Articles,
		logger:        logger,
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger), prometheusMiddleware(), cors.New(corsConfig(deps.AllowedOrigins)))

	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.POST("/chat", h.chat)
		api.POST("/conversations", h.enqueueConversation)

		api.POST("/queue/process", h.processQueue)
		api.GET("/queue/status", h.queueStatus)
		api.GET("/queue/metrics", h.queueMetrics)
		api.POST("/queue/:id/consent", h.grantConsent)

		api.POST("/stories/:id/validation", h.submitForValidation)
		api.POST("/decisions/:id/votes", h.castVote)
		api.GET("/governance/dashboard", h.dashboard)
		api.POST("/governance/curate", h.curateForFeaturing)

		api.POST("/curation/sessions", h.runCurationSession)
		api.GET("/curation/metrics", h.curationMetrics)

		api.GET("/articles", h.listArticles)
		api.GET("/articles/:id", h.getArticle)

		api.GET("/social/shareable", h.shareable)
		api.GET("/social/trending", h.trending)
		api.POST("/social/amplify", h.amplify)
	}
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	cfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	cfg.MaxAge = 12 * time.Hour
	return cfg
}
