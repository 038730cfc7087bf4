package api

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/m1chalz/AI-First-sub005/internal/announcement"
	annHttp "github.com/m1chalz/AI-First-sub005/internal/announcement/http"
	"github.com/m1chalz/AI-First-sub005/internal/auth"
	"github.com/m1chalz/AI-First-sub005/internal/photo"
	photoHttp "github.com/m1chalz/AI-First-sub005/internal/photo/http"
)

type Config struct {
	IsProduction bool
	ProdOrigins  string

	AnnouncementService announcement.Service
	PhotoService        photo.Service
	PhotoMaxBytes       int64
	JWTManager          *auth.JWTManager
	Readiness           ReadinessChecker
	Logger              *zap.Logger
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Metrics, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(Recovery(log), RequestLogger(log), Metrics())

	// Configure CORS (Cross-Origin Resource Sharing).
	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction {
		corsConfig.AllowOrigins = splitOrigins(cfg.ProdOrigins)
		if len(corsConfig.AllowOrigins) == 0 {
			// No cross-origin callers allowed.
			corsConfig.AllowOriginFunc = func(string) bool { return false }
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", photoHttp.PasswordHeader}
	r.Use(cors.New(corsConfig))

	// Health and metrics
	health := &healthHandler{checker: cfg.Readiness, log: log}
	r.GET("/health/live", health.Live)
	r.GET("/health/ready", health.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// authMiddleware: Validates if the request contains a valid JWT.
	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	// adminMiddleware: Further checks that the token carries the admin role.
	adminMiddleware := auth.RequireAdmin()

	annHandler := annHttp.NewHandler(cfg.AnnouncementService, log)
	photoHandler := photoHttp.NewHandler(cfg.PhotoService, log, cfg.PhotoMaxBytes)

	v1 := r.Group("/api/v1")
	{
		annHttp.RegisterRoutes(v1, annHandler, authMiddleware, adminMiddleware)
		photoHttp.RegisterRoutes(v1, r, photoHandler)
	}

	return r
}

func splitOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
