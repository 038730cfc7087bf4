package app

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/m1chalz/AI-First-sub005/internal/announcement"
	"github.com/m1chalz/AI-First-sub005/internal/api"
	"github.com/m1chalz/AI-First-sub005/internal/auth"
	"github.com/m1chalz/AI-First-sub005/internal/db"
	"github.com/m1chalz/AI-First-sub005/internal/photo"
	"github.com/m1chalz/AI-First-sub005/internal/pkg/storage"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	DBPool       *pgxpool.Pool
	Logger       *zap.Logger

	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int

	UploadDir           string
	PhotoMaxBytes       int64
	PhotoAllowOverwrite bool

	CacheSize int
	CacheTTL  time.Duration
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router              *gin.Engine
	JWTManager          *auth.JWTManager
	AnnouncementService announcement.Service
	PhotoService        photo.Service
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) (*Container, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	// Init Components
	passwordHasher := auth.NewBcryptPasswordHasherWithCost(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	photoStorage, err := storage.NewLocalStorage(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("failed to init photo storage: %w", err)
	}

	// Announcement Module
	annRepo := announcement.NewPgxRepository(cfg.DBPool)
	annService := announcement.NewService(annRepo, passwordHasher, photoStorage, log.Named("announcement"), announcement.Options{
		CacheSize: cfg.CacheSize,
		CacheTTL:  cfg.CacheTTL,
	})

	// Photo Module
	photoService := photo.NewService(annService, photoStorage, log.Named("photo"), photo.Options{
		AllowOverwrite: cfg.PhotoAllowOverwrite,
	})

	// Router
	router := api.NewRouter(api.Config{
		IsProduction:        cfg.IsProduction,
		ProdOrigins:         cfg.ProdOrigins,
		AnnouncementService: annService,
		PhotoService:        photoService,
		PhotoMaxBytes:       cfg.PhotoMaxBytes,
		JWTManager:          jwtManager,
		Readiness:           db.NewReadinessChecker(cfg.DBPool),
		Logger:              log.Named("http"),
	})

	return &Container{
		Router:              router,
		JWTManager:          jwtManager,
		AnnouncementService: annService,
		PhotoService:        photoService,
	}, nil
}
