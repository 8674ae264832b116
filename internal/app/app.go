package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ausflug/ausflug/internal/config"
	"github.com/ausflug/ausflug/internal/dataset"
	"github.com/ausflug/ausflug/internal/handlers"
	"github.com/ausflug/ausflug/internal/llmfilter"
	"github.com/ausflug/ausflug/internal/messaging"
	"github.com/ausflug/ausflug/internal/middleware"
	"github.com/ausflug/ausflug/internal/services"
	"github.com/ausflug/ausflug/internal/session"
	"github.com/ausflug/ausflug/internal/weather"
	"github.com/ausflug/ausflug/pkg/models"
)

type App struct {
	config    *config.Config
	logger    *logrus.Logger
	sessions  *session.Store
	services  *services.Services
	handlers  *handlers.Handlers
	router    *gin.Engine
	cache     *redis.Client
	pool      *pgxpool.Pool
	publisher messaging.Publisher
}

func New(cfg *config.Config) (*App, error) {
	app := &App{
		config: cfg,
		logger: setupLogger(cfg),
	}

	if cfg.Redis.Enabled {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		opts.PoolSize = cfg.Redis.PoolSize
		opts.DialTimeout = cfg.Redis.Timeout
		app.cache = redis.NewClient(opts)
	}

	app.publisher = messaging.NoopPublisher{}
	if cfg.Kafka.Enabled {
		app.publisher = messaging.NewKafkaPublisher(cfg.Kafka, app.logger)
	}

	app.sessions = session.NewStore(cfg.Auth.SessionTTL, app.logger)
	app.services = services.New(cfg, app.logger, app.sessions, app.publisher, app.cache)

	activities, err := app.loadActivities()
	if err != nil {
		return nil, fmt.Errorf("failed to load activity catalog: %w", err)
	}
	if err := app.services.Recommendation.LoadDataset(activities); err != nil {
		return nil, fmt.Errorf("failed to prepare recommendation engine: %w", err)
	}

	var weatherProvider weather.Provider
	if cfg.Weather.Enabled {
		weatherProvider = weather.NewClient(cfg.Weather.APIKey, cfg.Weather.BaseURL, cfg.Weather.Timeout, app.logger)
	}

	var llm *llmfilter.Client
	if cfg.LLM.Enabled {
		llm, err = llmfilter.New(cfg.LLM, app.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize query extraction: %w", err)
		}
	}

	app.handlers = handlers.New(cfg, app.services, weatherProvider, llm, app.logger)
	app.setupRouter()

	return app, nil
}

func (a *App) loadActivities() ([]models.Activity, error) {
	switch a.config.Dataset.Source {
	case "postgres":
		pool, err := pgxpool.New(context.Background(), a.config.Dataset.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		a.pool = pool
		return dataset.NewRepository(pool, a.logger).ListActivities(context.Background())
	default:
		loader, err := dataset.NewLoader(a.logger)
		if err != nil {
			return nil, err
		}
		return loader.LoadFile(a.config.Dataset.Path)
	}
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application...")

	a.sessions.Close()
	if err := a.publisher.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing rating publisher")
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.WithError(err).Error("Error closing redis client")
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	return nil
}

func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

func (a *App) setupRouter() {
	if a.config.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Logger(a.logger))
	router.Use(middleware.Recovery(a.logger))
	router.Use(middleware.CORS(a.config))

	router.GET("/health", a.handlers.Health.Get)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		api.POST("/sessions", a.handlers.Session.Create)
		api.GET("/activities", a.handlers.Activity.List)

		authed := api.Group("")
		authed.Use(middleware.SessionAuth(a.services.Auth, a.sessions, a.logger))
		{
			authed.DELETE("/sessions/current", a.handlers.Session.Reset)
			authed.POST("/ratings", a.handlers.Rating.Create)
			authed.GET("/recommendations", a.handlers.Recommendation.Get)
			authed.GET("/suggestions", a.handlers.Recommendation.Suggestions)
			authed.GET("/preferences", a.handlers.Preference.Get)
		}
	}

	a.router = router
}
