package services

import (
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ausflug/ausflug/internal/config"
	"github.com/ausflug/ausflug/internal/messaging"
	"github.com/ausflug/ausflug/internal/session"
)

// Services bundles everything the handlers need.
type Services struct {
	Recommendation *RecommendationService
	Health         *HealthService
	Auth           *AuthService
	Sessions       *session.Store
}

func New(
	cfg *config.Config,
	logger *logrus.Logger,
	sessions *session.Store,
	publisher messaging.Publisher,
	cache *redis.Client,
) *Services {
	recommendation := NewRecommendationService(cfg, logger, sessions, publisher, cache)
	return &Services{
		Recommendation: recommendation,
		Health:         NewHealthService(recommendation, cache, logger),
		Auth:           NewAuthService(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL),
		Sessions:       sessions,
	}
}
