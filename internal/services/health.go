package services

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type HealthService struct {
	recommendation *RecommendationService
	cache          *redis.Client
	logger         *logrus.Logger
	started        time.Time
}

func NewHealthService(recommendation *RecommendationService, cache *redis.Client, logger *logrus.Logger) *HealthService {
	return &HealthService{
		recommendation: recommendation,
		cache:          cache,
		logger:         logger,
		started:        time.Now(),
	}
}

// Check reports service health. The service is degraded when the
// catalog is empty or has no feature matrix; a failing redis only
// degrades, it never fails the check.
func (h *HealthService) Check(ctx context.Context) map[string]interface{} {
	status := "ok"

	activities, matrix := h.recommendation.snapshot()
	dataset := map[string]interface{}{
		"activities": len(activities),
	}
	if matrix != nil {
		dataset["features"] = matrix.Cols()
		dataset["hash"] = matrix.DatasetHash[:12]
	} else {
		status = "degraded"
	}
	if len(activities) == 0 {
		status = "degraded"
	}

	result := map[string]interface{}{
		"status":         status,
		"uptime_seconds": int(time.Since(h.started).Seconds()),
		"sessions":       h.recommendation.sessions.Len(),
		"dataset":        dataset,
	}

	if h.cache != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := h.cache.Ping(pingCtx).Err(); err != nil {
			h.logger.WithError(err).Warn("Redis ping failed")
			result["cache"] = "unavailable"
			result["status"] = "degraded"
		} else {
			result["cache"] = "ok"
		}
	}

	return result
}
