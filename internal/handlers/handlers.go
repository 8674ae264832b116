package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/ausflug/ausflug/internal/config"
	"github.com/ausflug/ausflug/internal/llmfilter"
	"github.com/ausflug/ausflug/internal/services"
	"github.com/ausflug/ausflug/internal/weather"
)

// Handlers bundles all HTTP handlers for route registration.
type Handlers struct {
	Session        *SessionHandler
	Rating         *RatingHandler
	Recommendation *RecommendationHandler
	Preference     *PreferenceHandler
	Activity       *ActivityHandler
	Health         *HealthHandler
}

func New(
	cfg *config.Config,
	svcs *services.Services,
	weatherProvider weather.Provider,
	llm *llmfilter.Client,
	logger *logrus.Logger,
) *Handlers {
	return &Handlers{
		Session:        NewSessionHandler(svcs, logger),
		Rating:         NewRatingHandler(svcs.Recommendation, logger),
		Recommendation: NewRecommendationHandler(svcs.Recommendation, cfg, logger),
		Preference:     NewPreferenceHandler(svcs.Recommendation, logger),
		Activity:       NewActivityHandler(svcs.Recommendation, weatherProvider, llm, logger),
		Health:         NewHealthHandler(svcs.Health, logger),
	}
}
