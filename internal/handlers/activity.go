package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ausflug/ausflug/internal/filter"
	"github.com/ausflug/ausflug/internal/llmfilter"
	"github.com/ausflug/ausflug/internal/services"
	"github.com/ausflug/ausflug/internal/weather"
	"github.com/ausflug/ausflug/pkg/models"
)

type ActivityHandler struct {
	recommendation *services.RecommendationService
	weather        weather.Provider
	llm            *llmfilter.Client
	logger         *logrus.Logger
}

func NewActivityHandler(
	recommendation *services.RecommendationService,
	weatherProvider weather.Provider,
	llm *llmfilter.Client,
	logger *logrus.Logger,
) *ActivityHandler {
	return &ActivityHandler{
		recommendation: recommendation,
		weather:        weatherProvider,
		llm:            llm,
		logger:         logger,
	}
}

// List filters the catalog by the manual query parameters, or by a
// free-text query when `q` is given and the LLM bridge is configured.
// A failing LLM extraction falls back to the manual parameters.
func (h *ActivityHandler) List(c *gin.Context) {
	criteria, date := h.manualCriteria(c)

	if q := c.Query("q"); q != "" && h.llm != nil {
		if extracted, err := h.llm.ExtractFilters(c.Request.Context(), q, h.vocabulary()); err != nil {
			h.logger.WithError(err).WithField("query", q).Warn("Query extraction failed, using manual filters")
		} else {
			criteria = mergeCriteria(criteria, extracted)
		}
	}

	activities := filter.Apply(h.recommendation.Activities(), criteria)

	var statuses map[int64]weather.Status
	if c.Query("weather") == "true" && date != nil && h.weather != nil {
		activities, statuses = weather.FilterActivities(c.Request.Context(), h.weather, activities, *date, h.logger)
	}

	response := gin.H{
		"activities": activities,
		"count":      len(activities),
	}
	if statuses != nil {
		response["weather"] = statuses
	}
	c.JSON(http.StatusOK, response)
}

func (h *ActivityHandler) manualCriteria(c *gin.Context) (filter.Criteria, *time.Time) {
	criteria := filter.Criteria{
		Category: c.Query("category"),
		Group:    filter.GroupSize(c.Query("people")),
	}
	if budgetStr := c.Query("budget"); budgetStr != "" {
		if budget, err := strconv.ParseFloat(budgetStr, 64); err == nil && budget >= 0 {
			criteria.MaxBudget = &budget
		}
	}
	var date *time.Time
	if dateStr := c.Query("date"); dateStr != "" {
		if parsed, err := time.Parse("2006-01-02", dateStr); err == nil {
			date = &parsed
			criteria.Date = &parsed
		}
	}
	return criteria, date
}

// vocabulary lists the values the LLM is allowed to answer with,
// derived from the live catalog.
func (h *ActivityHandler) vocabulary() llmfilter.Vocabulary {
	activities := h.recommendation.Activities()
	categories := make(map[string]bool)
	targetGroups := make(map[string]bool)
	settings := make(map[string]bool)
	for i := range activities {
		categories[activities[i].Category] = true
		settings[activities[i].Setting] = true
		for _, g := range activities[i].TargetGroupList() {
			targetGroups[g] = true
		}
	}
	return llmfilter.Vocabulary{
		Categories:   keys(categories),
		TargetGroups: keys(targetGroups),
		Settings:     keys(settings),
		Groups: []string{
			string(filter.GroupSolo), string(filter.GroupPair),
			string(filter.GroupUpToFour), string(filter.GroupMoreThanFour),
			string(filter.GroupSmall), string(filter.GroupLarge),
		},
		WeatherPrefs: []string{models.WeatherAny, models.WeatherSunOnly, models.WeatherRainOnly},
	}
}

// mergeCriteria lets extracted values override manual ones where set.
func mergeCriteria(manual filter.Criteria, extracted *llmfilter.Filters) filter.Criteria {
	merged := manual
	if len(extracted.Categories) > 0 {
		merged.Category = extracted.Categories[0]
	}
	if extracted.Group != "" {
		merged.Group = filter.GroupSize(extracted.Group)
	}
	if extracted.MaxPrice != nil {
		merged.MaxBudget = extracted.MaxPrice
	}
	return merged
}

func keys(set map[string]bool) []string {
	result := make([]string, 0, len(set))
	for k := range set {
		result = append(result, k)
	}
	return result
}
