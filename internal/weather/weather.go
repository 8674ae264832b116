// Package weather classifies forecast days and filters activities by
// their weather preference. Forecast data comes from an
// OpenWeatherMap-compatible 5-day/3-hour endpoint.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ausflug/ausflug/pkg/models"
)

// Status is the day-level weather classification.
type Status string

const (
	StatusGood      Status = "good"
	StatusBad       Status = "bad"
	StatusUncertain Status = "uncertain"
	// StatusUnknown means no forecast was available; filtering treats
	// it permissively.
	StatusUnknown Status = "unknown"
)

const defaultBaseURL = "https://api.openweathermap.org/data/2.5"

// ForecastEntry is one 3-hour forecast slot.
type ForecastEntry struct {
	Time        time.Time
	Temp        float64
	Main        string
	Description string
	Icon        string
}

// Provider yields the forecast entries falling on a given day.
type Provider interface {
	ForecastForDay(ctx context.Context, lat, lon float64, day time.Time) ([]ForecastEntry, error)
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewClient(apiKey, baseURL string, timeout time.Duration, logger *logrus.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type forecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
	} `json:"list"`
}

// ForecastForDay fetches the 5-day forecast and keeps the slots whose
// UTC date matches the requested day.
func (c *Client) ForecastForDay(ctx context.Context, lat, lon float64, day time.Time) ([]ForecastEntry, error) {
	endpoint := fmt.Sprintf("%s/forecast?lat=%s&lon=%s&units=metric&appid=%s",
		c.baseURL,
		url.QueryEscape(fmt.Sprintf("%.4f", lat)),
		url.QueryEscape(fmt.Sprintf("%.4f", lon)),
		url.QueryEscape(c.apiKey),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build forecast request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forecast request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("forecast request returned status %d", resp.StatusCode)
	}

	var parsed forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode forecast response: %w", err)
	}

	y, m, d := day.UTC().Date()
	var entries []ForecastEntry
	for _, slot := range parsed.List {
		t := time.Unix(slot.Dt, 0).UTC()
		ey, em, ed := t.Date()
		if ey != y || em != m || ed != d {
			continue
		}
		entry := ForecastEntry{Time: t, Temp: slot.Main.Temp}
		if len(slot.Weather) > 0 {
			entry.Main = slot.Weather[0].Main
			entry.Description = slot.Weather[0].Description
			entry.Icon = slot.Weather[0].Icon
		}
		entries = append(entries, entry)
	}

	c.logger.WithFields(logrus.Fields{
		"lat":     lat,
		"lon":     lon,
		"day":     day.Format("2006-01-02"),
		"entries": len(entries),
	}).Debug("Forecast fetched")
	return entries, nil
}

// DayStatus classifies a day from its forecast entries. The
// representative slot is the first at or after 12:00 UTC, falling back
// to the first available. Light rain and drizzle stay uncertain;
// heavier precipitation, storms and the fog family count as bad; a
// clear sky is good.
func DayStatus(entries []ForecastEntry) Status {
	if len(entries) == 0 {
		return StatusUnknown
	}
	entry := entries[0]
	for _, e := range entries {
		if e.Time.Hour() >= 12 {
			entry = e
			break
		}
	}

	main := strings.ToLower(entry.Main)
	desc := strings.ToLower(entry.Description)

	if strings.Contains(desc, "light rain") || strings.Contains(main, "drizzle") {
		return StatusUncertain
	}
	for _, bad := range []string{
		"rain", "snow", "thunderstorm", "squall", "tornado",
		"mist", "smoke", "haze", "dust", "fog", "sand", "ash",
	} {
		if strings.Contains(main, bad) {
			return StatusBad
		}
	}
	if strings.Contains(main, "clear") {
		return StatusGood
	}
	return StatusUncertain
}

// FilterActivities drops activities whose weather preference conflicts
// with the forecast for the given day. Activities without coordinates
// and days without a forecast are always kept; lookup failures degrade
// to keeping the activity. Returns the kept activities and the status
// per activity ID.
func FilterActivities(ctx context.Context, p Provider, activities []models.Activity, day time.Time, logger *logrus.Logger) ([]models.Activity, map[int64]Status) {
	if logger == nil {
		logger = logrus.New()
	}
	kept := make([]models.Activity, 0, len(activities))
	statuses := make(map[int64]Status, len(activities))

	for i := range activities {
		a := activities[i]
		status := StatusUnknown
		if p != nil && a.HasCoordinates() {
			entries, err := p.ForecastForDay(ctx, *a.Lat, *a.Lon, day)
			if err != nil {
				logger.WithError(err).WithField("activity_id", a.ID).Warn("Forecast lookup failed")
			} else {
				status = DayStatus(entries)
			}
		}
		statuses[a.ID] = status

		if keepForWeather(a.WeatherPref, status) {
			kept = append(kept, a)
		}
	}
	return kept, statuses
}

// keepForWeather applies the activity's preference: sun-only drops bad
// days, rain-only keeps only bad or unknown days, anything else always
// matches.
func keepForWeather(pref string, status Status) bool {
	switch pref {
	case models.WeatherSunOnly:
		return status != StatusBad
	case models.WeatherRainOnly:
		return status == StatusBad || status == StatusUnknown
	default:
		return true
	}
}
