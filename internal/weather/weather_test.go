package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ausflug/ausflug/pkg/models"
)

func entryAt(hour int, main, desc string) ForecastEntry {
	return ForecastEntry{
		Time:        time.Date(2026, 7, 15, hour, 0, 0, 0, time.UTC),
		Main:        main,
		Description: desc,
	}
}

func TestDayStatus(t *testing.T) {
	tests := []struct {
		name    string
		entries []ForecastEntry
		want    Status
	}{
		{"no forecast", nil, StatusUnknown},
		{"clear midday", []ForecastEntry{entryAt(12, "Clear", "clear sky")}, StatusGood},
		{"heavy rain", []ForecastEntry{entryAt(15, "Rain", "heavy intensity rain")}, StatusBad},
		{"light rain stays uncertain", []ForecastEntry{entryAt(12, "Rain", "light rain")}, StatusUncertain},
		{"drizzle stays uncertain", []ForecastEntry{entryAt(12, "Drizzle", "light intensity drizzle")}, StatusUncertain},
		{"fog is bad", []ForecastEntry{entryAt(12, "Fog", "fog")}, StatusBad},
		{"clouds are uncertain", []ForecastEntry{entryAt(12, "Clouds", "scattered clouds")}, StatusUncertain},
		{
			"midday slot wins over morning",
			[]ForecastEntry{entryAt(9, "Rain", "heavy rain"), entryAt(12, "Clear", "clear sky")},
			StatusGood,
		},
		{
			"morning slot used when no midday data",
			[]ForecastEntry{entryAt(6, "Snow", "light snow"), entryAt(9, "Snow", "snow")},
			StatusBad,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DayStatus(tt.entries))
		})
	}
}

func TestKeepForWeather(t *testing.T) {
	assert.True(t, keepForWeather(models.WeatherAny, StatusBad))
	assert.True(t, keepForWeather(models.WeatherSunOnly, StatusGood))
	assert.True(t, keepForWeather(models.WeatherSunOnly, StatusUncertain))
	assert.False(t, keepForWeather(models.WeatherSunOnly, StatusBad))
	assert.True(t, keepForWeather(models.WeatherRainOnly, StatusBad))
	assert.True(t, keepForWeather(models.WeatherRainOnly, StatusUnknown))
	assert.False(t, keepForWeather(models.WeatherRainOnly, StatusGood))
}

func TestClientForecastForDay(t *testing.T) {
	day := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)
	sameDay := day.Add(12 * time.Hour).Unix()
	nextDay := day.Add(36 * time.Hour).Unix()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))

		fmt.Fprintf(w, `{"list": [
			{"dt": %d, "main": {"temp": 21.5}, "weather": [{"main": "Clear", "description": "clear sky", "icon": "01d"}]},
			{"dt": %d, "main": {"temp": 14.0}, "weather": [{"main": "Rain", "description": "heavy rain", "icon": "10d"}]}
		]}`, sameDay, nextDay)
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, time.Second, nil)
	entries, err := client.ForecastForDay(context.Background(), 47.42, 9.37, day)
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, "Clear", entries[0].Main)
	assert.InDelta(t, 21.5, entries[0].Temp, 1e-9)
}

func TestClientForecastForDayErrors(t *testing.T) {
	t.Run("non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		client := NewClient("bad-key", server.URL, time.Second, nil)
		_, err := client.ForecastForDay(context.Background(), 47.42, 9.37, time.Now())
		assert.ErrorContains(t, err, "status 401")
	})

	t.Run("malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "not json")
		}))
		defer server.Close()

		client := NewClient("key", server.URL, time.Second, nil)
		_, err := client.ForecastForDay(context.Background(), 47.42, 9.37, time.Now())
		assert.ErrorContains(t, err, "decode")
	})
}

type stubProvider struct {
	status map[string]string
	err    error
}

func (s *stubProvider) ForecastForDay(_ context.Context, lat, _ float64, _ time.Time) ([]ForecastEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	main := s.status[fmt.Sprintf("%.2f", lat)]
	if main == "" {
		return nil, nil
	}
	return []ForecastEntry{entryAt(12, main, "")}, nil
}

func TestFilterActivities(t *testing.T) {
	lat1, lon1 := 47.10, 9.00
	lat2, lon2 := 47.20, 9.10
	activities := []models.Activity{
		{ID: 1, WeatherPref: models.WeatherSunOnly, Lat: &lat1, Lon: &lon1},
		{ID: 2, WeatherPref: models.WeatherRainOnly, Lat: &lat1, Lon: &lon1},
		{ID: 3, WeatherPref: models.WeatherSunOnly, Lat: &lat2, Lon: &lon2},
		{ID: 4, WeatherPref: models.WeatherSunOnly}, // no coordinates
	}
	day := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)

	t.Run("preferences applied per forecast", func(t *testing.T) {
		provider := &stubProvider{status: map[string]string{
			"47.10": "Rain",
			"47.20": "Clear",
		}}
		kept, statuses := FilterActivities(context.Background(), provider, activities, day, nil)

		ids := make([]int64, 0, len(kept))
		for _, a := range kept {
			ids = append(ids, a.ID)
		}
		assert.NotContains(t, ids, int64(1)) // sun-only on a bad day
		assert.Contains(t, ids, int64(2))    // rain-only on a bad day
		assert.Contains(t, ids, int64(3))    // sun-only on a good day
		assert.Contains(t, ids, int64(4))    // no coordinates, always kept

		assert.Equal(t, StatusBad, statuses[1])
		assert.Equal(t, StatusGood, statuses[3])
		assert.Equal(t, StatusUnknown, statuses[4])
	})

	t.Run("lookup failure keeps the activity", func(t *testing.T) {
		provider := &stubProvider{err: assert.AnError}
		kept, statuses := FilterActivities(context.Background(), provider, activities, day, nil)
		assert.Len(t, kept, len(activities))
		assert.Equal(t, StatusUnknown, statuses[1])
	})

	t.Run("nil provider keeps everything", func(t *testing.T) {
		kept, _ := FilterActivities(context.Background(), nil, activities, day, nil)
		assert.Len(t, kept, len(activities))
	})
}
