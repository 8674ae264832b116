package dataset

import (
	"context"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activityColumns() []string {
	return []string{
		"id", "name", "description", "category", "target_groups", "price",
		"price_info", "indoor_outdoor", "venue", "address", "latitude",
		"longitude", "weather_pref", "available_from", "available_to",
		"min_persons", "max_persons", "duration_info", "website", "image_url",
	}
}

func TestRepositoryListActivities(t *testing.T) {
	t.Run("scans rows and applies defaults", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		lat, lon := 47.42, 9.37
		rows := pgxmock.NewRows(activityColumns()).
			AddRow(int64(1), "River Kayaking", "paddle the rapids", "Sport", "Adults",
				45.0, "", "outdoor", "Boathouse", "", &lat, &lon, "sun-only",
				nil, nil, nil, nil, "", "", "").
			AddRow(int64(2), "Board Games", "", "", "",
				0.0, "", "", "", "", nil, nil, "",
				nil, nil, nil, nil, "", "", "")

		mock.ExpectQuery("SELECT id, name, description").WillReturnRows(rows)

		repo := NewRepository(mock, nil)
		activities, err := repo.ListActivities(context.Background())
		require.NoError(t, err)
		require.Len(t, activities, 2)

		assert.Equal(t, "Sport", activities[0].Category)
		require.NotNil(t, activities[0].Lat)
		assert.InDelta(t, 47.42, *activities[0].Lat, 1e-9)

		assert.Equal(t, "unknown", activities[1].Category)
		assert.Equal(t, "mixed", activities[1].Setting)
		assert.Equal(t, "any", activities[1].WeatherPref)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate ids rejected", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		rows := pgxmock.NewRows(activityColumns()).
			AddRow(int64(1), "", "", "", "", 0.0, "", "", "", "", nil, nil, "",
				nil, nil, nil, nil, "", "", "").
			AddRow(int64(1), "", "", "", "", 0.0, "", "", "", "", nil, nil, "",
				nil, nil, nil, nil, "", "", "")

		mock.ExpectQuery("SELECT id, name, description").WillReturnRows(rows)

		repo := NewRepository(mock, nil)
		_, err = repo.ListActivities(context.Background())
		assert.ErrorContains(t, err, "duplicate activity id")
	})

	t.Run("query failure wrapped", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("SELECT id, name, description").WillReturnError(assert.AnError)

		repo := NewRepository(mock, nil)
		_, err = repo.ListActivities(context.Background())
		assert.ErrorContains(t, err, "failed to query activities")
	})
}
