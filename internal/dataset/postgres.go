package dataset

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/ausflug/ausflug/pkg/models"
)

// Querier is the slice of pgx used by the repository; pgxpool.Pool and
// pgxmock both satisfy it.
type Querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// Repository reads the activity catalog from Postgres as an alternative
// to the CSV loader.
type Repository struct {
	db     Querier
	logger *logrus.Logger
}

func NewRepository(db Querier, logger *logrus.Logger) *Repository {
	if logger == nil {
		logger = logrus.New()
	}
	return &Repository{db: db, logger: logger}
}

// ListActivities loads the full catalog in id order. Nullable columns
// scan directly into the Activity pointer fields; the same default
// substitutions as the CSV path are applied afterwards.
func (r *Repository) ListActivities(ctx context.Context) ([]models.Activity, error) {
	query := `
		SELECT id, name, description, category, target_groups, price, price_info,
		       indoor_outdoor, venue, address, latitude, longitude, weather_pref,
		       available_from, available_to, min_persons, max_persons,
		       duration_info, website, image_url
		FROM activities
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var activities []models.Activity
	seen := make(map[int64]bool)
	for rows.Next() {
		var a models.Activity
		err := rows.Scan(
			&a.ID, &a.Name, &a.Description, &a.Category, &a.TargetGroups,
			&a.Price, &a.PriceInfo, &a.Setting, &a.Venue, &a.Address,
			&a.Lat, &a.Lon, &a.WeatherPref, &a.AvailableFrom, &a.AvailableTo,
			&a.MinPersons, &a.MaxPersons, &a.DurationInfo, &a.Website, &a.ImageURL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		if seen[a.ID] {
			return nil, fmt.Errorf("duplicate activity id %d", a.ID)
		}
		seen[a.ID] = true

		a.Category = defaultString(a.Category, "unknown")
		a.Setting = defaultString(a.Setting, "mixed")
		a.WeatherPref = defaultString(a.WeatherPref, models.WeatherAny)
		if a.Price < 0 {
			return nil, fmt.Errorf("negative price on activity %d", a.ID)
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activities: %w", err)
	}

	r.logger.WithField("activities", len(activities)).Info("Activity catalog loaded from Postgres")
	return activities, nil
}
