// Package dataset loads the activity catalog from CSV files or
// Postgres. Loading is the one place where missing values are replaced
// by their documented substitutes; downstream code never sees NaN or
// sentinel numbers.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xeipuuv/gojsonschema"

	"github.com/ausflug/ausflug/pkg/models"
)

// activitySchema validates one parsed CSV record before it becomes an
// Activity. Structural problems with identity or numeric columns are
// hard failures; everything else degrades to defaults.
const activitySchema = `{
	"type": "object",
	"required": ["id"],
	"properties": {
		"id": {"type": "integer", "minimum": 0},
		"price": {"type": "number", "minimum": 0},
		"latitude": {"type": "number", "minimum": -90, "maximum": 90},
		"longitude": {"type": "number", "minimum": -180, "maximum": 180},
		"min_persons": {"type": "integer", "minimum": 1},
		"max_persons": {"type": "integer", "minimum": 1},
		"weather_pref": {"type": "string", "enum": ["any", "sun-only", "rain-only"]}
	}
}`

const dateLayout = "2006-01-02"

type Loader struct {
	schema *gojsonschema.Schema
	logger *logrus.Logger
}

func NewLoader(logger *logrus.Logger) (*Loader, error) {
	if logger == nil {
		logger = logrus.New()
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(activitySchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile activity schema: %w", err)
	}
	return &Loader{schema: schema, logger: logger}, nil
}

func (l *Loader) LoadFile(path string) ([]models.Activity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()
	return l.Load(f)
}

// Load parses, validates and normalizes a CSV activity table. Missing
// or duplicate IDs abort the load; all other per-field problems fall
// back to the documented defaults.
func (l *Loader) Load(r io.Reader) ([]models.Activity, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols["id"]; !ok {
		return nil, fmt.Errorf("dataset has no id column")
	}

	var activities []models.Activity
	seen := make(map[int64]bool)
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read dataset line %d: %w", line, err)
		}

		activity, err := l.parseRecord(record, cols)
		if err != nil {
			return nil, fmt.Errorf("invalid record at line %d: %w", line, err)
		}
		if seen[activity.ID] {
			return nil, fmt.Errorf("duplicate activity id %d at line %d", activity.ID, line)
		}
		seen[activity.ID] = true
		activities = append(activities, activity)
	}

	l.logger.WithField("activities", len(activities)).Info("Activity dataset loaded")
	return activities, nil
}

func (l *Loader) parseRecord(record []string, cols map[string]int) (models.Activity, error) {
	field := func(name string) string {
		if i, ok := cols[name]; ok && i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	doc := map[string]interface{}{}
	idStr := field("id")
	if idStr == "" {
		return models.Activity{}, fmt.Errorf("missing id")
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return models.Activity{}, fmt.Errorf("non-integer id %q", idStr)
	}
	doc["id"] = id

	price := parseFloatField(field("price"), doc, "price")
	lat := parseFloatPtr(field("latitude"), doc, "latitude")
	lon := parseFloatPtr(field("longitude"), doc, "longitude")
	minP := parseIntPtr(field("min_persons"), doc, "min_persons")
	maxP := parseIntPtr(field("max_persons"), doc, "max_persons")
	if pref := field("weather_pref"); pref != "" {
		doc["weather_pref"] = pref
	}

	result, err := l.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return models.Activity{}, fmt.Errorf("schema validation failed: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return models.Activity{}, fmt.Errorf("schema violations: %s", strings.Join(msgs, "; "))
	}

	activity := models.Activity{
		ID:            id,
		Name:          field("name"),
		Description:   field("description"),
		Category:      defaultString(field("category"), "unknown"),
		TargetGroups:  field("target_groups"),
		Price:         price,
		PriceInfo:     field("price_info"),
		Setting:       defaultString(field("indoor_outdoor"), "mixed"),
		Venue:         field("venue"),
		Address:       field("address"),
		Lat:           lat,
		Lon:           lon,
		WeatherPref:   defaultString(field("weather_pref"), models.WeatherAny),
		AvailableFrom: parseDatePtr(field("available_from")),
		AvailableTo:   parseDatePtr(field("available_to")),
		MinPersons:    minP,
		MaxPersons:    maxP,
		DurationInfo:  field("duration_info"),
		Website:       field("website"),
		ImageURL:      field("image_url"),
	}
	return activity, nil
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// parseFloatField reads a price-like column; unparseable or missing
// values become 0.
func parseFloatField(v string, doc map[string]interface{}, key string) float64 {
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	doc[key] = f
	return f
}

func parseFloatPtr(v string, doc map[string]interface{}, key string) *float64 {
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	doc[key] = f
	return &f
}

func parseIntPtr(v string, doc map[string]interface{}, key string) *int {
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	doc[key] = n
	return &n
}

func parseDatePtr(v string) *time.Time {
	if v == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil
	}
	return &t
}
