package models

import (
	"strings"
	"time"
)

// Weather preference values an activity may declare.
const (
	WeatherAny      = "any"
	WeatherSunOnly  = "sun-only"
	WeatherRainOnly = "rain-only"
)

// Activity is one row of the activity catalog. Optional fields use
// pointers: a nil Lat/Lon means the venue has no usable coordinates,
// nil AvailableFrom/AvailableTo means the window is open on that side,
// nil MinPersons means 1 and nil MaxPersons means unbounded.
type Activity struct {
	ID            int64      `json:"id" validate:"required,gte=0"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Category      string     `json:"category"`
	TargetGroups  string     `json:"target_groups"`
	Price         float64    `json:"price" validate:"gte=0"`
	PriceInfo     string     `json:"price_info,omitempty"`
	Setting       string     `json:"indoor_outdoor"`
	Venue         string     `json:"venue,omitempty"`
	Address       string     `json:"address,omitempty"`
	Lat           *float64   `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Lon           *float64   `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	WeatherPref   string     `json:"weather_pref" validate:"omitempty,oneof=any sun-only rain-only"`
	AvailableFrom *time.Time `json:"available_from,omitempty"`
	AvailableTo   *time.Time `json:"available_to,omitempty"`
	MinPersons    *int       `json:"min_persons,omitempty" validate:"omitempty,gte=1"`
	MaxPersons    *int       `json:"max_persons,omitempty" validate:"omitempty,gte=1"`
	DurationInfo  string     `json:"duration_info,omitempty"`
	Website       string     `json:"website,omitempty"`
	ImageURL      string     `json:"image_url,omitempty"`
}

// TargetGroupList splits the comma-separated target groups into a
// trimmed list with empty entries dropped.
func (a *Activity) TargetGroupList() []string {
	if a.TargetGroups == "" {
		return nil
	}
	parts := strings.Split(a.TargetGroups, ",")
	groups := make([]string, 0, len(parts))
	for _, p := range parts {
		if g := strings.TrimSpace(p); g != "" {
			groups = append(groups, g)
		}
	}
	return groups
}

// HasCoordinates reports whether the activity carries a usable lat/lon pair.
func (a *Activity) HasCoordinates() bool {
	return a.Lat != nil && a.Lon != nil
}
