// Package filter narrows the activity catalog by the manual search
// criteria before any personalization happens. All filters are pure
// functions over the activity slice.
package filter

import (
	"strings"
	"time"

	"github.com/ausflug/ausflug/pkg/models"
)

// Group-size categories selectable in a search.
type GroupSize string

const (
	GroupAny          GroupSize = ""
	GroupSolo         GroupSize = "solo"
	GroupPair         GroupSize = "pair"
	GroupUpToFour     GroupSize = "up-to-four"
	GroupMoreThanFour GroupSize = "more-than-four"
	GroupSmall        GroupSize = "small-group"
	GroupLarge        GroupSize = "large-group"
)

// Criteria is one manual search. Nil fields mean "do not filter on
// this".
type Criteria struct {
	Date      *time.Time
	Category  string
	Group     GroupSize
	MaxBudget *float64
}

// Apply returns the activities matching all set criteria, preserving
// table order.
func Apply(activities []models.Activity, c Criteria) []models.Activity {
	matched := make([]models.Activity, 0, len(activities))
	for i := range activities {
		a := &activities[i]
		if !matchesDate(a, c.Date) {
			continue
		}
		if c.Category != "" && !strings.EqualFold(a.Category, c.Category) {
			continue
		}
		if !matchesGroup(a, c.Group) {
			continue
		}
		if c.MaxBudget != nil && a.Price > *c.MaxBudget {
			continue
		}
		matched = append(matched, *a)
	}
	return matched
}

// matchesDate checks the availability window. A nil boundary leaves the
// window open on that side.
func matchesDate(a *models.Activity, date *time.Time) bool {
	if date == nil {
		return true
	}
	d := date.Truncate(24 * time.Hour)
	if a.AvailableFrom != nil && d.Before(a.AvailableFrom.Truncate(24*time.Hour)) {
		return false
	}
	if a.AvailableTo != nil && d.After(a.AvailableTo.Truncate(24*time.Hour)) {
		return false
	}
	return true
}

// matchesGroup checks the party size against the activity's person
// bounds. A nil minimum means 1, a nil maximum means unbounded.
func matchesGroup(a *models.Activity, group GroupSize) bool {
	if group == GroupAny {
		return true
	}
	min := 1
	if a.MinPersons != nil {
		min = *a.MinPersons
	}
	max := -1 // unbounded
	if a.MaxPersons != nil {
		max = *a.MaxPersons
	}

	fits := func(size int) bool {
		return min <= size && (max < 0 || size <= max)
	}
	fitsRange := func(lo, hi int) bool {
		for s := lo; s <= hi; s++ {
			if fits(s) {
				return true
			}
		}
		return false
	}

	switch group {
	case GroupSolo:
		return fits(1)
	case GroupPair:
		return fits(2)
	case GroupUpToFour:
		return fitsRange(1, 4)
	case GroupMoreThanFour:
		return max < 0 || max > 4
	case GroupSmall:
		return fitsRange(3, 6)
	case GroupLarge:
		return max < 0 || max >= 7
	default:
		return true
	}
}
