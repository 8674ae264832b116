package recommender

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/ausflug/ausflug/pkg/models"
)

// rowIndex maps activity IDs to their table row. The loader rejects
// duplicate IDs; should one slip through, the first occurrence wins.
func rowIndex(activities []models.Activity) map[int64]int {
	idx := make(map[int64]int, len(activities))
	for i := range activities {
		if _, ok := idx[activities[i].ID]; !ok {
			idx[activities[i].ID] = i
		}
	}
	return idx
}

// BuildProfile returns the taste profile as the arithmetic mean of the
// feature rows of all resolvable liked activities. Disliked IDs are
// accepted for interface symmetry but contribute nothing; they only
// matter downstream for exclusion. The second return is false when the
// matrix is unavailable, the table is empty, there are no likes, or no
// liked ID resolves to a row.
func BuildProfile(liked, disliked []int64, m *FeatureMatrix, activities []models.Activity) ([]float64, bool) {
	_ = disliked

	if m == nil || m.Data == nil || len(activities) == 0 || len(liked) == 0 {
		return nil, false
	}

	rows, cols := m.Data.Dims()
	idx := rowIndex(activities)

	profile := make([]float64, cols)
	resolved := 0
	for _, id := range liked {
		row, ok := idx[id]
		if !ok || row >= rows {
			continue
		}
		floats.Add(profile, mat.Row(nil, row, m.Data))
		resolved++
	}
	if resolved == 0 {
		return nil, false
	}
	floats.Scale(1/float64(resolved), profile)
	return profile, true
}
