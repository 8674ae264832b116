package recommender

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/ausflug/ausflug/pkg/models"
)

type scoredRow struct {
	row   int
	score float64
}

// cosineSimilarity is 0 for zero-norm vectors so empty descriptions
// never rank above real matches.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	na := floats.Norm(a, 2)
	nb := floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	s := floats.Dot(a, b) / (na * nb)
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0
	}
	return s
}

// rank scores every matrix row against the profile and sorts by
// descending similarity. The stable sort keeps equal-scoring rows in
// table order.
func rank(profile []float64, m *FeatureMatrix) []scoredRow {
	rows, _ := m.Data.Dims()
	scored := make([]scoredRow, rows)
	for i := 0; i < rows; i++ {
		scored[i] = scoredRow{
			row:   i,
			score: cosineSimilarity(profile, mat.Row(nil, i, m.Data)),
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	return scored
}

// Recommend walks the similarity ranking and collects up to n activity
// IDs, skipping everything the session has already rated. Returns an
// empty slice whenever inputs do not permit ranking; it never fails.
func Recommend(profile []float64, m *FeatureMatrix, activities []models.Activity, rated map[int64]bool, n int) []int64 {
	if profile == nil || m == nil || m.Data == nil || len(activities) == 0 || n <= 0 {
		return []int64{}
	}

	result := make([]int64, 0, n)
	for _, s := range rank(profile, m) {
		if s.row >= len(activities) {
			continue
		}
		id := activities[s.row].ID
		if rated[id] {
			continue
		}
		result = append(result, id)
		if len(result) == n {
			break
		}
	}
	return result
}
