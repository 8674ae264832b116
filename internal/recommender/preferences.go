package recommender

import (
	"fmt"
	"sort"

	"github.com/ausflug/ausflug/pkg/models"
)

// specialPairs maps well-known top-two category combinations to bespoke
// profile names. Order within a pair does not matter.
var specialPairs = map[[2]string]string{
	{"Action", "Sport"}:  "Sport & Action Type",
	{"Hiking", "Nature"}: "Nature Lover",
	{"Food", "Shopping"}: "Food & Shopping Type",
}

// CategoryScores counts liked activities per category, sorted by count
// descending with alphabetical tie-break. False when there are no
// likes or none resolve.
func CategoryScores(liked []int64, activities []models.Activity) ([]models.CategoryScore, bool) {
	if len(liked) == 0 || len(activities) == 0 {
		return nil, false
	}
	idx := rowIndex(activities)
	counts := make(map[string]int)
	for _, id := range liked {
		row, ok := idx[id]
		if !ok {
			continue
		}
		counts[categoryOf(&activities[row])]++
	}
	if len(counts) == 0 {
		return nil, false
	}

	scores := make([]models.CategoryScore, 0, len(counts))
	for c, n := range counts {
		scores = append(scores, models.CategoryScore{Category: c, Count: n})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Count != scores[j].Count {
			return scores[i].Count > scores[j].Count
		}
		return scores[i].Category < scores[j].Category
	})
	return scores, true
}

// ProfileLabel condenses category scores into a human-readable taste
// label. With a single category the session is an "X-Fan"; with two or
// more, known pairs get bespoke names, a clear leader (more than 1.5x
// the runner-up) demotes the second to a secondary interest, and
// everything else becomes an "X & Y Type".
func ProfileLabel(scores []models.CategoryScore) (string, bool) {
	if len(scores) == 0 {
		return "", false
	}
	if len(scores) == 1 {
		return fmt.Sprintf("%s-Fan", scores[0].Category), true
	}

	first, second := scores[0], scores[1]
	pair := [2]string{first.Category, second.Category}
	if pair[0] > pair[1] {
		pair[0], pair[1] = pair[1], pair[0]
	}
	if name, ok := specialPairs[pair]; ok {
		return name, true
	}
	if float64(first.Count) > 1.5*float64(second.Count) {
		return fmt.Sprintf("%s-Fan (secondary interest: %s)", first.Category, second.Category), true
	}
	return fmt.Sprintf("%s & %s Type", first.Category, second.Category), true
}

// TopTargetGroups counts target-group occurrences over liked activities
// and returns the top n, count descending with alphabetical tie-break.
func TopTargetGroups(liked []int64, activities []models.Activity, topN int) ([]models.TargetGroupScore, bool) {
	if len(liked) == 0 || len(activities) == 0 || topN <= 0 {
		return nil, false
	}
	idx := rowIndex(activities)
	counts := make(map[string]int)
	for _, id := range liked {
		row, ok := idx[id]
		if !ok {
			continue
		}
		for _, g := range activities[row].TargetGroupList() {
			counts[g]++
		}
	}
	if len(counts) == 0 {
		return nil, false
	}

	scores := make([]models.TargetGroupScore, 0, len(counts))
	for g, n := range counts {
		scores = append(scores, models.TargetGroupScore{TargetGroup: g, Count: n})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Count != scores[j].Count {
			return scores[i].Count > scores[j].Count
		}
		return scores[i].TargetGroup < scores[j].TargetGroup
	})
	if len(scores) > topN {
		scores = scores[:topN]
	}
	return scores, true
}

// LikedPrices collects the prices of liked activities in like order.
// With includeFree false, zero-priced activities are dropped. False
// when the result would be empty.
func LikedPrices(liked []int64, activities []models.Activity, includeFree bool) ([]float64, bool) {
	if len(liked) == 0 || len(activities) == 0 {
		return nil, false
	}
	idx := rowIndex(activities)
	prices := make([]float64, 0, len(liked))
	for _, id := range liked {
		row, ok := idx[id]
		if !ok {
			continue
		}
		p := activities[row].Price
		if !includeFree && p <= 0 {
			continue
		}
		prices = append(prices, p)
	}
	if len(prices) == 0 {
		return nil, false
	}
	return prices, true
}
