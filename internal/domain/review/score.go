package review

import (
	"math"
	"sort"
)

type WeightedEntry struct {
	Score  *float64
	Weight float64
}

// WeightedMean computes the weighted average over the populated entries, with
// weights renormalized to sum to 1 over that subset. Returns nil when no entry
// is populated; an absent score is excluded, never treated as zero.
func WeightedMean(entries []WeightedEntry) *float64 {
	var sum, totalWeight float64
	populated := false
	for _, entry := range entries {
		if entry.Score == nil || entry.Weight <= 0 {
			continue
		}
		sum += *entry.Score * entry.Weight
		totalWeight += entry.Weight
		populated = true
	}
	if !populated || totalWeight == 0 {
		return nil
	}
	result := round2(sum / totalWeight)
	return &result
}

// round2 rounds half-up to two decimal places. Inputs are bounded to [0,100]
// and weights are non-negative, so results stay in range.
func round2(value float64) float64 {
	return math.Floor(value*100+0.5) / 100
}

// Recompute derives the four category scores and the overall score from the
// subcategory entries currently on the review. Categories with no populated
// subcategory stay nil and are excluded from the overall renormalization.
// Populated scores under keys outside the taxonomy count toward the overall
// at the fallback weight, each as its own degraded category.
func (r *Review) Recompute() {
	if r.CategoryScores == nil {
		r.CategoryScores = make(map[string]*float64, len(Categories))
	}
	overallEntries := make([]WeightedEntry, 0, len(Categories))
	for _, cat := range Categories {
		entries := make([]WeightedEntry, 0, len(cat.Subcategories))
		for _, sub := range cat.Subcategories {
			entry := r.Scores[sub.Key]
			entries = append(entries, WeightedEntry{Score: entry.Score, Weight: sub.Weight})
		}
		catScore := WeightedMean(entries)
		r.CategoryScores[cat.Key] = catScore
		overallEntries = append(overallEntries, WeightedEntry{Score: catScore, Weight: cat.Weight})
	}
	for _, key := range r.unknownScoreKeys() {
		entry := r.Scores[key]
		score := round2(*entry.Score)
		r.CategoryScores[key] = &score
		overallEntries = append(overallEntries, WeightedEntry{Score: &score, Weight: CategoryWeightFor(key)})
	}
	r.OverallScore = WeightedMean(overallEntries)
}

// unknownScoreKeys returns the populated score keys outside the taxonomy, in
// a stable order.
func (r *Review) unknownScoreKeys() []string {
	var keys []string
	for key, entry := range r.Scores {
		if entry.Score == nil || IsKnownSubcategory(key) {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
