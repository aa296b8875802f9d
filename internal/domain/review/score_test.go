package review

import (
	"testing"
)

func f(v float64) *float64 { return &v }

func TestWeightedMeanRenormalizes(t *testing.T) {
	// Only two of four categories scored: the mean is taken over the
	// populated weights, not the full weight table.
	entries := []WeightedEntry{
		{Score: f(80), Weight: 0.35},
		{Score: nil, Weight: 0.30},
		{Score: nil, Weight: 0.25},
		{Score: f(60), Weight: 0.10},
	}
	got := WeightedMean(entries)
	if got == nil {
		t.Fatal("expected a score")
	}
	if *got != 75.56 {
		t.Fatalf("expected 75.56, got %v", *got)
	}
}

func TestWeightedMeanAllMissing(t *testing.T) {
	entries := []WeightedEntry{
		{Score: nil, Weight: 0.5},
		{Score: nil, Weight: 0.5},
	}
	if got := WeightedMean(entries); got != nil {
		t.Fatalf("expected nil for no populated entries, got %v", *got)
	}
}

func TestWeightedMeanSingleEntry(t *testing.T) {
	got := WeightedMean([]WeightedEntry{{Score: f(87.5), Weight: 0.25}})
	if got == nil || *got != 87.5 {
		t.Fatalf("expected 87.5, got %v", got)
	}
}

func TestRecomputeFullReview(t *testing.T) {
	r := &Review{Scores: map[string]ScoreEntry{
		SubSanitation:  {Score: f(90)},
		SubInventory:   {Score: f(80)},
		SubQuality:     {Score: f(85)},
		SubMaintenance: {Score: f(70)},
		SubRecruitment: {Score: f(75)},
		SubScheduling:  {Score: f(80)},
		SubRetention:   {Score: f(85)},
		SubSales:       {Score: f(90)},
		SubEfficiency:  {Score: f(80)},
		SubLeadership:  {Score: f(88)},
	}}
	r.Recompute()

	op := r.CategoryScores[CategoryOperational]
	if op == nil {
		t.Fatal("expected operational score")
	}
	// (90*10 + 80*10 + 85*10 + 70*5) / 35 = 82.86
	if *op != 82.86 {
		t.Fatalf("operational: expected 82.86, got %v", *op)
	}
	people := r.CategoryScores[CategoryPeople]
	if people == nil || *people != 80 {
		t.Fatalf("people: expected 80, got %v", people)
	}
	biz := r.CategoryScores[CategoryBusiness]
	// (90*15 + 80*10) / 25 = 86
	if biz == nil || *biz != 86 {
		t.Fatalf("business: expected 86, got %v", biz)
	}
	lead := r.CategoryScores[CategoryLeadership]
	if lead == nil || *lead != 88 {
		t.Fatalf("leadership: expected 88, got %v", lead)
	}
	if r.OverallScore == nil {
		t.Fatal("expected overall score")
	}
	// 82.86*.35 + 80*.30 + 86*.25 + 88*.10 = 83.3
	if *r.OverallScore != 83.3 {
		t.Fatalf("overall: expected 83.3, got %v", *r.OverallScore)
	}
}

func TestRecomputePartialCategories(t *testing.T) {
	r := &Review{Scores: map[string]ScoreEntry{
		SubSanitation: {Score: f(80)},
		SubLeadership: {Score: f(60)},
	}}
	r.Recompute()

	if r.CategoryScores[CategoryPeople] != nil {
		t.Fatal("expected nil people score")
	}
	if r.CategoryScores[CategoryBusiness] != nil {
		t.Fatal("expected nil business score")
	}
	if r.OverallScore == nil || *r.OverallScore != 75.56 {
		t.Fatalf("overall: expected 75.56, got %v", r.OverallScore)
	}
}

func TestRecomputeNoScores(t *testing.T) {
	r := &Review{Scores: map[string]ScoreEntry{}}
	r.Recompute()
	if r.OverallScore != nil {
		t.Fatalf("expected nil overall, got %v", *r.OverallScore)
	}
	for cat, v := range r.CategoryScores {
		if v != nil {
			t.Fatalf("expected nil score for %s", cat)
		}
	}
}

func TestRoundHalfUp(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{75.555, 75.56},
		{75.554, 75.55},
		{82.857142, 82.86},
		{80, 80},
	}
	for _, c := range cases {
		if got := round2(c.in); got != c.want {
			t.Fatalf("round2(%v): expected %v, got %v", c.in, c.want, got)
		}
	}
}

func TestPerformanceLevel(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{95, PerformanceOutstanding},
		{90, PerformanceOutstanding},
		{85, PerformanceExceeds},
		{70, PerformanceMeets},
		{65, PerformanceNeedsWork},
		{40, PerformanceDoesNotMeet},
	}
	for _, c := range cases {
		if got := PerformanceLevel(c.score); got != c.want {
			t.Fatalf("PerformanceLevel(%v): expected %s, got %s", c.score, c.want, got)
		}
	}
}

func TestRecomputeUnknownKeyCountsAtFallbackWeight(t *testing.T) {
	// A score under a key outside the taxonomy still reaches the overall,
	// weighted at the fallback, rather than being silently dropped.
	r := &Review{Scores: map[string]ScoreEntry{
		SubLeadership: {Score: f(80)},
		"innovation":  {Score: f(50)},
	}}
	r.Recompute()

	if got := r.CategoryScores["innovation"]; got == nil || *got != 50 {
		t.Fatalf("expected unknown key to surface as its own category score of 50, got %v", got)
	}
	if r.OverallScore == nil {
		t.Fatal("expected an overall score")
	}
	// leadership 80 at 0.10 and innovation 50 at the 0.10 fallback
	// renormalize to (80+50)/2.
	if *r.OverallScore != 65 {
		t.Fatalf("expected overall 65, got %v", *r.OverallScore)
	}
}

func TestRecomputeUnknownKeyAloneProducesOverall(t *testing.T) {
	r := &Review{Scores: map[string]ScoreEntry{
		"innovation": {Score: f(50)},
	}}
	r.Recompute()

	for _, cat := range Categories {
		if r.CategoryScores[cat.Key] != nil {
			t.Fatalf("expected category %s to stay nil", cat.Key)
		}
	}
	if r.OverallScore == nil || *r.OverallScore != 50 {
		t.Fatalf("expected overall 50 from the fallback-weighted entry, got %v", r.OverallScore)
	}
}
