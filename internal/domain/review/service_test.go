package review

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeStore struct {
	reviews      map[string]*Review
	branches     map[string]string
	users        map[string]string
	missing      []ManagerRef
	missingErr   error
	createErr    error
	nextID       int
	savedSummary string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		reviews:  map[string]*Review{},
		branches: map[string]string{"b1": "Downtown"},
		users:    map[string]string{"hq-1": "Dana Reyes", "mgr-1": "Sam Ortiz"},
	}
}

func (s *fakeStore) CreateReview(ctx context.Context, r *Review) error {
	if s.createErr != nil {
		return s.createErr
	}
	for _, existing := range s.reviews {
		if existing.ManagerID == r.ManagerID && existing.ManagerName == r.ManagerName &&
			existing.BranchID == r.BranchID && existing.Year == r.Year && existing.Quarter == r.Quarter {
			return conflictf("duplicate review period")
		}
	}
	s.nextID++
	r.ID = string(rune('0' + s.nextID))
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	copied := *r
	s.reviews[r.ID] = &copied
	return nil
}

func (s *fakeStore) GetReview(ctx context.Context, id string) (*Review, error) {
	r, ok := s.reviews[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (s *fakeStore) ListReviews(ctx context.Context, filter Filter) ([]Review, error) {
	var out []Review
	for _, r := range s.reviews {
		if filter.BranchID != "" && r.BranchID != filter.BranchID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (s *fakeStore) UpdateReviewScores(ctx context.Context, r *Review) error {
	copied := *r
	s.reviews[r.ID] = &copied
	return nil
}

func (s *fakeStore) UpdateReviewStatus(ctx context.Context, r *Review) error {
	copied := *r
	s.reviews[r.ID] = &copied
	return nil
}

func (s *fakeStore) UpdateAcknowledgement(ctx context.Context, r *Review) error {
	copied := *r
	s.reviews[r.ID] = &copied
	return nil
}

func (s *fakeStore) SaveNarrative(ctx context.Context, id, summary string, generatedAt time.Time) error {
	r, ok := s.reviews[id]
	if !ok {
		return ErrNotFound
	}
	r.AISummary = summary
	r.AISummaryGeneratedAt = &generatedAt
	s.savedSummary = summary
	return nil
}

func (s *fakeStore) DeleteReview(ctx context.Context, id string) error {
	if _, ok := s.reviews[id]; !ok {
		return ErrNotFound
	}
	delete(s.reviews, id)
	return nil
}

func (s *fakeStore) History(ctx context.Context, managerID string) ([]Review, error) {
	var out []Review
	for _, r := range s.reviews {
		if r.ManagerID == managerID && r.OverallScore != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *fakeStore) ListPending(ctx context.Context) ([]Review, error) {
	var out []Review
	for _, r := range s.reviews {
		if r.Status == StatusDraft || r.Status == StatusSubmitted {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *fakeStore) MissingReviewManagers(ctx context.Context, year int, quarter string) ([]ManagerRef, error) {
	if s.missingErr != nil {
		return nil, s.missingErr
	}
	return s.missing, nil
}

func (s *fakeStore) BranchName(ctx context.Context, branchID string) (string, error) {
	name, ok := s.branches[branchID]
	if !ok {
		return "", ErrNotFound
	}
	return name, nil
}

func (s *fakeStore) UserFullName(ctx context.Context, userID string) (string, error) {
	name, ok := s.users[userID]
	if !ok {
		return "", ErrNotFound
	}
	return name, nil
}

func hqActor() Actor {
	return Actor{UserID: "hq-1", Role: "hq", CanManageReviews: true}
}

func managerActor() Actor {
	return Actor{UserID: "mgr-1", Role: "branch_manager", BranchID: "b1"}
}

func newTestService(store *fakeStore, src MetricSource, gen Generator) *Service {
	if src == nil {
		src = &fakeMetricSource{}
	}
	pipeline := NewPipeline(gen, []string{"model-a"}, time.Second)
	return NewService(store, src, pipeline)
}

func validCreateInput() CreateInput {
	return CreateInput{
		ManagerID: "mgr-1",
		BranchID:  "b1",
		Year:      2025,
		Quarter:   Q1,
		Scores: map[string]ScoreEntry{
			SubSanitation: {Score: f(85), Comments: "clean stations"},
			SubSales:      {Score: f(78)},
		},
	}
}

func TestCreateReview(t *testing.T) {
	store := newFakeStore()
	src := &fakeMetricSource{sanitationAvg: f(92), sanitationCount: 3, dishAvg: f(4.1), dishCount: 8}
	svc := newTestService(store, src, &fakeGenerator{response: "ok"})

	r, warnings, err := svc.Create(context.Background(), hqActor(), validCreateInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if r.Status != StatusDraft {
		t.Fatalf("expected draft, got %s", r.Status)
	}
	if r.ReviewerID != "hq-1" {
		t.Fatalf("expected reviewer from actor, got %s", r.ReviewerID)
	}
	if r.OverallScore == nil {
		t.Fatal("expected overall score from partial categories")
	}
	if r.AutoMetrics.SanitationAvg == nil || *r.AutoMetrics.SanitationAvg != 92 {
		t.Fatalf("expected captured sanitation metrics, got %+v", r.AutoMetrics)
	}
	if r.AISummary != "" {
		t.Fatal("summary must not be generated unless requested")
	}
}

func TestCreateReviewGeneratesSummaryOnRequest(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil, &fakeGenerator{response: "generated narrative"})

	input := validCreateInput()
	input.GenerateSummary = true
	r, warnings, err := svc.Create(context.Background(), hqActor(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if r.AISummary != "generated narrative" {
		t.Fatalf("expected generated summary, got %q", r.AISummary)
	}
	if store.savedSummary != "generated narrative" {
		t.Fatal("summary must be persisted")
	}
}

func TestCreateReviewNarrativeFailureIsWarning(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil, &fakeGenerator{err: errors.New("model overloaded")})

	input := validCreateInput()
	input.GenerateSummary = true
	r, warnings, err := svc.Create(context.Background(), hqActor(), input)
	if err != nil {
		t.Fatalf("creation must survive narrative failure: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %v", warnings)
	}
	if r.AISummary != "" {
		t.Fatal("summary must stay unset on failure")
	}
}

func TestCreateReviewValidation(t *testing.T) {
	svc := newTestService(newFakeStore(), nil, &fakeGenerator{response: "ok"})
	actor := hqActor()

	input := validCreateInput()
	input.ManagerID = ""
	if _, _, err := svc.Create(context.Background(), actor, input); !IsValidation(err) {
		t.Fatalf("expected validation error for no subject, got %v", err)
	}

	input = validCreateInput()
	input.ManagerName = "Sam Ortiz"
	if _, _, err := svc.Create(context.Background(), actor, input); !IsValidation(err) {
		t.Fatalf("expected validation error for both subjects, got %v", err)
	}

	input = validCreateInput()
	input.Quarter = "Q7"
	if _, _, err := svc.Create(context.Background(), actor, input); !IsValidation(err) {
		t.Fatalf("expected validation error for bad quarter, got %v", err)
	}

	input = validCreateInput()
	input.Scores = map[string]ScoreEntry{SubSanitation: {Score: f(101)}}
	if _, _, err := svc.Create(context.Background(), actor, input); !IsValidation(err) {
		t.Fatalf("expected validation error for out-of-range score, got %v", err)
	}

	input = validCreateInput()
	input.BranchID = "missing"
	if _, _, err := svc.Create(context.Background(), actor, input); !IsNotFound(err) {
		t.Fatalf("expected not found for unknown branch, got %v", err)
	}
}

func TestCreateReviewDuplicatePeriod(t *testing.T) {
	svc := newTestService(newFakeStore(), nil, &fakeGenerator{response: "ok"})
	actor := hqActor()

	if _, _, err := svc.Create(context.Background(), actor, validCreateInput()); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, _, err := svc.Create(context.Background(), actor, validCreateInput()); !IsConflict(err) {
		t.Fatalf("expected conflict for duplicate period, got %v", err)
	}
}

func TestCreateReviewForbidden(t *testing.T) {
	svc := newTestService(newFakeStore(), nil, &fakeGenerator{response: "ok"})
	if _, _, err := svc.Create(context.Background(), managerActor(), validCreateInput()); !IsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCreateReviewMetricsDegrade(t *testing.T) {
	src := &fakeMetricSource{sanitationErr: errors.New("db down"), dishErr: errors.New("db down")}
	svc := newTestService(newFakeStore(), src, &fakeGenerator{response: "ok"})

	r, warnings, err := svc.Create(context.Background(), hqActor(), validCreateInput())
	if err != nil {
		t.Fatalf("creation must survive metric failures: %v", err)
	}
	if len(warnings) != 2 {
		t.Fatalf("expected two warnings, got %v", warnings)
	}
	if r.AutoMetrics.SanitationAvg != nil || r.AutoMetrics.DishChecksAvg != nil {
		t.Fatalf("expected empty metrics, got %+v", r.AutoMetrics)
	}
}

func TestManagerAcknowledgePath(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil, &fakeGenerator{response: "ok"})

	r, _, err := svc.Create(context.Background(), hqActor(), validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	comments := "reviewed and discussed"
	updated, err := svc.UpdateScores(context.Background(), managerActor(), r.ID, UpdateInput{ManagerComments: &comments})
	if err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	if !updated.ManagerAcknowledged || updated.ManagerComments != comments {
		t.Fatalf("expected acknowledgement recorded, got %+v", updated)
	}

	// The reviewed manager cannot touch scores.
	_, err = svc.UpdateScores(context.Background(), managerActor(), r.ID, UpdateInput{
		Scores: map[string]ScoreEntry{SubSanitation: {Score: f(100)}},
	})
	if !IsForbidden(err) {
		t.Fatalf("expected forbidden for manager score edit, got %v", err)
	}
}

func TestUpdateScoresRecomputes(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil, &fakeGenerator{response: "ok"})

	r, _, err := svc.Create(context.Background(), hqActor(), validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	before := *r.OverallScore

	updated, err := svc.UpdateScores(context.Background(), hqActor(), r.ID, UpdateInput{
		Scores: map[string]ScoreEntry{SubLeadership: {Score: f(95)}},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.OverallScore == nil || *updated.OverallScore == before {
		t.Fatalf("expected recomputed overall, got %v", updated.OverallScore)
	}
	if updated.Scores[SubSanitation].Score == nil {
		t.Fatal("partial update must keep existing scores")
	}
}

func TestUpdateScoresNonDraftConflicts(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil, &fakeGenerator{response: "ok"})

	r, _, err := svc.Create(context.Background(), hqActor(), validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Transition(context.Background(), hqActor(), r.ID, "submit"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	_, err = svc.UpdateScores(context.Background(), hqActor(), r.ID, UpdateInput{
		Scores: map[string]ScoreEntry{SubSanitation: {Score: f(50)}},
	})
	if !IsConflict(err) {
		t.Fatalf("expected conflict editing submitted review, got %v", err)
	}
}

func TestTransitionSequence(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil, &fakeGenerator{response: "ok"})
	actor := hqActor()

	r, _, err := svc.Create(context.Background(), actor, validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Transition(context.Background(), actor, r.ID, "complete"); !IsConflict(err) {
		t.Fatalf("expected conflict completing a draft, got %v", err)
	}
	if _, err := svc.Transition(context.Background(), actor, r.ID, "submit"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Transition(context.Background(), actor, r.ID, "complete"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	final, err := svc.Transition(context.Background(), actor, r.ID, "approve")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if final.Status != StatusApproved || final.ApprovedByID != actor.UserID {
		t.Fatalf("expected approval recorded, got %+v", final)
	}
	if _, err := svc.Transition(context.Background(), actor, r.ID, "escalate"); !IsValidation(err) {
		t.Fatalf("expected validation error for unknown action, got %v", err)
	}
}

func TestDeleteOnlyDraft(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil, &fakeGenerator{response: "ok"})
	actor := hqActor()

	r, _, err := svc.Create(context.Background(), actor, validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Transition(context.Background(), actor, r.ID, "submit"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := svc.Delete(context.Background(), actor, r.ID); !IsConflict(err) {
		t.Fatalf("expected conflict deleting submitted review, got %v", err)
	}
	if err := svc.Delete(context.Background(), actor, "nope"); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGenerateNarrativeCaching(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGenerator{response: "first summary"}
	svc := newTestService(store, nil, gen)
	actor := hqActor()

	r, _, err := svc.Create(context.Background(), actor, validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	text, err := svc.GenerateNarrative(context.Background(), actor, r.ID, false)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "first summary" {
		t.Fatalf("unexpected summary: %q", text)
	}
	calls := len(gen.calls)

	// Cached: no new model call.
	if _, err := svc.GenerateNarrative(context.Background(), actor, r.ID, false); err != nil {
		t.Fatalf("cached generate: %v", err)
	}
	if len(gen.calls) != calls {
		t.Fatal("cached summary must not call the generator")
	}

	gen.response = "second summary"
	text, err = svc.GenerateNarrative(context.Background(), actor, r.ID, true)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if text != "second summary" {
		t.Fatalf("regenerate must bypass the cache, got %q", text)
	}
	if len(gen.calls) == calls {
		t.Fatal("regenerate must call the generator")
	}
}

func TestListScopesBranchManagers(t *testing.T) {
	store := newFakeStore()
	store.branches["b2"] = "Airport"
	svc := newTestService(store, nil, &fakeGenerator{response: "ok"})
	actor := hqActor()

	if _, _, err := svc.Create(context.Background(), actor, validCreateInput()); err != nil {
		t.Fatalf("create: %v", err)
	}
	other := validCreateInput()
	other.ManagerID = ""
	other.ManagerName = "Lee Carter"
	other.BranchID = "b2"
	if _, _, err := svc.Create(context.Background(), actor, other); err != nil {
		t.Fatalf("create second: %v", err)
	}

	all, err := svc.List(context.Background(), actor, Filter{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(all))
	}

	scoped, err := svc.List(context.Background(), managerActor(), Filter{})
	if err != nil {
		t.Fatalf("scoped list: %v", err)
	}
	if len(scoped) != 1 || scoped[0].BranchID != "b1" {
		t.Fatalf("expected only own-branch reviews, got %+v", scoped)
	}
}

func TestPendingOverview(t *testing.T) {
	store := newFakeStore()
	store.missing = []ManagerRef{{UserID: "mgr-9", FullName: "Pat Kim", BranchID: "b2", BranchName: "Airport"}}
	svc := newTestService(store, nil, &fakeGenerator{response: "ok"})
	actor := hqActor()

	if _, _, err := svc.Create(context.Background(), actor, validCreateInput()); err != nil {
		t.Fatalf("create: %v", err)
	}

	overview, err := svc.Pending(context.Background(), actor, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(overview.Pending) != 1 || len(overview.Missing) != 1 || overview.Total != 2 {
		t.Fatalf("unexpected overview: %+v", overview)
	}
}

func TestPendingSurvivesMissingLookupFailure(t *testing.T) {
	store := newFakeStore()
	store.missingErr = errors.New("query failed")
	svc := newTestService(store, nil, &fakeGenerator{response: "ok"})

	overview, err := svc.Pending(context.Background(), hqActor(), time.Now())
	if err != nil {
		t.Fatalf("pending must degrade: %v", err)
	}
	if overview.Missing != nil {
		t.Fatalf("expected nil missing list, got %+v", overview.Missing)
	}
}

func TestCreateReviewWarnsOnUnknownScoreKey(t *testing.T) {
	store := newFakeStore()
	src := &fakeMetricSource{sanitationAvg: f(92), sanitationCount: 3, dishAvg: f(8.1), dishCount: 8}
	svc := newTestService(store, src, &fakeGenerator{response: "ok"})

	input := validCreateInput()
	input.Scores["innovation"] = ScoreEntry{Score: f(60)}

	r, warnings, err := svc.Create(context.Background(), hqActor(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "innovation") {
		t.Fatalf("expected a fallback-weight warning for the unknown key, got %v", warnings)
	}
	if got := r.CategoryScores["innovation"]; got == nil || *got != 60 {
		t.Fatalf("expected the unknown key to carry into the computed scores, got %v", got)
	}
}
