package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Service orchestrates the review workflow: scoring, auto-aggregation,
// lifecycle transitions, and narrative generation.
type Service struct {
	store     StoreAPI
	metrics   MetricSource
	narrative *Pipeline
}

func NewService(store StoreAPI, metrics MetricSource, narrative *Pipeline) *Service {
	return &Service{store: store, metrics: metrics, narrative: narrative}
}

type CreateInput struct {
	ManagerID          string                `json:"managerId"`
	ManagerName        string                `json:"managerName"`
	BranchID           string                `json:"branchId"`
	Year               int                   `json:"year"`
	Quarter            string                `json:"quarter"`
	Scores             map[string]ScoreEntry `json:"scores"`
	DevelopmentGoals   []DevelopmentGoal     `json:"developmentGoals"`
	StrengthsSummary   string                `json:"strengthsSummary"`
	ImprovementSummary string                `json:"improvementSummary"`
	GenerateSummary    bool                  `json:"generateSummary"`
}

type UpdateInput struct {
	Scores             map[string]ScoreEntry `json:"scores"`
	DevelopmentGoals   []DevelopmentGoal     `json:"developmentGoals"`
	NextReviewTargets  json.RawMessage       `json:"nextReviewTargets"`
	StrengthsSummary   *string               `json:"strengthsSummary"`
	ImprovementSummary *string               `json:"improvementSummary"`
	ManagerComments    *string               `json:"managerComments"`
}

// Create validates the input, derives scores, captures the auto metrics for
// the period, and persists the new draft review. Degraded metric sources and
// a failed auto-narrative come back as warnings, never as errors; only
// validation, authorization, duplicate-period conflicts, and storage failures
// abort creation.
func (s *Service) Create(ctx context.Context, actor Actor, input CreateInput) (*Review, []string, error) {
	if !actor.CanManageReviews {
		return nil, nil, ErrForbidden
	}
	if err := validateSubject(input.ManagerID, input.ManagerName); err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(input.BranchID) == "" {
		return nil, nil, validationf("branchId", "is required")
	}
	if input.Year < 2000 || input.Year > 2100 {
		return nil, nil, validationf("year", "is out of range")
	}
	if !ValidQuarter(input.Quarter) {
		return nil, nil, validationf("quarter", "must be one of Q1, Q2, Q3, Q4")
	}
	if err := validateScores(input.Scores); err != nil {
		return nil, nil, err
	}
	if _, err := s.store.BranchName(ctx, input.BranchID); err != nil {
		return nil, nil, fmt.Errorf("branch %s: %w", input.BranchID, ErrNotFound)
	}

	now := time.Now().UTC()
	r := &Review{
		ManagerID:          strings.TrimSpace(input.ManagerID),
		ManagerName:        strings.TrimSpace(input.ManagerName),
		BranchID:           input.BranchID,
		ReviewerID:         actor.UserID,
		Year:               input.Year,
		Quarter:            input.Quarter,
		ReviewDate:         now,
		Status:             StatusDraft,
		Scores:             cloneScores(input.Scores),
		DevelopmentGoals:   input.DevelopmentGoals,
		StrengthsSummary:   input.StrengthsSummary,
		ImprovementSummary: input.ImprovementSummary,
	}
	r.Recompute()

	metrics, warnings := CollectAutoMetrics(ctx, s.metrics, input.BranchID, input.Year, input.Quarter)
	r.AutoMetrics = metrics
	for _, key := range r.unknownScoreKeys() {
		warnings = append(warnings, fmt.Sprintf("score key %q is outside the standard taxonomy and counts at the fallback weight", key))
	}

	if err := s.store.CreateReview(ctx, r); err != nil {
		return nil, nil, err
	}

	if input.GenerateSummary {
		// Narrative generation must never block the scoring workflow; on
		// this path a total failure leaves the summary unset.
		if _, err := s.generateAndSave(ctx, r); err != nil {
			slog.Warn("auto narrative generation failed", "review", r.ID, "err", err)
			warnings = append(warnings, "narrative generation unavailable")
		}
	}

	return r, warnings, nil
}

func (s *Service) Get(ctx context.Context, actor Actor, id string) (*Review, error) {
	r, err := s.store.GetReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(actor, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) List(ctx context.Context, actor Actor, filter Filter) ([]Review, error) {
	if !actor.CanManageReviews {
		// Branch managers only ever see their own branch.
		if actor.BranchID == "" {
			return nil, ErrForbidden
		}
		filter.BranchID = actor.BranchID
	}
	return s.store.ListReviews(ctx, filter)
}

// UpdateScores applies a partial score edit to a draft review and recomputes
// the derived scores. When the actor is the reviewed manager, the edit is
// constrained to the acknowledgement comment regardless of state.
func (s *Service) UpdateScores(ctx context.Context, actor Actor, id string, input UpdateInput) (*Review, error) {
	r, err := s.store.GetReview(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.CanManageReviews {
		if r.ManagerID == "" || r.ManagerID != actor.UserID {
			return nil, ErrForbidden
		}
		if input.ManagerComments == nil {
			return nil, fmt.Errorf("%w: the reviewed manager may only acknowledge and comment", ErrForbidden)
		}
		r.Acknowledge(*input.ManagerComments, time.Now().UTC())
		if err := s.store.UpdateAcknowledgement(ctx, r); err != nil {
			return nil, err
		}
		return r, nil
	}

	if err := r.CanEditScores(); err != nil {
		return nil, err
	}
	if err := validateScores(input.Scores); err != nil {
		return nil, err
	}

	if r.Scores == nil {
		r.Scores = make(map[string]ScoreEntry)
	}
	for key, entry := range input.Scores {
		r.Scores[key] = entry
	}
	if input.DevelopmentGoals != nil {
		r.DevelopmentGoals = input.DevelopmentGoals
	}
	if input.NextReviewTargets != nil {
		r.NextReviewTargets = input.NextReviewTargets
	}
	if input.StrengthsSummary != nil {
		r.StrengthsSummary = *input.StrengthsSummary
	}
	if input.ImprovementSummary != nil {
		r.ImprovementSummary = *input.ImprovementSummary
	}
	r.Recompute()
	r.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateReviewScores(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Transition applies a lifecycle action: submit, complete, or approve.
func (s *Service) Transition(ctx context.Context, actor Actor, id, action string) (*Review, error) {
	if !actor.CanManageReviews {
		return nil, ErrForbidden
	}
	r, err := s.store.GetReview(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	switch action {
	case "submit":
		err = r.Submit(now)
	case "complete":
		err = r.Complete(now)
	case "approve":
		err = r.Approve(actor.UserID, now)
	default:
		return nil, validationf("action", "must be submit, complete, or approve")
	}
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateReviewStatus(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Delete removes a review, legal only while it is still a draft.
func (s *Service) Delete(ctx context.Context, actor Actor, id string) error {
	if !actor.CanManageReviews {
		return ErrForbidden
	}
	r, err := s.store.GetReview(ctx, id)
	if err != nil {
		return err
	}
	if err := r.CanDelete(); err != nil {
		return err
	}
	return s.store.DeleteReview(ctx, id)
}

// GenerateNarrative returns the review narrative, calling the text-generation
// service only when there is no cached summary or regenerate is set. Unlike
// the creation path, exhaustion of the model list surfaces as an error here.
func (s *Service) GenerateNarrative(ctx context.Context, actor Actor, id string, regenerate bool) (string, error) {
	if !actor.CanManageReviews {
		return "", ErrForbidden
	}
	r, err := s.store.GetReview(ctx, id)
	if err != nil {
		return "", err
	}
	if r.AISummary != "" && !regenerate {
		return r.AISummary, nil
	}
	return s.generateAndSave(ctx, r)
}

// Chat answers a follow-up question against the review's context document.
// The answer is returned to the caller and never persisted.
func (s *Service) Chat(ctx context.Context, actor Actor, id, question string) (string, error) {
	if !actor.CanManageReviews {
		return "", ErrForbidden
	}
	r, err := s.store.GetReview(ctx, id)
	if err != nil {
		return "", err
	}
	names := s.contextNames(ctx, r)
	return s.narrative.Chat(ctx, BuildContext(r, names), question)
}

// History lists scored reviews for a manager in chronological order, for
// trend reporting.
func (s *Service) History(ctx context.Context, actor Actor, managerID string) ([]Review, error) {
	if !actor.CanManageReviews {
		return nil, ErrForbidden
	}
	return s.store.History(ctx, managerID)
}

// PendingOverview summarizes reviews still in flight and branch managers
// without a review for the current quarter.
type PendingOverview struct {
	Pending []Review     `json:"pending"`
	Missing []ManagerRef `json:"missing"`
	Total   int          `json:"total"`
}

func (s *Service) Pending(ctx context.Context, actor Actor, now time.Time) (*PendingOverview, error) {
	if !actor.CanManageReviews {
		return nil, ErrForbidden
	}
	pending, err := s.store.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	year, quarter := CurrentQuarter(now)
	missing, err := s.store.MissingReviewManagers(ctx, year, quarter)
	if err != nil {
		slog.Warn("missing-review lookup failed", "err", err)
		missing = nil
	}
	return &PendingOverview{Pending: pending, Missing: missing, Total: len(pending) + len(missing)}, nil
}

func (s *Service) generateAndSave(ctx context.Context, r *Review) (string, error) {
	names := s.contextNames(ctx, r)
	summary, err := s.narrative.Summarize(ctx, BuildContext(r, names))
	if err != nil {
		return "", err
	}
	generatedAt := time.Now().UTC()
	if err := s.store.SaveNarrative(ctx, r.ID, summary, generatedAt); err != nil {
		return "", err
	}
	r.AISummary = summary
	r.AISummaryGeneratedAt = &generatedAt
	return summary, nil
}

// DisplayNames resolves the branch and reviewer display names for rendering,
// falling back to IDs when a lookup fails.
func (s *Service) DisplayNames(ctx context.Context, r *Review) (branchName, reviewerName string) {
	names := s.contextNames(ctx, r)
	return names.BranchName, names.ReviewerName
}

func (s *Service) contextNames(ctx context.Context, r *Review) ContextNames {
	names := ContextNames{BranchName: r.BranchID, ReviewerName: r.ReviewerID}
	if name, err := s.store.BranchName(ctx, r.BranchID); err == nil && name != "" {
		names.BranchName = name
	}
	if name, err := s.store.UserFullName(ctx, r.ReviewerID); err == nil && name != "" {
		names.ReviewerName = name
	}
	return names
}

func (s *Service) authorizeRead(actor Actor, r *Review) error {
	if actor.CanManageReviews {
		return nil
	}
	if r.ManagerID != "" && r.ManagerID == actor.UserID {
		return nil
	}
	if actor.BranchID != "" && actor.BranchID == r.BranchID {
		return nil
	}
	return ErrForbidden
}

func validateSubject(managerID, managerName string) error {
	hasID := strings.TrimSpace(managerID) != ""
	hasName := strings.TrimSpace(managerName) != ""
	if hasID == hasName {
		return validationf("managerId/managerName", "exactly one must be set")
	}
	return nil
}

func validateScores(scores map[string]ScoreEntry) error {
	for key, entry := range scores {
		if entry.Score != nil && (*entry.Score < 0 || *entry.Score > 100) {
			return validationf(key, "score must be between 0 and 100")
		}
	}
	return nil
}

func cloneScores(scores map[string]ScoreEntry) map[string]ScoreEntry {
	out := make(map[string]ScoreEntry, len(scores))
	for key, entry := range scores {
		out[key] = entry
	}
	return out
}

// IsNotFound, IsConflict, and IsValidation classify service errors for the
// transport layer.
func IsNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool   { return errors.Is(err, ErrConflict) }
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
func IsForbidden(err error) bool  { return errors.Is(err, ErrForbidden) }
