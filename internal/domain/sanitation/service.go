package sanitation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

// Totals sums the category deductions and derives the score from a 100-point
// base, floored at zero.
func Totals(categories []Category) (score, deductions float64) {
	for _, cat := range categories {
		deductions += cat.Deduction
	}
	deductions = round2(deductions)
	score = round2(math.Max(0, 100-deductions))
	return score, deductions
}

func round2(value float64) float64 {
	return math.Floor(value*100+0.5) / 100
}

func validateCategories(categories []Category) error {
	for _, cat := range categories {
		if cat.Name == "" {
			return fmt.Errorf("%w: category name is required", ErrValidation)
		}
		if cat.Deduction < 0 || cat.Deduction > MaxDeduction {
			return fmt.Errorf("%w: category %s deduction must be between 0 and %d", ErrValidation, cat.Name, MaxDeduction)
		}
	}
	return nil
}

func (s *Service) Create(ctx context.Context, audit *Audit) error {
	if audit.BranchID == "" {
		return fmt.Errorf("%w: branch is required", ErrValidation)
	}
	if audit.AuditorName == "" {
		return fmt.Errorf("%w: auditor name is required", ErrValidation)
	}
	if err := validateCategories(audit.Categories); err != nil {
		return err
	}
	now := time.Now().UTC()
	if audit.AuditDate.IsZero() {
		audit.AuditDate = now
	}
	if audit.StartTime.IsZero() {
		audit.StartTime = now
	}
	audit.Status = StatusInProgress
	audit.TotalScore, audit.TotalDeductions = Totals(audit.Categories)
	return s.store.Create(ctx, audit)
}

func (s *Service) Get(ctx context.Context, id string) (*Audit, error) {
	return s.store.Get(ctx, id)
}

// UpdateInput carries the fields an in-progress audit may still change.
// Nil pointers leave the current value untouched.
type UpdateInput struct {
	Categories      []Category
	AuditDate       time.Time
	EndTime         *time.Time
	AccompanistName *string
	GeneralNotes    *string
	EquipmentIssues *string
}

// Update replaces the findings of an in-progress audit and recomputes its
// totals. Completed and reviewed audits are frozen.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*Audit, error) {
	audit, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if audit.Status != StatusInProgress {
		return nil, fmt.Errorf("%w: only in-progress audits can be updated", ErrConflict)
	}
	if input.Categories != nil {
		if err := validateCategories(input.Categories); err != nil {
			return nil, err
		}
		audit.Categories = input.Categories
	}
	if !input.AuditDate.IsZero() {
		audit.AuditDate = input.AuditDate
	}
	if input.EndTime != nil {
		audit.EndTime = input.EndTime
	}
	if input.AccompanistName != nil {
		audit.AccompanistName = *input.AccompanistName
	}
	if input.GeneralNotes != nil {
		audit.GeneralNotes = *input.GeneralNotes
	}
	if input.EquipmentIssues != nil {
		audit.EquipmentIssues = *input.EquipmentIssues
	}
	audit.TotalScore, audit.TotalDeductions = Totals(audit.Categories)
	if err := s.store.Update(ctx, audit); err != nil {
		return nil, err
	}
	return audit, nil
}

func (s *Service) List(ctx context.Context, filter Filter, limit, offset int) ([]Audit, error) {
	return s.store.List(ctx, filter, limit, offset)
}

// Complete finalizes an in-progress audit, freezing its findings. Completed
// audits feed the review auto-metrics.
func (s *Service) Complete(ctx context.Context, id string) (*Audit, error) {
	audit, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if audit.Status != StatusInProgress {
		return nil, fmt.Errorf("%w: only in-progress audits can be completed", ErrConflict)
	}
	now := time.Now().UTC()
	audit.Status = StatusCompleted
	if audit.EndTime == nil {
		audit.EndTime = &now
	}
	audit.TotalScore, audit.TotalDeductions = Totals(audit.Categories)
	if err := s.store.Update(ctx, audit); err != nil {
		return nil, err
	}
	return audit, nil
}

// MarkReviewed records the HQ sign-off on a completed audit.
func (s *Service) MarkReviewed(ctx context.Context, id string) (*Audit, error) {
	audit, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if audit.Status != StatusCompleted {
		return nil, fmt.Errorf("%w: only completed audits can be marked reviewed", ErrConflict)
	}
	audit.Status = StatusReviewed
	if err := s.store.Update(ctx, audit); err != nil {
		return nil, err
	}
	return audit, nil
}
