package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("forbidden")
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func validTaskType(t string) bool {
	return t == TypeDishCheck || t == TypeRecipeReview
}

func validFrequency(f string) bool {
	return f == FrequencyOnce || f == FrequencyDaily || f == FrequencyWeekly
}

// Create records a task and seeds one assignment per target branch for the
// start date. Unknown branch ids are skipped, matching how HQ bulk-targets
// branches from a possibly stale list.
func (s *Service) Create(ctx context.Context, task *Task, branchIDs []string) error {
	if task.Title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if !validTaskType(task.TaskType) {
		return fmt.Errorf("%w: task type must be %s or %s", ErrValidation, TypeDishCheck, TypeRecipeReview)
	}
	if task.Frequency == "" {
		task.Frequency = FrequencyOnce
	}
	if !validFrequency(task.Frequency) {
		return fmt.Errorf("%w: frequency must be %s, %s or %s", ErrValidation, FrequencyOnce, FrequencyDaily, FrequencyWeekly)
	}
	if task.StartDate.IsZero() {
		task.StartDate = time.Now().UTC().Truncate(24 * time.Hour)
	}
	if task.EndDate != nil && task.EndDate.Before(task.StartDate) {
		return fmt.Errorf("%w: end date must not precede start date", ErrValidation)
	}
	if len(branchIDs) == 0 {
		return fmt.Errorf("%w: at least one target branch is required", ErrValidation)
	}
	task.IsActive = true
	if err := s.store.CreateTask(ctx, task); err != nil {
		return err
	}
	for _, branchID := range branchIDs {
		if err := s.store.CreateAssignment(ctx, task.ID, branchID, task.StartDate); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) List(ctx context.Context, active *bool) ([]Task, error) {
	return s.store.ListTasks(ctx, active)
}

// UpdateInput carries the mutable task fields. Nil pointers leave the
// current value untouched.
type UpdateInput struct {
	Title       *string
	Description *string
	IsActive    *bool
}

func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*Task, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Title != nil {
		if *input.Title == "" {
			return nil, fmt.Errorf("%w: title is required", ErrValidation)
		}
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.IsActive != nil {
		task.IsActive = *input.IsActive
	}
	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Service) ListAssignments(ctx context.Context, filter AssignmentFilter, limit, offset int) ([]Assignment, error) {
	return s.store.ListAssignments(ctx, filter, limit, offset)
}

// BranchTasks lists a branch's assignments for one day, active tasks only.
// A zero date means today.
func (s *Service) BranchTasks(ctx context.Context, branchID string, date time.Time) ([]Assignment, error) {
	if branchID == "" {
		return nil, fmt.Errorf("%w: user is not assigned to a branch", ErrValidation)
	}
	if date.IsZero() {
		date = time.Now().UTC().Truncate(24 * time.Hour)
	}
	return s.store.ListAssignments(ctx, AssignmentFilter{
		BranchID:   branchID,
		TaskDate:   date,
		ActiveOnly: true,
	}, 200, 0)
}

// Complete marks an assignment done. When restrictBranch is set the
// assignment must belong to that branch.
func (s *Service) Complete(ctx context.Context, assignmentID, userID, restrictBranch, notes, checkID string) (*Assignment, error) {
	assignment, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if restrictBranch != "" && assignment.BranchID != restrictBranch {
		return nil, fmt.Errorf("%w: assignment belongs to another branch", ErrForbidden)
	}
	now := time.Now().UTC()
	assignment.IsCompleted = true
	assignment.CompletedAt = &now
	assignment.CompletedBy = userID
	assignment.Notes = notes
	assignment.CheckID = checkID
	if err := s.store.UpdateAssignmentCompletion(ctx, assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}

// Uncomplete reopens an assignment, clearing the completion record.
func (s *Service) Uncomplete(ctx context.Context, assignmentID, restrictBranch string) (*Assignment, error) {
	assignment, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if restrictBranch != "" && assignment.BranchID != restrictBranch {
		return nil, fmt.Errorf("%w: assignment belongs to another branch", ErrForbidden)
	}
	assignment.IsCompleted = false
	assignment.CompletedAt = nil
	assignment.CompletedBy = ""
	assignment.Notes = ""
	assignment.CheckID = ""
	if err := s.store.UpdateAssignmentCompletion(ctx, assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}
