package tasks

import (
	"context"
	"time"
)

// StoreAPI is the persistence surface the task service depends on.
type StoreAPI interface {
	CreateTask(ctx context.Context, task *Task) error
	GetTask(ctx context.Context, id string) (*Task, error)
	ListTasks(ctx context.Context, active *bool) ([]Task, error)
	UpdateTask(ctx context.Context, task *Task) error
	CreateAssignment(ctx context.Context, taskID, branchID string, date time.Time) error
	GetAssignment(ctx context.Context, id string) (*Assignment, error)
	ListAssignments(ctx context.Context, filter AssignmentFilter, limit, offset int) ([]Assignment, error)
	UpdateAssignmentCompletion(ctx context.Context, assignment *Assignment) error
}

var _ StoreAPI = (*Store)(nil)
