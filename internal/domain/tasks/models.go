// Package tasks manages HQ-issued daily tasks and their per-branch
// assignments. HQ creates a task once; an assignment row per branch and date
// tracks whether that branch has done it.
package tasks

import "time"

const (
	TypeDishCheck    = "dish_check"
	TypeRecipeReview = "recipe_review"

	FrequencyOnce   = "once"
	FrequencyDaily  = "daily"
	FrequencyWeekly = "weekly"
)

type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	TaskType    string     `json:"taskType"`
	DishID      string     `json:"dishId,omitempty"`
	DishName    string     `json:"dishName,omitempty"`
	Frequency   string     `json:"frequency"`
	StartDate   time.Time  `json:"startDate"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	IsActive    bool       `json:"isActive"`
	CreatedBy   string     `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Assignment is the denormalized per-branch view of a task on a given date,
// carrying the task and branch names the dashboards render.
type Assignment struct {
	ID              string     `json:"id"`
	TaskID          string     `json:"taskId"`
	TaskTitle       string     `json:"taskTitle"`
	TaskDescription string     `json:"taskDescription,omitempty"`
	TaskType        string     `json:"taskType"`
	DishName        string     `json:"dishName,omitempty"`
	BranchID        string     `json:"branchId"`
	BranchName      string     `json:"branchName"`
	TaskDate        time.Time  `json:"taskDate"`
	IsCompleted     bool       `json:"isCompleted"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	CompletedBy     string     `json:"completedBy,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	CheckID         string     `json:"checkId,omitempty"`
}

// AssignmentFilter narrows assignment listings. A nil IsCompleted means both
// completed and open assignments.
type AssignmentFilter struct {
	BranchID    string
	TaskDate    time.Time
	IsCompleted *bool
	ActiveOnly  bool
}
