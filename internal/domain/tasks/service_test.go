package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type fakeStore struct {
	tasks       map[string]*Task
	assignments map[string]*Assignment
	branches    map[string]string
	nextID      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tasks:       map[string]*Task{},
		assignments: map[string]*Assignment{},
		branches:    map[string]string{"b1": "Downtown", "b2": "Riverside"},
	}
}

func (s *fakeStore) CreateTask(ctx context.Context, task *Task) error {
	s.nextID++
	task.ID = fmt.Sprintf("t%d", s.nextID)
	task.CreatedAt = time.Now()
	copied := *task
	s.tasks[task.ID] = &copied
	return nil
}

func (s *fakeStore) GetTask(ctx context.Context, id string) (*Task, error) {
	task, ok := s.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *task
	return &copied, nil
}

func (s *fakeStore) ListTasks(ctx context.Context, active *bool) ([]Task, error) {
	var out []Task
	for _, task := range s.tasks {
		if active != nil && task.IsActive != *active {
			continue
		}
		out = append(out, *task)
	}
	return out, nil
}

func (s *fakeStore) UpdateTask(ctx context.Context, task *Task) error {
	if _, ok := s.tasks[task.ID]; !ok {
		return ErrNotFound
	}
	copied := *task
	s.tasks[task.ID] = &copied
	return nil
}

func (s *fakeStore) CreateAssignment(ctx context.Context, taskID, branchID string, date time.Time) error {
	branchName, ok := s.branches[branchID]
	if !ok {
		return nil
	}
	s.nextID++
	id := fmt.Sprintf("a%d", s.nextID)
	task := s.tasks[taskID]
	s.assignments[id] = &Assignment{
		ID:         id,
		TaskID:     taskID,
		TaskTitle:  task.Title,
		TaskType:   task.TaskType,
		BranchID:   branchID,
		BranchName: branchName,
		TaskDate:   date,
	}
	return nil
}

func (s *fakeStore) GetAssignment(ctx context.Context, id string) (*Assignment, error) {
	assignment, ok := s.assignments[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *assignment
	return &copied, nil
}

func (s *fakeStore) ListAssignments(ctx context.Context, filter AssignmentFilter, limit, offset int) ([]Assignment, error) {
	var out []Assignment
	for _, assignment := range s.assignments {
		if filter.BranchID != "" && assignment.BranchID != filter.BranchID {
			continue
		}
		if !filter.TaskDate.IsZero() && !assignment.TaskDate.Equal(filter.TaskDate) {
			continue
		}
		if filter.IsCompleted != nil && assignment.IsCompleted != *filter.IsCompleted {
			continue
		}
		if filter.ActiveOnly && !s.tasks[assignment.TaskID].IsActive {
			continue
		}
		out = append(out, *assignment)
	}
	return out, nil
}

func (s *fakeStore) UpdateAssignmentCompletion(ctx context.Context, assignment *Assignment) error {
	if _, ok := s.assignments[assignment.ID]; !ok {
		return ErrNotFound
	}
	copied := *assignment
	s.assignments[assignment.ID] = &copied
	return nil
}

func createTask(t *testing.T, svc *Service, branchIDs ...string) *Task {
	t.Helper()
	task := &Task{
		Title:     "Check the soup of the day",
		TaskType:  TypeDishCheck,
		CreatedBy: "hq-1",
	}
	if err := svc.Create(context.Background(), task, branchIDs); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return task
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newFakeStore())
	ctx := context.Background()
	yesterday := time.Now().UTC().Add(-48 * time.Hour)

	cases := []struct {
		name     string
		task     Task
		branches []string
	}{
		{"missing title", Task{TaskType: TypeDishCheck}, []string{"b1"}},
		{"bad task type", Task{Title: "t", TaskType: "inventory"}, []string{"b1"}},
		{"bad frequency", Task{Title: "t", TaskType: TypeDishCheck, Frequency: "hourly"}, []string{"b1"}},
		{"end before start", Task{Title: "t", TaskType: TypeDishCheck, EndDate: &yesterday}, []string{"b1"}},
		{"no branches", Task{Title: "t", TaskType: TypeDishCheck}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			task := tc.task
			if err := svc.Create(ctx, &task, tc.branches); !errors.Is(err, ErrValidation) {
				t.Fatalf("Create error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestCreateSeedsAssignmentsPerBranch(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	// "ghost" is not a known branch and must be skipped, not fail the create.
	task := createTask(t, svc, "b1", "b2", "ghost")

	if task.Frequency != FrequencyOnce {
		t.Fatalf("frequency = %q, want default %q", task.Frequency, FrequencyOnce)
	}
	if !task.IsActive {
		t.Fatal("new task should be active")
	}
	if len(store.assignments) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(store.assignments))
	}
	for _, assignment := range store.assignments {
		if !assignment.TaskDate.Equal(task.StartDate) {
			t.Fatalf("assignment date = %v, want start date %v", assignment.TaskDate, task.StartDate)
		}
	}
}

func TestUpdateDeactivatesTask(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()
	task := createTask(t, svc, "b1")

	inactive := false
	updated, err := svc.Update(ctx, task.ID, UpdateInput{IsActive: &inactive})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.IsActive {
		t.Fatal("task should be inactive")
	}

	// Inactive tasks disappear from the branch's daily list.
	list, err := svc.BranchTasks(ctx, "b1", task.StartDate)
	if err != nil {
		t.Fatalf("BranchTasks: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no assignments for inactive task, got %d", len(list))
	}

	empty := ""
	if _, err := svc.Update(ctx, task.ID, UpdateInput{Title: &empty}); !errors.Is(err, ErrValidation) {
		t.Fatalf("Update with empty title = %v, want ErrValidation", err)
	}
}

func TestBranchTasksRequiresBranch(t *testing.T) {
	svc := NewService(newFakeStore())
	if _, err := svc.BranchTasks(context.Background(), "", time.Time{}); !errors.Is(err, ErrValidation) {
		t.Fatalf("BranchTasks error = %v, want ErrValidation", err)
	}
}

func TestCompleteAndUncomplete(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()
	task := createTask(t, svc, "b1")

	list, err := svc.BranchTasks(ctx, "b1", task.StartDate)
	if err != nil || len(list) != 1 {
		t.Fatalf("BranchTasks = %v, %v; want one assignment", list, err)
	}
	assignmentID := list[0].ID

	done, err := svc.Complete(ctx, assignmentID, "mgr-1", "b1", "soup was on point", "chk-1")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !done.IsCompleted || done.CompletedAt == nil || done.CompletedBy != "mgr-1" {
		t.Fatalf("completion not recorded: %+v", done)
	}
	if done.Notes != "soup was on point" || done.CheckID != "chk-1" {
		t.Fatalf("completion details not recorded: %+v", done)
	}

	reopened, err := svc.Uncomplete(ctx, assignmentID, "b1")
	if err != nil {
		t.Fatalf("Uncomplete: %v", err)
	}
	if reopened.IsCompleted || reopened.CompletedAt != nil || reopened.CompletedBy != "" || reopened.Notes != "" || reopened.CheckID != "" {
		t.Fatalf("completion record not cleared: %+v", reopened)
	}
}

func TestCompleteGuardsOtherBranch(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()
	task := createTask(t, svc, "b1")

	list, err := svc.BranchTasks(ctx, "b1", task.StartDate)
	if err != nil || len(list) != 1 {
		t.Fatalf("BranchTasks = %v, %v; want one assignment", list, err)
	}

	if _, err := svc.Complete(ctx, list[0].ID, "mgr-2", "b2", "", ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Complete from another branch = %v, want ErrForbidden", err)
	}
	if _, err := svc.Uncomplete(ctx, list[0].ID, "b2"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Uncomplete from another branch = %v, want ErrForbidden", err)
	}
	if _, err := svc.Complete(ctx, "missing", "mgr-1", "", "", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Complete on missing assignment = %v, want ErrNotFound", err)
	}
}
