package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const taskColumns = `t.id, t.title, COALESCE(t.description, ''), t.task_type,
	COALESCE(t.dish_id::text, ''), COALESCE(d.name, ''), t.frequency,
	t.start_date, t.end_date, t.is_active, t.created_by, t.created_at`

const taskFrom = ` FROM daily_tasks t LEFT JOIN dishes d ON d.id = t.dish_id`

func (s *Store) CreateTask(ctx context.Context, task *Task) error {
	return s.DB.QueryRow(ctx, `
		INSERT INTO daily_tasks (title, description, task_type, dish_id, frequency, start_date, end_date, is_active, created_by)
		VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, '')::uuid, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, task.Title, task.Description, task.TaskType, task.DishID, task.Frequency,
		task.StartDate, task.EndDate, task.IsActive, task.CreatedBy,
	).Scan(&task.ID, &task.CreatedAt)
}

func (s *Store) GetTask(ctx context.Context, id string) (*Task, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+taskColumns+taskFrom+` WHERE t.id = $1`, id)
	task, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Store) ListTasks(ctx context.Context, active *bool) ([]Task, error) {
	query := `SELECT ` + taskColumns + taskFrom + ` WHERE 1=1`
	var args []any
	if active != nil {
		args = append(args, *active)
		query += fmt.Sprintf(" AND t.is_active = $%d", len(args))
	}
	query += " ORDER BY t.created_at DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *task)
	}
	return out, rows.Err()
}

func (s *Store) UpdateTask(ctx context.Context, task *Task) error {
	_, err := s.DB.Exec(ctx, `
		UPDATE daily_tasks
		SET title = $1, description = NULLIF($2, ''), is_active = $3
		WHERE id = $4
	`, task.Title, task.Description, task.IsActive, task.ID)
	return err
}

// CreateAssignment seeds one assignment row. Branch ids that do not resolve
// to a branch are skipped, as is a duplicate (task, branch, date) row.
func (s *Store) CreateAssignment(ctx context.Context, taskID, branchID string, date time.Time) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO task_assignments (task_id, branch_id, task_date)
		SELECT $1, id, $3 FROM branches WHERE id = $2
		ON CONFLICT (task_id, branch_id, task_date) DO NOTHING
	`, taskID, branchID, date)
	return err
}

const assignmentColumns = `a.id, a.task_id, t.title, COALESCE(t.description, ''), t.task_type,
	COALESCE(d.name, ''), a.branch_id, b.name, a.task_date, a.is_completed, a.completed_at,
	COALESCE(a.completed_by::text, ''), COALESCE(a.notes, ''), COALESCE(a.check_id::text, '')`

const assignmentFrom = ` FROM task_assignments a
	JOIN daily_tasks t ON t.id = a.task_id
	JOIN branches b ON b.id = a.branch_id
	LEFT JOIN dishes d ON d.id = t.dish_id`

func (s *Store) GetAssignment(ctx context.Context, id string) (*Assignment, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+assignmentColumns+assignmentFrom+` WHERE a.id = $1`, id)
	assignment, err := scanAssignment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return assignment, nil
}

func (s *Store) ListAssignments(ctx context.Context, filter AssignmentFilter, limit, offset int) ([]Assignment, error) {
	query := `SELECT ` + assignmentColumns + assignmentFrom + ` WHERE 1=1`
	var args []any
	if filter.BranchID != "" {
		args = append(args, filter.BranchID)
		query += fmt.Sprintf(" AND a.branch_id = $%d", len(args))
	}
	if !filter.TaskDate.IsZero() {
		args = append(args, filter.TaskDate)
		query += fmt.Sprintf(" AND a.task_date = $%d", len(args))
	}
	if filter.IsCompleted != nil {
		args = append(args, *filter.IsCompleted)
		query += fmt.Sprintf(" AND a.is_completed = $%d", len(args))
	}
	if filter.ActiveOnly {
		query += " AND t.is_active"
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY a.task_date DESC, a.is_completed, t.created_at LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *assignment)
	}
	return out, rows.Err()
}

func (s *Store) UpdateAssignmentCompletion(ctx context.Context, assignment *Assignment) error {
	_, err := s.DB.Exec(ctx, `
		UPDATE task_assignments
		SET is_completed = $1, completed_at = $2, completed_by = NULLIF($3, '')::uuid,
			notes = NULLIF($4, ''), check_id = NULLIF($5, '')::uuid
		WHERE id = $6
	`, assignment.IsCompleted, assignment.CompletedAt, assignment.CompletedBy,
		assignment.Notes, assignment.CheckID, assignment.ID)
	return err
}

func scanTask(row pgx.Row) (*Task, error) {
	var task Task
	err := row.Scan(&task.ID, &task.Title, &task.Description, &task.TaskType,
		&task.DishID, &task.DishName, &task.Frequency, &task.StartDate,
		&task.EndDate, &task.IsActive, &task.CreatedBy, &task.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func scanAssignment(row pgx.Row) (*Assignment, error) {
	var assignment Assignment
	err := row.Scan(&assignment.ID, &assignment.TaskID, &assignment.TaskTitle,
		&assignment.TaskDescription, &assignment.TaskType, &assignment.DishName,
		&assignment.BranchID, &assignment.BranchName, &assignment.TaskDate,
		&assignment.IsCompleted, &assignment.CompletedAt, &assignment.CompletedBy,
		&assignment.Notes, &assignment.CheckID)
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}
