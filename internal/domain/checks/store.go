package checks

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Create(ctx context.Context, check *DishCheck) error {
	return s.DB.QueryRow(ctx, `
		INSERT INTO dish_checks (branch_id, dish_id, dish_name_manual, chef_id, chef_name_manual, checker_id, rating, comments, check_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, check.BranchID, nullable(check.DishID), nullable(check.DishNameManual),
		nullable(check.ChefID), nullable(check.ChefNameManual), check.CheckerID,
		check.Rating, check.Comments, check.CheckDate).Scan(&check.ID, &check.CreatedAt)
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func (s *Store) Get(ctx context.Context, id string) (*DishCheck, error) {
	row := s.DB.QueryRow(ctx, checkColumns+` FROM dish_checks WHERE id = $1`, id)
	check, err := scanCheck(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return check, nil
}

const checkColumns = `
	SELECT id, branch_id,
		COALESCE(dish_id::text, ''), COALESCE(dish_name_manual, ''),
		COALESCE(chef_id::text, ''), COALESCE(chef_name_manual, ''),
		checker_id, rating, COALESCE(comments, ''), check_date, created_at`

func scanCheck(row pgx.Row) (*DishCheck, error) {
	var check DishCheck
	err := row.Scan(&check.ID, &check.BranchID,
		&check.DishID, &check.DishNameManual,
		&check.ChefID, &check.ChefNameManual,
		&check.CheckerID, &check.Rating, &check.Comments, &check.CheckDate, &check.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &check, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM dish_checks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context, filter Filter, limit, offset int) ([]DishCheck, error) {
	query := checkColumns + ` FROM dish_checks WHERE 1=1`
	var args []any
	if filter.BranchID != "" {
		args = append(args, filter.BranchID)
		query += fmt.Sprintf(" AND branch_id = $%d", len(args))
	}
	if filter.DishID != "" {
		args = append(args, filter.DishID)
		query += fmt.Sprintf(" AND dish_id = $%d", len(args))
	}
	if filter.ChefID != "" {
		args = append(args, filter.ChefID)
		query += fmt.Sprintf(" AND chef_id = $%d", len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += fmt.Sprintf(" AND check_date >= $%d", len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += fmt.Sprintf(" AND check_date <= $%d", len(args))
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY check_date DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DishCheck
	for rows.Next() {
		check, err := scanCheck(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *check)
	}
	return out, rows.Err()
}
