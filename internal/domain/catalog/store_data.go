package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func (s *Store) CreateBranch(ctx context.Context, b *Branch) error {
	err := s.DB.QueryRow(ctx, `
		INSERT INTO branches (name, address, phone)
		VALUES ($1, $2, $3)
		RETURNING id, active, created_at, updated_at
	`, b.Name, b.Address, b.Phone).Scan(&b.ID, &b.Active, &b.CreatedAt, &b.UpdatedAt)
	return mapStoreError(err)
}

func (s *Store) GetBranch(ctx context.Context, id string) (*Branch, error) {
	var b Branch
	err := s.DB.QueryRow(ctx, `
		SELECT id, name, COALESCE(address, ''), COALESCE(phone, ''), active, created_at, updated_at
		FROM branches WHERE id = $1
	`, id).Scan(&b.ID, &b.Name, &b.Address, &b.Phone, &b.Active, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return &b, nil
}

func (s *Store) ListBranches(ctx context.Context, includeInactive bool) ([]Branch, error) {
	query := `
		SELECT id, name, COALESCE(address, ''), COALESCE(phone, ''), active, created_at, updated_at
		FROM branches`
	if !includeInactive {
		query += " WHERE active"
	}
	query += " ORDER BY name"

	rows, err := s.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Branch
	for rows.Next() {
		var b Branch
		if err := rows.Scan(&b.ID, &b.Name, &b.Address, &b.Phone, &b.Active, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) UpdateBranch(ctx context.Context, b *Branch) error {
	tag, err := s.DB.Exec(ctx, `
		UPDATE branches
		SET name = $1, address = $2, phone = $3, active = $4, updated_at = now()
		WHERE id = $5
	`, b.Name, b.Address, b.Phone, b.Active, b.ID)
	if err != nil {
		return mapStoreError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CreateDish(ctx context.Context, d *Dish) error {
	err := s.DB.QueryRow(ctx, `
		INSERT INTO dishes (name, category, description)
		VALUES ($1, $2, $3)
		RETURNING id, active, created_at, updated_at
	`, d.Name, d.Category, d.Description).Scan(&d.ID, &d.Active, &d.CreatedAt, &d.UpdatedAt)
	return mapStoreError(err)
}

func (s *Store) GetDish(ctx context.Context, id string) (*Dish, error) {
	var d Dish
	err := s.DB.QueryRow(ctx, `
		SELECT id, name, COALESCE(category, ''), COALESCE(description, ''), active, created_at, updated_at
		FROM dishes WHERE id = $1
	`, id).Scan(&d.ID, &d.Name, &d.Category, &d.Description, &d.Active, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return &d, nil
}

func (s *Store) ListDishes(ctx context.Context, category string) ([]Dish, error) {
	query := `
		SELECT id, name, COALESCE(category, ''), COALESCE(description, ''), active, created_at, updated_at
		FROM dishes WHERE active`
	var args []any
	if category != "" {
		args = append(args, category)
		query += " AND category = $1"
	}
	query += " ORDER BY name"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Dish
	for rows.Next() {
		var d Dish
		if err := rows.Scan(&d.ID, &d.Name, &d.Category, &d.Description, &d.Active, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) CreateChef(ctx context.Context, c *Chef) error {
	err := s.DB.QueryRow(ctx, `
		INSERT INTO chefs (branch_id, full_name, specialty)
		VALUES ($1, $2, $3)
		RETURNING id, active, created_at, updated_at
	`, c.BranchID, c.FullName, c.Specialty).Scan(&c.ID, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	return mapStoreError(err)
}

func (s *Store) ListChefs(ctx context.Context, branchID string) ([]Chef, error) {
	query := `
		SELECT id, branch_id, full_name, COALESCE(specialty, ''), active, created_at, updated_at
		FROM chefs WHERE active`
	var args []any
	if branchID != "" {
		args = append(args, branchID)
		query += " AND branch_id = $1"
	}
	query += " ORDER BY full_name"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Chef
	for rows.Next() {
		var c Chef
		if err := rows.Scan(&c.ID, &c.BranchID, &c.FullName, &c.Specialty, &c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) CreateUser(ctx context.Context, u *User, passwordHash string) error {
	var branchID any
	if u.BranchID != "" {
		branchID = u.BranchID
	}
	err := s.DB.QueryRow(ctx, `
		INSERT INTO users (email, full_name, password_hash, role, branch_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, active, created_at
	`, u.Email, u.FullName, passwordHash, u.Role, branchID).Scan(&u.ID, &u.Active, &u.CreatedAt)
	return mapStoreError(err)
}

func (s *Store) ListUsers(ctx context.Context, role string) ([]User, error) {
	query := `
		SELECT id, email, full_name, role, branch_id, active, last_login, created_at
		FROM users WHERE active`
	var args []any
	if role != "" {
		args = append(args, role)
		query += " AND role = $1"
	}
	query += " ORDER BY full_name"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		var branchID *string
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &branchID, &u.Active, &u.LastLogin, &u.CreatedAt); err != nil {
			return nil, err
		}
		if branchID != nil {
			u.BranchID = *branchID
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func mapStoreError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrConflict
		case "23503":
			return ErrValidation
		}
	}
	return err
}
