package catalog

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
)

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

func (s *Service) CreateBranch(ctx context.Context, b *Branch) error {
	b.Name = strings.TrimSpace(b.Name)
	if b.Name == "" {
		return fmt.Errorf("%w: branch name is required", ErrValidation)
	}
	return s.store.CreateBranch(ctx, b)
}

func (s *Service) GetBranch(ctx context.Context, id string) (*Branch, error) {
	return s.store.GetBranch(ctx, id)
}

func (s *Service) ListBranches(ctx context.Context, includeInactive bool) ([]Branch, error) {
	return s.store.ListBranches(ctx, includeInactive)
}

func (s *Service) UpdateBranch(ctx context.Context, b *Branch) error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("%w: branch name is required", ErrValidation)
	}
	return s.store.UpdateBranch(ctx, b)
}

func (s *Service) CreateDish(ctx context.Context, d *Dish) error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return fmt.Errorf("%w: dish name is required", ErrValidation)
	}
	return s.store.CreateDish(ctx, d)
}

func (s *Service) GetDish(ctx context.Context, id string) (*Dish, error) {
	return s.store.GetDish(ctx, id)
}

func (s *Service) ListDishes(ctx context.Context, category string) ([]Dish, error) {
	return s.store.ListDishes(ctx, category)
}

func (s *Service) CreateChef(ctx context.Context, c *Chef) error {
	c.FullName = strings.TrimSpace(c.FullName)
	if c.FullName == "" {
		return fmt.Errorf("%w: chef name is required", ErrValidation)
	}
	if c.BranchID == "" {
		return fmt.Errorf("%w: branch is required", ErrValidation)
	}
	return s.store.CreateChef(ctx, c)
}

func (s *Service) ListChefs(ctx context.Context, branchID string) ([]Chef, error) {
	return s.store.ListChefs(ctx, branchID)
}

func (s *Service) CreateUser(ctx context.Context, u *User, passwordHash string) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	if strings.TrimSpace(u.FullName) == "" {
		return fmt.Errorf("%w: full name is required", ErrValidation)
	}
	return s.store.CreateUser(ctx, u, passwordHash)
}

func (s *Service) ListUsers(ctx context.Context, role string) ([]User, error) {
	return s.store.ListUsers(ctx, role)
}
