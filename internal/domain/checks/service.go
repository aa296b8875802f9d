package checks

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
)

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

func (s *Service) Create(ctx context.Context, check *DishCheck) error {
	if check.BranchID == "" {
		return fmt.Errorf("%w: branch is required", ErrValidation)
	}
	if (check.DishID == "") == (check.DishNameManual == "") {
		return fmt.Errorf("%w: exactly one of dish or manual dish name is required", ErrValidation)
	}
	if check.ChefID != "" && check.ChefNameManual != "" {
		return fmt.Errorf("%w: chef and manual chef name are mutually exclusive", ErrValidation)
	}
	if check.Rating < 1 || check.Rating > 10 {
		return fmt.Errorf("%w: rating must be between 1 and 10", ErrValidation)
	}
	if check.CheckDate.IsZero() {
		check.CheckDate = time.Now().UTC()
	}
	return s.store.Create(ctx, check)
}

func (s *Service) Get(ctx context.Context, id string) (*DishCheck, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filter Filter, limit, offset int) ([]DishCheck, error) {
	return s.store.List(ctx, filter, limit, offset)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}
