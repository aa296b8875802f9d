package sanitation

import "context"

// StoreAPI is the persistence surface the sanitation service depends on.
type StoreAPI interface {
	Create(ctx context.Context, audit *Audit) error
	Get(ctx context.Context, id string) (*Audit, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]Audit, error)
	Update(ctx context.Context, audit *Audit) error
}

var _ StoreAPI = (*Store)(nil)
