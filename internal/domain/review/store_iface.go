package review

import (
	"context"
	"time"
)

// StoreAPI is the persistence surface the review service depends on. The pgx
// implementation lives in store_data.go; tests substitute fakes.
type StoreAPI interface {
	CreateReview(ctx context.Context, r *Review) error
	GetReview(ctx context.Context, id string) (*Review, error)
	ListReviews(ctx context.Context, filter Filter) ([]Review, error)
	UpdateReviewScores(ctx context.Context, r *Review) error
	UpdateReviewStatus(ctx context.Context, r *Review) error
	UpdateAcknowledgement(ctx context.Context, r *Review) error
	SaveNarrative(ctx context.Context, id, summary string, generatedAt time.Time) error
	DeleteReview(ctx context.Context, id string) error

	History(ctx context.Context, managerID string) ([]Review, error)
	ListPending(ctx context.Context) ([]Review, error)
	MissingReviewManagers(ctx context.Context, year int, quarter string) ([]ManagerRef, error)

	BranchName(ctx context.Context, branchID string) (string, error)
	UserFullName(ctx context.Context, userID string) (string, error)
}

// ManagerRef identifies a branch manager without a review for a period.
type ManagerRef struct {
	UserID     string `json:"userId"`
	FullName   string `json:"fullName"`
	BranchID   string `json:"branchId"`
	BranchName string `json:"branchName"`
}
