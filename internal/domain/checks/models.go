package checks

import "time"

// DishCheck is a single quality spot-check of a dish at a branch. Ratings run
// 1 (unacceptable) to 10 (excellent). The dish and chef each resolve either
// to a catalog record or to a manually typed name for items not yet in the
// catalog.
type DishCheck struct {
	ID             string    `json:"id"`
	BranchID       string    `json:"branchId"`
	DishID         string    `json:"dishId,omitempty"`
	DishNameManual string    `json:"dishNameManual,omitempty"`
	ChefID         string    `json:"chefId,omitempty"`
	ChefNameManual string    `json:"chefNameManual,omitempty"`
	CheckerID      string    `json:"checkerId"`
	Rating         float64   `json:"rating"`
	Comments       string    `json:"comments,omitempty"`
	CheckDate      time.Time `json:"checkDate"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Filter struct {
	BranchID string
	DishID   string
	ChefID   string
	From     time.Time
	To       time.Time
}
