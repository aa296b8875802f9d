package review

import (
	"encoding/json"
	"time"
)

// ScoreEntry is one subcategory score/comment pair. A nil Score means the
// subcategory has not been rated yet, which is distinct from a score of zero.
type ScoreEntry struct {
	Score    *float64 `json:"score"`
	Comments string   `json:"comments,omitempty"`
}

// DevelopmentGoal is one entry of the individual development plan.
type DevelopmentGoal struct {
	Goal     string   `json:"goal"`
	Actions  []string `json:"actions"`
	Timeline string   `json:"timeline"`
	Support  string   `json:"support"`
}

// AutoMetrics holds the system-derived context numbers captured once at
// review creation. A nil average with a zero count means no data was measured
// for the period, never an average of zero.
type AutoMetrics struct {
	SanitationAvg   *float64 `json:"sanitationAvg"`
	SanitationCount int      `json:"sanitationCount"`
	DishChecksAvg   *float64 `json:"dishChecksAvg"`
	DishChecksCount int      `json:"dishChecksCount"`
}

// Review is a quarterly manager performance review. Exactly one of ManagerID
// and ManagerName identifies the subject.
type Review struct {
	ID          string `json:"id"`
	ManagerID   string `json:"managerId,omitempty"`
	ManagerName string `json:"managerName,omitempty"`
	BranchID    string `json:"branchId"`
	ReviewerID  string `json:"reviewerId"`

	Year       int       `json:"year"`
	Quarter    string    `json:"quarter"`
	ReviewDate time.Time `json:"reviewDate"`
	Status     string    `json:"status"`

	Scores         map[string]ScoreEntry `json:"scores"`
	CategoryScores map[string]*float64   `json:"categoryScores"`
	OverallScore   *float64              `json:"overallScore"`

	AutoMetrics AutoMetrics `json:"autoMetrics"`

	DevelopmentGoals  []DevelopmentGoal `json:"developmentGoals,omitempty"`
	NextReviewTargets json.RawMessage   `json:"nextReviewTargets,omitempty"`

	StrengthsSummary   string `json:"strengthsSummary,omitempty"`
	ImprovementSummary string `json:"improvementSummary,omitempty"`

	ManagerAcknowledged   bool       `json:"managerAcknowledged"`
	ManagerAcknowledgedAt *time.Time `json:"managerAcknowledgedAt,omitempty"`
	ManagerComments       string     `json:"managerComments,omitempty"`

	ApprovedByID string     `json:"approvedById,omitempty"`
	ApprovedAt   *time.Time `json:"approvedAt,omitempty"`

	AISummary            string     `json:"aiSummary,omitempty"`
	AISummaryGeneratedAt *time.Time `json:"aiSummaryGeneratedAt,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// SubjectLabel names the reviewed manager for display and prompts.
func (r *Review) SubjectLabel() string {
	if r.ManagerName != "" {
		return r.ManagerName
	}
	return r.ManagerID
}

// Actor is the pre-authenticated caller as seen by the engine. The engine
// enforces lifecycle rules only; authentication and the HQ allow-list are
// resolved by the transport layer into the capability flags here.
type Actor struct {
	UserID           string
	Role             string
	BranchID         string
	CanManageReviews bool
}

// Filter narrows review listings.
type Filter struct {
	BranchID  string
	ManagerID string
	Year      int
	Quarter   string
	Status    string
}
