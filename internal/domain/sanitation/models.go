package sanitation

import "time"

const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusReviewed   = "reviewed"
)

// MaxDeduction caps how many points a single category can take off.
const MaxDeduction = 10

// Category is one inspected area in an audit. Findings subtract points from
// the audit's running total instead of scoring against a per-category maximum.
type Category struct {
	Key       string  `json:"key"`
	Name      string  `json:"name"`
	Status    string  `json:"status,omitempty"`
	Notes     string  `json:"notes,omitempty"`
	Deduction float64 `json:"scoreDeduction"`
}

// Audit is a sanitation inspection visit to a branch by an HQ auditor. The
// total starts at 100 and category deductions subtract from it; only
// completed audits count toward review metrics.
type Audit struct {
	ID              string     `json:"id"`
	BranchID        string     `json:"branchId"`
	AuditorID       string     `json:"auditorId"`
	AuditorName     string     `json:"auditorName"`
	AccompanistName string     `json:"accompanistName,omitempty"`
	AuditDate       time.Time  `json:"auditDate"`
	StartTime       time.Time  `json:"startTime"`
	EndTime         *time.Time `json:"endTime,omitempty"`
	Status          string     `json:"status"`
	Categories      []Category `json:"categories"`
	TotalScore      float64    `json:"totalScore"`
	TotalDeductions float64    `json:"totalDeductions"`
	GeneralNotes    string     `json:"generalNotes,omitempty"`
	EquipmentIssues string     `json:"equipmentIssues,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

type Filter struct {
	BranchID string
	Status   string
	From     time.Time
	To       time.Time
}
