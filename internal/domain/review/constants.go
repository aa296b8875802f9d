package review

const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
	StatusCompleted = "completed"
	StatusApproved  = "approved"

	CategoryOperational = "operational"
	CategoryPeople      = "people"
	CategoryBusiness    = "business"
	CategoryLeadership  = "leadership"

	SubSanitation  = "sanitation"
	SubInventory   = "inventory"
	SubQuality     = "quality"
	SubMaintenance = "maintenance"
	SubRecruitment = "recruitment"
	SubScheduling  = "scheduling"
	SubRetention   = "retention"
	SubSales       = "sales"
	SubEfficiency  = "efficiency"
	SubLeadership  = "leadership"

	PerformanceOutstanding = "outstanding"
	PerformanceExceeds     = "exceeds_expectations"
	PerformanceMeets       = "meets_expectations"
	PerformanceNeedsWork   = "needs_improvement"
	PerformanceDoesNotMeet = "does_not_meet"
)

// PerformanceLevel bands an overall score into the chain's rating scale.
func PerformanceLevel(overall float64) string {
	switch {
	case overall >= 90:
		return PerformanceOutstanding
	case overall >= 80:
		return PerformanceExceeds
	case overall >= 70:
		return PerformanceMeets
	case overall >= 60:
		return PerformanceNeedsWork
	default:
		return PerformanceDoesNotMeet
	}
}
