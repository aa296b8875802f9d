package notifications

const (
	TypeReviewSubmitted    = "review_submitted"
	TypeReviewCompleted    = "review_completed"
	TypeReviewApproved     = "review_approved"
	TypeReviewAcknowledged = "review_acknowledged"
	TypeAuditCompleted     = "audit_completed"
)
