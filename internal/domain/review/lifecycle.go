package review

import "time"

// The lifecycle is monotonic: draft -> submitted -> completed -> approved.
// Every transition is guarded on the current state; an illegal move returns a
// conflict and leaves the record untouched.

// Submit moves a draft review to submitted.
func (r *Review) Submit(now time.Time) error {
	if r.Status != StatusDraft {
		return conflictf("only draft reviews can be submitted, current status is %s", r.Status)
	}
	r.Status = StatusSubmitted
	r.SubmittedAt = &now
	return nil
}

// Complete moves a submitted review to completed.
func (r *Review) Complete(now time.Time) error {
	if r.Status != StatusSubmitted {
		return conflictf("only submitted reviews can be completed, current status is %s", r.Status)
	}
	r.Status = StatusCompleted
	r.CompletedAt = &now
	return nil
}

// Approve moves a completed review to the terminal approved state, recording
// the approver.
func (r *Review) Approve(approverID string, now time.Time) error {
	if r.Status != StatusCompleted {
		return conflictf("only completed reviews can be approved, current status is %s", r.Status)
	}
	r.Status = StatusApproved
	r.ApprovedByID = approverID
	r.ApprovedAt = &now
	return nil
}

// CanDelete reports whether the review may still be removed. Once shared
// beyond draft it is part of the audit trail.
func (r *Review) CanDelete() error {
	if r.Status != StatusDraft {
		return conflictf("cannot delete a non-draft review")
	}
	return nil
}

// CanEditScores reports whether full score edits are still legal.
func (r *Review) CanEditScores() error {
	if r.Status != StatusDraft {
		return conflictf("scores can only be edited while the review is a draft")
	}
	return nil
}

// Acknowledge records the reviewed manager's sign-off and comment. This is
// the only mutation permitted after draft and may never touch scores.
func (r *Review) Acknowledge(comments string, now time.Time) {
	r.ManagerAcknowledged = true
	r.ManagerAcknowledgedAt = &now
	r.ManagerComments = comments
}
