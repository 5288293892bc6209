package models

// Status values per submission kind. The first value of each group is the
// initial status assigned on creation.
const (
	ContactStatusNew     = "new"
	ContactStatusRead    = "read"
	ContactStatusReplied = "replied"

	ComplaintStatusNew        = "new"
	ComplaintStatusInProgress = "in_progress"
	ComplaintStatusResolved   = "resolved"
	ComplaintStatusRejected   = "rejected"

	ReturnStatusPending   = "pending"
	ReturnStatusApproved  = "approved"
	ReturnStatusRejected  = "rejected"
	ReturnStatusCompleted = "completed"

	B2BStatusNew       = "new"
	B2BStatusContacted = "contacted"
	B2BStatusApproved  = "approved"
	B2BStatusRejected  = "rejected"

	MotorStatusNew      = "new"
	MotorStatusInReview = "in_review"
	MotorStatusQuoted   = "quoted"
	MotorStatusClosed   = "closed"
)

// Submission is implemented by every record that goes through admin triage.
type Submission interface {
	CurrentStatus() string
}
