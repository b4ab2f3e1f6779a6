package events

import "time"

// TopicLeaveLifecycle carries every leave request state change a downstream
// consumer may care about.
const TopicLeaveLifecycle = "hr.leave.lifecycle.v1"

const (
	LeaveEventApproved  = "leave.approved"
	LeaveEventRejected  = "leave.rejected"
	LeaveEventCancelled = "leave.cancelled"
)

type LeaveLifecycleEvent struct {
	EventType      string    `json:"event_type"`
	LeaveRequestID string    `json:"leave_request_id"`
	CompanyID      string    `json:"company_id"`
	EmployeeID     string    `json:"employee_id"`
	LeaveTypeID    string    `json:"leave_type_id"`
	StartDate      string    `json:"start_date"`
	EndDate        string    `json:"end_date"`
	Duration       string    `json:"duration"`
	Status         string    `json:"status"`
	ActorID        string    `json:"actor_id"`
	OccurredAt     time.Time `json:"occurred_at"`
}
