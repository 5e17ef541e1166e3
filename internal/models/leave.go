package models

import "time"

type LeaveType string

const (
	LeaveCasual   LeaveType = "casual"
	LeaveSick     LeaveType = "sick"
	LeaveEarned   LeaveType = "earned"
	LeaveOptional LeaveType = "optional"
)

type LeaveStatus string

const (
	LeavePending  LeaveStatus = "pending"
	LeaveApproved LeaveStatus = "approved"
	LeaveRejected LeaveStatus = "rejected"
)

// LeaveRequest is keyed by LeaveID. StartDate and EndDate are calendar
// dates in YYYY-MM-DD form; the range is inclusive.
type LeaveRequest struct {
	LeaveID     string      `json:"leave_id"`
	UserID      string      `json:"user_id"`
	Type        LeaveType   `json:"type"`
	StartDate   string      `json:"start_date"`
	EndDate     string      `json:"end_date"`
	Reason      string      `json:"reason"`
	Attachments []string    `json:"attachments,omitempty"`
	Status      LeaveStatus `json:"status"`
	ApproverID  string      `json:"approver_id,omitempty"`
	AppliedAt   time.Time   `json:"applied_at"`
	Synced      bool        `json:"synced"`
}

// LeaveBalance tracks available versus consumed days per leave type.
type LeaveBalance struct {
	Type      LeaveType `json:"type"`
	Available float64   `json:"available"`
	Consumed  float64   `json:"consumed"`
}
