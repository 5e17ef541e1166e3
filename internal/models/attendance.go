package models

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceHalfDay AttendanceStatus = "half-day"
	AttendanceHoliday AttendanceStatus = "holiday"
	AttendanceLeave   AttendanceStatus = "leave"
	AttendancePending AttendanceStatus = "pending"
)

// AttendanceDay is a read-side cache row keyed by date (YYYY-MM-DD).
type AttendanceDay struct {
	Date    string           `json:"date"`
	Status  AttendanceStatus `json:"status"`
	InTime  string           `json:"in_time,omitempty"`
	OutTime string           `json:"out_time,omitempty"`
	Notes   string           `json:"notes,omitempty"`
}
