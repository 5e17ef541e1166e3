package service

import "errors"

// Validation failures happen before any record or pending action exists;
// nothing rejected here ever enters the queue.
var (
	ErrAccuracyTooLow    = errors.New("location accuracy exceeds the allowed threshold")
	ErrPhotoRequired     = errors.New("punch photo is required")
	ErrInvalidPunchType  = errors.New("punch type must be IN or OUT")
	ErrInvalidLeaveType  = errors.New("unknown leave type")
	ErrInvalidDateRange  = errors.New("leave end date precedes start date")
	ErrInvalidDate       = errors.New("date must be in YYYY-MM-DD form")
	ErrReasonRequired    = errors.New("leave reason is required")
	ErrInvalidMood       = errors.New("unknown mood type")
	ErrTitleRequired     = errors.New("ticket title is required")
	ErrMessageRequired   = errors.New("ticket message body is required")
	ErrTicketNotFound    = errors.New("ticket not found")
)
