package report

import "errors"

var (
	// ErrReportNotFound indicates no report exists for the requested day.
	ErrReportNotFound = errors.New("report not found")
	// ErrNoLogs indicates the day has nothing to report on.
	ErrNoLogs = errors.New("no logs for this date")
	// ErrInvalidInput indicates bad request input.
	ErrInvalidInput = errors.New("invalid input")
)
