package report

import "time"

// Report is the stored daily report of one user and day.
type Report struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	ReportDate string    `json:"report_date"`
	Content    string    `json:"content"`
	TotalLogs  int       `json:"total_logs"`
	FCount     int       `json:"f_count"`
	TCount     int       `json:"t_count"`
	WCount     int       `json:"w_count"`
	ICount     int       `json:"i_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Summary is an executive summary over a range of stored reports.
type Summary struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Reports int    `json:"reports"`
	Content string `json:"content"`
}
