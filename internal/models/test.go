package models

import "time"

// DateLayout is the ISO calendar form used for Test dates.
const DateLayout = "2006-01-02"

// Test is a scheduled assessment. At most one exists per (Subject, Date).
type Test struct {
	ID        string    `db:"id" json:"id"`
	Subject   string    `db:"subject" json:"subject"`
	Date      string    `db:"date" json:"date"`
	Period    string    `db:"period" json:"period"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ScheduledTest projects a Test together with the teacher who scheduled it.
type ScheduledTest struct {
	Teacher string `db:"teacher" json:"teacher"`
	Subject string `db:"subject" json:"subject"`
	Date    string `db:"date" json:"date"`
	Period  string `db:"period" json:"period"`
}
