package models

import "fmt"

// ClassSession is one recurring weekly meeting of a course. Branch, semester
// and section are carried for display only.
type ClassSession struct {
	ID        string `db:"id" json:"id"`
	CourseID  string `db:"course_id" json:"course_id"`
	Day       string `db:"day" json:"day"`
	Slot      string `db:"slot" json:"slot"`
	TimeRange string `db:"time_range" json:"time_range"`
	Room      string `db:"room" json:"room"`
	Branch    string `db:"branch" json:"branch"`
	Semester  string `db:"semester" json:"semester"`
	Section   string `db:"section" json:"section"`
}

// Period renders the session as the descriptor offered to callers and
// persisted on a Test, e.g. "Slot 4 (10:45 am - 11:35 am) - F305".
func (s ClassSession) Period() string {
	return fmt.Sprintf("%s (%s) - %s", s.Slot, s.TimeRange, s.Room)
}
