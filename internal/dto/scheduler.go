package dto

// ScheduleTestRequest commits one of the periods previously offered for the
// subject and date.
type ScheduleTestRequest struct {
	Teacher string `json:"teacher" validate:"required,max=200"`
	Subject string `json:"subject" validate:"required,max=200"`
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
	Period  string `json:"period" validate:"required,max=300"`
}

// PeriodsQuery asks which periods are open for a subject on a date.
type PeriodsQuery struct {
	Subject string `form:"subject" validate:"required,max=200"`
	Date    string `form:"date"`
}

// PeriodsResponse lists candidate periods ordered by slot.
type PeriodsResponse struct {
	Subject string   `json:"subject"`
	Date    string   `json:"date"`
	Weekday string   `json:"weekday"`
	Periods []string `json:"periods"`
}

// ExportQuery selects the export format for scheduled tests.
type ExportQuery struct {
	Format string `form:"format"`
}
