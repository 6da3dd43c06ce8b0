package service

import (
	"context"
	"fmt"
	"time"

	"github.com/noah-isme/sma-testslot-api/internal/models"
	"github.com/noah-isme/sma-testslot-api/pkg/export"
	appErrors "github.com/noah-isme/sma-testslot-api/pkg/errors"
)

type scheduledTestLister interface {
	ListScheduledTests(ctx context.Context) ([]models.ScheduledTest, error)
}

// ExportFile is a rendered export ready for download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders the scheduled-test roster as CSV or PDF.
type ExportService struct {
	roster scheduledTestLister
	title  string
	now    func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(roster scheduledTestLister, title string) *ExportService {
	if title == "" {
		title = "Scheduled Tests"
	}
	return &ExportService{roster: roster, title: title, now: time.Now}
}

// ExportScheduledTests renders every scheduled test in the requested format.
func (s *ExportService) ExportScheduledTests(ctx context.Context, format string) (*ExportFile, error) {
	renderer, err := export.ForFormat(format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "format must be csv or pdf")
	}

	tests, err := s.roster.ListScheduledTests(ctx)
	if err != nil {
		return nil, err
	}

	data := export.Dataset{
		Title:   s.title,
		Headers: []string{"Date", "Subject", "Teacher", "Period"},
		Rows:    make([][]string, 0, len(tests)),
	}
	for _, test := range tests {
		data.Rows = append(data.Rows, []string{test.Date, test.Subject, test.Teacher, test.Period})
	}

	body, err := renderer.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("scheduled_tests_%s.%s", s.now().UTC().Format("20060102_150405"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}
