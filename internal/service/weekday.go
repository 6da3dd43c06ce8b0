package service

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/noah-isme/sma-testslot-api/internal/models"
	appErrors "github.com/noah-isme/sma-testslot-api/pkg/errors"
)

// WeekdayOf returns the English weekday name used by ClassSession.Day.
func WeekdayOf(date time.Time) string {
	return date.Weekday().String()
}

// parseCalendarDate parses a strict YYYY-MM-DD date at midnight in loc.
func parseCalendarDate(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	date, err := time.ParseInLocation(models.DateLayout, strings.TrimSpace(raw), loc)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrInvalidDate.Code, appErrors.ErrInvalidDate.Status, "date must use the YYYY-MM-DD format")
	}
	return date, nil
}

// startOfDay truncates t to midnight in loc.
func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// sortSessionsBySlot orders sessions by slot label, comparing runs of digits
// numerically so "Slot 10" follows "Slot 9".
func sortSessionsBySlot(sessions []models.ClassSession) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return naturalLess(sessions[i].Slot, sessions[j].Slot)
	})
}

func naturalLess(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	i, j := 0, 0
	for i < len(ra) && j < len(rb) {
		if unicode.IsDigit(ra[i]) && unicode.IsDigit(rb[j]) {
			si := i
			for i < len(ra) && unicode.IsDigit(ra[i]) {
				i++
			}
			sj := j
			for j < len(rb) && unicode.IsDigit(rb[j]) {
				j++
			}
			na := strings.TrimLeft(string(ra[si:i]), "0")
			nb := strings.TrimLeft(string(rb[sj:j]), "0")
			if len(na) != len(nb) {
				return len(na) < len(nb)
			}
			if na != nb {
				return na < nb
			}
			continue
		}
		if ra[i] != rb[j] {
			return ra[i] < rb[j]
		}
		i++
		j++
	}
	return len(ra)-i < len(rb)-j
}
