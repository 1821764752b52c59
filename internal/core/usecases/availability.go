package usecases

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mechlink/mechlink/internal/core/domain"
)

const clockLayout = "15:04"

// AvailabilityEvaluator decides whether a workshop is open at a given day and
// time of its weekly schedule. It never fails: malformed data reads as closed.
type AvailabilityEvaluator struct {
	loc *time.Location
	now func() time.Time
}

// NewAvailabilityEvaluator creates an evaluator whose "today" and "now" are
// taken from now in loc. A nil loc means UTC and a nil now means time.Now.
func NewAvailabilityEvaluator(loc *time.Location, now func() time.Time) *AvailabilityEvaluator {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &AvailabilityEvaluator{loc: loc, now: now}
}

// Evaluate returns the availability of schedule on day at the "HH:MM" time
// at. An empty day or time defaults to the current one.
func (e *AvailabilityEvaluator) Evaluate(schedule domain.WeeklySchedule, day domain.Weekday, at string) domain.Availability {
	if len(schedule) == 0 {
		return domain.Availability{}
	}

	now := e.now().In(e.loc)
	if day == "" {
		day = domain.WeekdayOf(now.Weekday())
	}
	if at == "" {
		at = now.Format(clockLayout)
	}

	raw, ok := schedule[day]
	if !ok || strings.TrimSpace(raw) == "" {
		return domain.Availability{NextOpenTime: nextOpening(schedule, day)}
	}

	opens, closes, err := ParseInterval(raw)
	if err != nil {
		return domain.Availability{TodayHours: &raw}
	}

	hours := raw
	opensAt, closesAt := formatClock(opens), formatClock(closes)
	av := domain.Availability{
		IsOpenToday: true,
		TodayHours:  &hours,
		OpensAt:     &opensAt,
		ClosesAt:    &closesAt,
	}

	t, err := ParseClock(at)
	if err != nil {
		av.NextOpenTime = &opensAt
		return av
	}

	switch {
	case t >= opens && t <= closes:
		av.IsOpenNow = true
	case t < opens:
		av.NextOpenTime = &opensAt
	default:
		av.NextOpenTime = nextOpening(schedule, day)
	}
	return av
}

// nextOpening scans the days after from, wrapping once around the week,
// and returns "<Day> HH:MM" for the first well-formed interval.
func nextOpening(schedule domain.WeeklySchedule, from domain.Weekday) *string {
	start := from.Index()
	if start < 0 {
		return nil
	}
	for i := 1; i <= 7; i++ {
		day := domain.Weekdays[(start+i)%7]
		raw, ok := schedule[day]
		if !ok {
			continue
		}
		opens, _, err := ParseInterval(raw)
		if err != nil {
			continue
		}
		next := day.Title() + " " + formatClock(opens)
		return &next
	}
	return nil
}

var errMalformedInterval = errors.New("malformed interval")

// ParseInterval parses "HH:MM-HH:MM" into minutes after midnight. Intervals
// that close before they open are rejected; overnight hours are unsupported.
func ParseInterval(s string) (opens, closes int, err error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", errMalformedInterval, s)
	}
	if opens, err = ParseClock(parts[0]); err != nil {
		return 0, 0, err
	}
	if closes, err = ParseClock(parts[1]); err != nil {
		return 0, 0, err
	}
	if opens > closes {
		return 0, 0, fmt.Errorf("%w: %q closes before it opens", errMalformedInterval, s)
	}
	return opens, closes, nil
}

// ParseClock parses "HH:MM" (single-digit hours allowed) into minutes after midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse(clockLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
