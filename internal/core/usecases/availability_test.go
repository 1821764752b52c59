package usecases_test

import (
	"testing"
	"time"

	"github.com/mechlink/mechlink/internal/core/domain"
	"github.com/mechlink/mechlink/internal/core/usecases"
)

func newEvaluator() *usecases.AvailabilityEvaluator {
	return usecases.NewAvailabilityEvaluator(time.UTC, func() time.Time { return fixedNow })
}

var weekdaySchedule = domain.WeeklySchedule{
	domain.Monday:  "08:00-17:00",
	domain.Tuesday: "09:00-17:00",
}

func TestEvaluate_BoundariesAreInclusive(t *testing.T) {
	eval := newEvaluator()

	tests := []struct {
		at   string
		open bool
	}{
		{"07:59", false},
		{"08:00", true},
		{"12:30", true},
		{"17:00", true},
		{"17:01", false},
	}
	for _, tt := range tests {
		t.Run(tt.at, func(t *testing.T) {
			av := eval.Evaluate(weekdaySchedule, domain.Monday, tt.at)
			if av.IsOpenNow != tt.open {
				t.Errorf("IsOpenNow at %s = %v, want %v", tt.at, av.IsOpenNow, tt.open)
			}
			if !av.IsOpenToday {
				t.Error("expected IsOpenToday")
			}
		})
	}
}

func TestEvaluate_OpenReportsHours(t *testing.T) {
	av := newEvaluator().Evaluate(weekdaySchedule, domain.Monday, "10:00")

	if av.TodayHours == nil || *av.TodayHours != "08:00-17:00" {
		t.Errorf("TodayHours = %v", av.TodayHours)
	}
	if av.OpensAt == nil || *av.OpensAt != "08:00" {
		t.Errorf("OpensAt = %v", av.OpensAt)
	}
	if av.ClosesAt == nil || *av.ClosesAt != "17:00" {
		t.Errorf("ClosesAt = %v", av.ClosesAt)
	}
	if av.NextOpenTime != nil {
		t.Errorf("NextOpenTime = %q, want nil while open", *av.NextOpenTime)
	}
}

func TestEvaluate_BeforeOpeningPointsToToday(t *testing.T) {
	av := newEvaluator().Evaluate(weekdaySchedule, domain.Monday, "07:15")

	if av.NextOpenTime == nil || *av.NextOpenTime != "08:00" {
		t.Errorf("NextOpenTime = %v, want 08:00", av.NextOpenTime)
	}
}

func TestEvaluate_AfterClosingPointsToNextDay(t *testing.T) {
	av := newEvaluator().Evaluate(weekdaySchedule, domain.Monday, "18:00")

	if av.NextOpenTime == nil || *av.NextOpenTime != "Tuesday 09:00" {
		t.Errorf("NextOpenTime = %v, want Tuesday 09:00", av.NextOpenTime)
	}
}

func TestEvaluate_ClosedDayWrapsAroundWeek(t *testing.T) {
	av := newEvaluator().Evaluate(weekdaySchedule, domain.Tuesday, "18:00")

	if av.IsOpenNow {
		t.Error("expected closed")
	}
	if av.NextOpenTime == nil || *av.NextOpenTime != "Monday 08:00" {
		t.Errorf("NextOpenTime = %v, want Monday 08:00", av.NextOpenTime)
	}

	av = newEvaluator().Evaluate(weekdaySchedule, domain.Sunday, "10:00")
	if av.IsOpenToday || av.TodayHours != nil {
		t.Errorf("sunday should be closed: %+v", av)
	}
	if av.NextOpenTime == nil || *av.NextOpenTime != "Monday 08:00" {
		t.Errorf("NextOpenTime = %v, want Monday 08:00", av.NextOpenTime)
	}
}

func TestEvaluate_MalformedHoursAreClosed(t *testing.T) {
	schedule := domain.WeeklySchedule{domain.Monday: "8am-5pm"}
	av := newEvaluator().Evaluate(schedule, domain.Monday, "10:00")

	if av.IsOpenNow || av.IsOpenToday {
		t.Errorf("malformed hours should read as closed: %+v", av)
	}
	if av.TodayHours == nil || *av.TodayHours != "8am-5pm" {
		t.Errorf("TodayHours = %v, want raw value", av.TodayHours)
	}
	if av.OpensAt != nil || av.ClosesAt != nil || av.NextOpenTime != nil {
		t.Errorf("expected nil times: %+v", av)
	}
}

func TestEvaluate_EmptySchedule(t *testing.T) {
	av := newEvaluator().Evaluate(nil, domain.Monday, "10:00")
	if av != (domain.Availability{}) {
		t.Errorf("expected zero availability, got %+v", av)
	}
}

func TestEvaluate_DefaultsToNow(t *testing.T) {
	// fixedNow is Monday 10:30
	av := newEvaluator().Evaluate(weekdaySchedule, "", "")
	if !av.IsOpenNow {
		t.Errorf("expected open at fixed now, got %+v", av)
	}
}

func TestEvaluate_UsesConfiguredLocation(t *testing.T) {
	// 10:30 UTC is 06:30 in Puerto Rico (UTC-4).
	ast := time.FixedZone("AST", -4*60*60)
	eval := usecases.NewAvailabilityEvaluator(ast, func() time.Time { return fixedNow })

	av := eval.Evaluate(weekdaySchedule, "", "")
	if av.IsOpenNow {
		t.Error("expected closed at 06:30 local time")
	}
	if av.NextOpenTime == nil || *av.NextOpenTime != "08:00" {
		t.Errorf("NextOpenTime = %v, want 08:00", av.NextOpenTime)
	}
}

func TestParseInterval(t *testing.T) {
	opens, closes, err := usecases.ParseInterval("9:30-18:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opens != 9*60+30 || closes != 18*60 {
		t.Errorf("got %d-%d", opens, closes)
	}

	for _, bad := range []string{"", "09:00", "22:00-06:00", "09:00-18:00-20:00", "aa:bb-cc:dd"} {
		if _, _, err := usecases.ParseInterval(bad); err == nil {
			t.Errorf("ParseInterval(%q) expected error", bad)
		}
	}
}
