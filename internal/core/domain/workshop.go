package domain

import (
	"strings"
	"time"
)

// Weekday is a lowercase English day name as used in working-hours maps.
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// Weekdays lists the days in time.Weekday order (Sunday first).
var Weekdays = [7]Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// ParseWeekday parses a day name case-insensitively.
func ParseWeekday(s string) (Weekday, bool) {
	d := Weekday(strings.ToLower(strings.TrimSpace(s)))
	for _, w := range Weekdays {
		if w == d {
			return d, true
		}
	}
	return "", false
}

// WeekdayOf converts a time.Weekday.
func WeekdayOf(d time.Weekday) Weekday {
	return Weekdays[d]
}

// Index returns the position of d in time.Weekday order, or -1.
func (d Weekday) Index() int {
	for i, w := range Weekdays {
		if w == d {
			return i
		}
	}
	return -1
}

// Title returns the capitalised day name ("Monday").
func (d Weekday) Title() string {
	if d == "" {
		return ""
	}
	return strings.ToUpper(string(d[:1])) + string(d[1:])
}

// WeeklySchedule maps a day to an "HH:MM-HH:MM" interval. A missing day is closed.
type WeeklySchedule map[Weekday]string

// Workshop is a vehicle repair shop listed on the marketplace.
type Workshop struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Description     string         `json:"description,omitempty"`
	Address         string         `json:"address"`
	City            string         `json:"city"`
	State           string         `json:"state,omitempty"`
	PostalCode      string         `json:"postal_code,omitempty"`
	Phone           string         `json:"phone,omitempty"`
	Email           string         `json:"email,omitempty"`
	Website         string         `json:"website,omitempty"`
	Location        *GeoPoint      `json:"location,omitempty"`
	Services        []string       `json:"services"`
	Specialties     []string       `json:"specialties"`
	WorkingHours    WeeklySchedule `json:"working_hours,omitempty"`
	RatingAverage   float64        `json:"rating_average"`
	TotalReviews    int            `json:"total_reviews"`
	YearsInBusiness *int           `json:"years_in_business,omitempty"`
	IsActive        bool           `json:"is_active"`
	IsVerified      bool           `json:"is_verified"`
	CreatedAt       time.Time      `json:"created_at"`
}

// Availability is an open/closed snapshot of a workshop for a given day and time.
type Availability struct {
	IsOpenNow    bool    `json:"is_open_now"`
	IsOpenToday  bool    `json:"is_open_today"`
	TodayHours   *string `json:"today_hours"`
	OpensAt      *string `json:"opens_at"`
	ClosesAt     *string `json:"closes_at"`
	NextOpenTime *string `json:"next_open_time"`
}

// WorkshopUpdate is published whenever a workshop record changes.
type WorkshopUpdate struct {
	WorkshopID string    `json:"workshop_id"`
	Reason     string    `json:"reason"`
	Location   *GeoPoint `json:"location,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}
