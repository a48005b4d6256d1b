package calendar

import (
	"fmt"
	"sort"
	"time"

	apperrors "github.com/plannio/plannio/internal/platform/errors"
)

// MinutesPerDay bounds minute-of-day interval values.
const MinutesPerDay = 24 * 60

// Interval is a half-open [Start, End) range in minutes from midnight.
type Interval struct {
	StartMinute int
	EndMinute   int
}

// WeekHours holds working-hour intervals per weekday, indexed by time.Weekday
// (0 = Sunday). An empty day means the calendar is closed that day.
type WeekHours [7][]Interval

func invalidHours(detail string) error {
	return apperrors.WithMetadata(
		apperrors.CodeCalendarInvalidHours,
		fmt.Sprintf("invalid working hours: %s", detail),
		map[string]string{"Detail": detail},
	)
}

// NormalizeWeekHours validates and sorts working-hour intervals.
// Intervals must satisfy 0 <= start < end <= 1440 and must not overlap
// within a day.
func NormalizeWeekHours(hours WeekHours) (WeekHours, error) {
	var out WeekHours
	for day := 0; day < 7; day++ {
		intervals := make([]Interval, len(hours[day]))
		copy(intervals, hours[day])
		sort.Slice(intervals, func(i, j int) bool {
			return intervals[i].StartMinute < intervals[j].StartMinute
		})
		for i, iv := range intervals {
			if iv.StartMinute < 0 || iv.EndMinute > MinutesPerDay {
				return WeekHours{}, invalidHours(fmt.Sprintf("%s interval outside 0..1440", time.Weekday(day)))
			}
			if iv.StartMinute >= iv.EndMinute {
				return WeekHours{}, invalidHours(fmt.Sprintf("%s interval start must precede end", time.Weekday(day)))
			}
			if i > 0 && intervals[i-1].EndMinute > iv.StartMinute {
				return WeekHours{}, invalidHours(fmt.Sprintf("%s intervals overlap", time.Weekday(day)))
			}
		}
		out[day] = intervals
	}
	return out, nil
}

// Covers reports whether a [start, end) time range falls entirely inside one
// working-hour interval, evaluated in the given timezone. Ranges that cross
// midnight in the calendar's timezone are never covered.
func (h WeekHours) Covers(start, end time.Time, timezone string) (bool, error) {
	if !start.Before(end) {
		return false, fmt.Errorf("start must precede end")
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return false, fmt.Errorf("load timezone %s: %w", timezone, err)
	}
	localStart := start.In(loc)
	localEnd := end.In(loc)

	startMinute := localStart.Hour()*60 + localStart.Minute()
	endMinute := localEnd.Hour()*60 + localEnd.Minute()

	sameDay := localStart.Year() == localEnd.Year() && localStart.YearDay() == localEnd.YearDay()
	if !sameDay {
		// A range ending exactly at the next midnight still counts as the
		// start day; anything past that crosses midnight.
		nextMidnight := time.Date(localStart.Year(), localStart.Month(), localStart.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
		if !localEnd.Equal(nextMidnight) {
			return false, nil
		}
		endMinute = MinutesPerDay
	}

	for _, iv := range h[int(localStart.Weekday())] {
		if startMinute >= iv.StartMinute && endMinute <= iv.EndMinute {
			return true, nil
		}
	}
	return false, nil
}

// IsZero reports whether no working hours are configured at all.
func (h WeekHours) IsZero() bool {
	for day := 0; day < 7; day++ {
		if len(h[day]) > 0 {
			return false
		}
	}
	return true
}
