package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/drewfead/cip/internal/apperrors"
)

const clockTimeFormat = "15:04"

// DefaultDayStart groups screenings after midnight with the previous day.
const DefaultDayStart = 4 * time.Hour

// Calendar carries the reference values every date computation depends on.
// It is built once per command invocation and passed down explicitly.
type Calendar struct {
	Location *time.Location
	DayStart time.Duration
	Now      time.Time
}

// FixedOffset returns a zone east of UTC by the given number of hours.
func FixedOffset(hours int) *time.Location {
	return time.FixedZone(fmt.Sprintf("UTC%+d", hours), hours*3600)
}

func New(loc *time.Location, dayStart time.Duration, now time.Time) Calendar {
	return Calendar{
		Location: loc,
		DayStart: dayStart,
		Now:      now.In(loc),
	}
}

// Today is midnight of the reference day.
func (c Calendar) Today() time.Time {
	return midnight(c.Now, c.Location)
}

// Resolve resolves a day/month/time against the calendar's reference now.
func (c Calendar) Resolve(day, month, hour, minute int) (time.Time, error) {
	return Resolve(day, month, hour, minute, c.Now, c.Location)
}

// ResolveDate resolves a day/month to midnight of the next matching date.
func (c Calendar) ResolveDate(day, month int) (time.Time, error) {
	return Resolve(day, month, 0, 0, c.Now, c.Location)
}

// At combines a calendar date with an offset since midnight.
func (c Calendar) At(date time.Time, sinceMidnight time.Duration) time.Time {
	return midnight(date, c.Location).Add(sinceMidnight)
}

// Resolve builds an absolute timestamp from a day/month that carries no year.
// Listings only advertise near-future dates, so a date before now's calendar day
// is taken to be next year's occurrence. The same calendar day is never rolled.
func Resolve(day, month, hour, minute int, now time.Time, loc *time.Location) (time.Time, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return time.Time{}, &apperrors.ParseError{
			Node:   "time",
			Detail: fmt.Sprintf("%02d:%02d is not a time of day", hour, minute),
		}
	}

	today := midnight(now, loc)
	date, err := calendarDate(today.Year(), month, day, loc)
	if err != nil {
		return time.Time{}, err
	}
	if date.Before(today) {
		date, err = calendarDate(today.Year()+1, month, day, loc)
		if err != nil {
			return time.Time{}, err
		}
	}

	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, loc), nil
}

// ParseDayMonth reads the trailing "DD/MM" token of a date label such as "Lun. 10/06".
func ParseDayMonth(text string) (day, month int, err error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0, 0, &apperrors.ParseError{Node: "date", Detail: "empty date"}
	}
	dd, mm, ok := strings.Cut(fields[len(fields)-1], "/")
	if !ok {
		return 0, 0, &apperrors.ParseError{Node: "date", Detail: fmt.Sprintf("%q is not DD/MM", text)}
	}
	day, dayErr := strconv.Atoi(dd)
	month, monthErr := strconv.Atoi(mm)
	if dayErr != nil || monthErr != nil {
		return 0, 0, &apperrors.ParseError{Node: "date", Detail: fmt.Sprintf("%q is not DD/MM", text)}
	}
	return day, month, nil
}

// ParseClock reads an "HH:MM" time of day.
func ParseClock(text string) (hour, minute int, err error) {
	t, err := time.Parse(clockTimeFormat, strings.TrimSpace(text))
	if err != nil {
		return 0, 0, &apperrors.ParseError{Node: "time", Detail: fmt.Sprintf("%q is not HH:MM", text)}
	}
	return t.Hour(), t.Minute(), nil
}

// SinceMidnight converts an hour and minute into an offset from midnight.
func SinceMidnight(hour, minute int) time.Duration {
	return time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute
}

func calendarDate(year, month, day int, loc *time.Location) (time.Time, error) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, &apperrors.ParseError{
			Node:   "date",
			Detail: fmt.Sprintf("%02d/%02d is not a calendar date", day, month),
		}
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	// time.Date normalizes overflow, so 31/02 comes back as a March date.
	if d.Day() != day || int(d.Month()) != month {
		return time.Time{}, &apperrors.ParseError{
			Node:   "date",
			Detail: fmt.Sprintf("%02d/%02d/%d is not a calendar date", day, month, year),
		}
	}
	return d, nil
}

func midnight(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
