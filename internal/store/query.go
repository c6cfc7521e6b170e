package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/drewfead/cip/internal/apperrors"
	"github.com/drewfead/cip/internal/calendar"
	"github.com/drewfead/cip/internal/core"
)

// Filter restricts a seance query. A nil Day or TimeOfDay is unset.
type Filter struct {
	Day       *time.Time
	TimeOfDay *time.Duration
	Version   core.Version
}

// Window is an inclusive time range.
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// ParseFilter builds a Filter from command line input: day as DD/MM (year
// inferred from the calendar), time as HH:MM.
func ParseFilter(day, clock string, vo, vf bool, cal calendar.Calendar) (Filter, error) {
	f := Filter{Version: core.VersionFromFlags(vo, vf)}
	if day = strings.TrimSpace(day); day != "" {
		d, m, err := calendar.ParseDayMonth(day)
		if err != nil {
			return Filter{}, &apperrors.InputError{Field: "day", Value: day, Reason: "expected DD/MM"}
		}
		date, err := cal.ResolveDate(d, m)
		if err != nil {
			return Filter{}, &apperrors.InputError{Field: "day", Value: day, Reason: "not a calendar date"}
		}
		f.Day = &date
	}
	if clock = strings.TrimSpace(clock); clock != "" {
		h, m, err := calendar.ParseClock(clock)
		if err != nil {
			return Filter{}, &apperrors.InputError{Field: "time", Value: clock, Reason: "expected HH:MM"}
		}
		tod := calendar.SinceMidnight(h, m)
		f.TimeOfDay = &tod
	}
	return f, nil
}

// Window derives the time range of a filter. Without a day or time there is no
// window. Otherwise it starts at day (default today) and time (default the day
// boundary) and ends at the day boundary of the following day.
func (f Filter) Window(cal calendar.Calendar) (Window, bool) {
	if f.Day == nil && f.TimeOfDay == nil {
		return Window{}, false
	}
	day := cal.Today()
	if f.Day != nil {
		day = *f.Day
	}
	tod := cal.DayStart
	if f.TimeOfDay != nil {
		tod = *f.TimeOfDay
	}
	from := cal.At(day, tod)
	to := cal.At(from.Add(24*time.Hour), cal.DayStart)
	return Window{From: from, To: to}, true
}

// HasWindow reports whether a day or time was given.
func (f Filter) HasWindow() bool {
	return f.Day != nil || f.TimeOfDay != nil
}

type resultRow struct {
	SeanceID        uint64  `gorm:"column:seance_id"`
	CinemaID        uint64  `gorm:"column:cinema_id"`
	FilmID          uint64  `gorm:"column:film_id"`
	Datetime        string  `gorm:"column:datetime"`
	Version         string  `gorm:"column:version"`
	URL             *string `gorm:"column:url"`
	CinemaName      string  `gorm:"column:cinema_name"`
	CinemaURLPath   string  `gorm:"column:cinema_url_path"`
	CinemaAddress   string  `gorm:"column:cinema_address"`
	CinemaImagePath string  `gorm:"column:cinema_image_path"`
	FilmName        string  `gorm:"column:film_name"`
	FilmURLPath     string  `gorm:"column:film_url_path"`
	FilmImagePath   string  `gorm:"column:film_image_path"`
	FilmDirector    string  `gorm:"column:film_director"`
	FilmReleaseDate string  `gorm:"column:film_release_date"`
}

const resultColumns = `
	seance.id AS seance_id, seance.cinema_id, seance.film_id,
	seance.datetime, seance.version, seance.url,
	cinema.name AS cinema_name, cinema.url_path AS cinema_url_path,
	cinema.address AS cinema_address, cinema.image_path AS cinema_image_path,
	film.name AS film_name, film.url_path AS film_url_path,
	film.image_path AS film_image_path, film.director AS film_director,
	film.release_date AS film_release_date`

func (s *Store) joined(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("seance").
		Select(resultColumns).
		Joins("INNER JOIN cinema ON cinema.id = seance.cinema_id").
		Joins("INNER JOIN film ON film.id = seance.film_id")
}

// Query returns the seances matching f with their cinema and film, ordered by
// time and then by seance id.
func (s *Store) Query(ctx context.Context, f Filter, cal calendar.Calendar) ([]core.QueryResult, error) {
	q := s.joined(ctx)
	if w, ok := f.Window(cal); ok {
		q = q.Where("seance.datetime >= ? AND seance.datetime <= ?",
			formatDatetime(w.From, s.loc), formatDatetime(w.To, s.loc))
	}
	if v := f.Version.Short(); v != "" {
		q = q.Where("seance.version = ?", v)
	}

	var rows []resultRow
	if err := q.Order("seance.datetime ASC").Order("seance.id ASC").Scan(&rows).Error; err != nil {
		return nil, &apperrors.PersistenceError{Op: "query seances", Err: err}
	}
	return toResults(rows)
}

// Seance looks up a single seance by id.
func (s *Store) Seance(ctx context.Context, id uint64) (core.QueryResult, error) {
	var rows []resultRow
	if err := s.joined(ctx).Where("seance.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return core.QueryResult{}, &apperrors.PersistenceError{Op: "get seance", Err: err}
	}
	if len(rows) == 0 {
		return core.QueryResult{}, apperrors.NewNotFoundError("seance", id)
	}
	results, err := toResults(rows)
	if err != nil {
		return core.QueryResult{}, err
	}
	return results[0], nil
}

func toResults(rows []resultRow) ([]core.QueryResult, error) {
	out := make([]core.QueryResult, 0, len(rows))
	for _, r := range rows {
		at, err := time.Parse(datetimeLayout, r.Datetime)
		if err != nil {
			return nil, &apperrors.PersistenceError{
				Op:  "decode seance",
				Err: fmt.Errorf("seance %d datetime %q: %w", r.SeanceID, r.Datetime, err),
			}
		}
		out = append(out, core.QueryResult{
			Cinema: core.Cinema{
				ID:        r.CinemaID,
				Name:      r.CinemaName,
				URLPath:   r.CinemaURLPath,
				Address:   r.CinemaAddress,
				ImagePath: r.CinemaImagePath,
			},
			Film: core.Film{
				ID:          r.FilmID,
				Name:        r.FilmName,
				URLPath:     r.FilmURLPath,
				ImagePath:   r.FilmImagePath,
				Director:    r.FilmDirector,
				ReleaseDate: r.FilmReleaseDate,
			},
			Seance: core.Seance{
				ID:       r.SeanceID,
				CinemaID: r.CinemaID,
				FilmID:   r.FilmID,
				At:       at,
				Version:  r.Version,
				URL:      r.URL,
			},
		})
	}
	return out, nil
}
