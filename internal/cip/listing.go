package cip

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/drewfead/cip/internal/apperrors"
	"github.com/drewfead/cip/internal/calendar"
	"github.com/drewfead/cip/internal/core"
)

const (
	filmBlockClass   = ".movie-results-container"
	posterClass      = ".poster"
	sessionClass     = ".session-date"
	sessionDateClass = ".sessionDate"
	sessionTimeClass = ".time"
	versionClass     = ".version"
)

// FilmIndex looks films up by their site-relative path.
type FilmIndex map[string]core.Film

func IndexFilms(films []core.Film) FilmIndex {
	idx := make(FilmIndex, len(films))
	for _, f := range films {
		if _, ok := idx[f.URLPath]; !ok {
			idx[f.URLPath] = f
		}
	}
	return idx
}

// ExtractSeances reads every screening advertised on a cinema's listing page.
// The returned seances carry no id. A missing date, time or version node, or a
// poster linking to a film outside the index, fails the whole page; the
// reservation link is optional.
func ExtractSeances(markup []byte, cinema core.Cinema, films FilmIndex, cal calendar.Calendar) ([]core.Seance, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return nil, &apperrors.ParseError{Node: "document", Detail: err.Error()}
	}

	var (
		out     []core.Seance
		walkErr error
	)
	doc.Find(filmBlockClass).EachWithBreak(func(_ int, block *goquery.Selection) bool {
		film, err := blockFilm(block, films)
		if err != nil {
			walkErr = err
			return false
		}
		block.Find(sessionClass).EachWithBreak(func(_ int, session *goquery.Selection) bool {
			seance, err := sessionSeance(session, cal)
			if err != nil {
				walkErr = fmt.Errorf("film %q: %w", film.Name, err)
				return false
			}
			seance.CinemaID = cinema.ID
			seance.FilmID = film.ID
			out = append(out, seance)
			return true
		})
		return walkErr == nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return out, nil
}

// CountSessions reports how many session blocks a listing page holds.
func CountSessions(markup []byte) int {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return 0
	}
	return doc.Find(sessionClass).Length()
}

func blockFilm(block *goquery.Selection, films FilmIndex) (core.Film, error) {
	poster := block.Find(posterClass).First()
	if poster.Length() == 0 {
		return core.Film{}, apperrors.NewMissingNodeError(posterClass)
	}
	href, ok := poster.Attr("href")
	if !ok {
		return core.Film{}, apperrors.NewMissingNodeError(posterClass + "[href]")
	}
	film, ok := films[href]
	if !ok {
		return core.Film{}, &apperrors.UnknownFilmError{Path: href}
	}
	return film, nil
}

func sessionSeance(session *goquery.Selection, cal calendar.Calendar) (core.Seance, error) {
	dateText, err := requiredText(session, sessionDateClass)
	if err != nil {
		return core.Seance{}, err
	}
	timeText, err := requiredText(session, sessionTimeClass)
	if err != nil {
		return core.Seance{}, err
	}
	version, err := requiredText(session, versionClass)
	if err != nil {
		return core.Seance{}, err
	}

	day, month, err := calendar.ParseDayMonth(dateText)
	if err != nil {
		return core.Seance{}, err
	}
	hour, minute, err := calendar.ParseClock(timeText)
	if err != nil {
		return core.Seance{}, err
	}
	at, err := cal.Resolve(day, month, hour, minute)
	if err != nil {
		return core.Seance{}, err
	}

	var url *string
	if href, ok := session.Find("a").First().Attr("href"); ok {
		url = &href
	}

	return core.Seance{
		At:      at,
		Version: version,
		URL:     url,
	}, nil
}

func requiredText(sel *goquery.Selection, class string) (string, error) {
	node := sel.Find(class).First()
	if node.Length() == 0 {
		return "", apperrors.NewMissingNodeError(class)
	}
	return strings.TrimSpace(node.Text()), nil
}
