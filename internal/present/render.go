package present

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/drewfead/cip/internal/core"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

const (
	clockLayout     = "15:04"
	dayClockLayout  = "02/01 15:04"
	detailDayLayout = "Jan 02"
)

func styleID(id uint64) string {
	return fmt.Sprintf("[%d]", id)
}

// WriteListing prints a grouped listing. withDate prefixes each time with its
// day, for listings that are not restricted to a single day.
func WriteListing(w io.Writer, groups []Group, withDate bool) error {
	layout := clockLayout
	if withDate {
		layout = dayClockLayout
	}

	var sb strings.Builder
	for _, g := range groups {
		fmt.Fprintf(&sb, "%s %s\n\n", styleID(g.ID), g.Description)
		for _, sg := range g.Entries {
			fmt.Fprintf(&sb, "  %s %s\n", styleID(sg.ID), sg.Description)
			sb.WriteString("   ")
			for _, r := range sg.Results {
				fmt.Fprintf(&sb, " %s %s (%s)", styleID(r.Seance.ID), r.Seance.At.Format(layout), r.Seance.Version)
			}
			sb.WriteString("\n\n")
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// SeanceDetail is the single-seance view with absolute links.
type SeanceDetail struct {
	ID        uint64      `json:"id"`
	Film      core.Film   `json:"film"`
	FilmURL   string      `json:"filmUrl"`
	Cinema    core.Cinema `json:"cinema"`
	CinemaURL string      `json:"cinemaUrl"`
	Version   string      `json:"version"`
	Date      string      `json:"date"`
	Time      string      `json:"time"`
	Reserve   *string     `json:"reserve,omitempty"`
}

func NewSeanceDetail(r core.QueryResult, rootURL string) SeanceDetail {
	return SeanceDetail{
		ID:        r.Seance.ID,
		Film:      r.Film,
		FilmURL:   core.AbsoluteURL(rootURL, r.Film.URLPath),
		Cinema:    r.Cinema,
		CinemaURL: core.AbsoluteURL(rootURL, r.Cinema.URLPath),
		Version:   r.Seance.Version,
		Date:      r.Seance.At.Format(detailDayLayout),
		Time:      r.Seance.At.Format(clockLayout),
		Reserve:   r.Seance.URL,
	}
}

func WriteSeance(w io.Writer, d SeanceDetail) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", styleID(d.ID))
	fmt.Fprintf(&sb, "Film:    %s\n", d.Film.Description())
	fmt.Fprintf(&sb, "         %s\n", d.Film.Director)
	fmt.Fprintf(&sb, "         %s\n", d.FilmURL)
	fmt.Fprintf(&sb, "Cinema:  %s\n", d.Cinema.Name)
	fmt.Fprintf(&sb, "         %s\n", d.Cinema.Address)
	fmt.Fprintf(&sb, "         %s\n", d.CinemaURL)
	fmt.Fprintf(&sb, "Version: %s\n", d.Version)
	fmt.Fprintf(&sb, "Date:    %s\n", d.Date)
	fmt.Fprintf(&sb, "Time:    %s\n", d.Time)
	if d.Reserve != nil {
		fmt.Fprintf(&sb, "Reserve: %s\n", *d.Reserve)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func WriteNotFound(w io.Writer, id uint64) error {
	_, err := fmt.Fprintf(w, "Seance %s not found\n", styleID(id))
	return err
}

func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
