package core

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"
)

type Cinema struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name"`
	URLPath   string `json:"urlPath"`
	Address   string `json:"address"`
	ImagePath string `json:"imagePath"`
}

// Zip is the postal code found in the address, scanning from its end.
// When no numeric token exists the trailing token is returned.
func (c Cinema) Zip() string {
	fields := strings.Fields(c.Address)
	if len(fields) == 0 {
		return ""
	}
	for i := len(fields) - 1; i >= 0; i-- {
		if isNumeric(fields[i]) {
			return fields[i]
		}
	}
	return fields[len(fields)-1]
}

func (c Cinema) Description() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.Zip())
}

type Film struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	URLPath     string `json:"urlPath"`
	ImagePath   string `json:"imagePath"`
	Director    string `json:"director"`
	ReleaseDate string `json:"releaseDate"`
}

func (f Film) Description() string {
	return fmt.Sprintf("%s (%s)", f.Name, f.ReleaseDate)
}

// Seance is one screening of a film at a cinema.
type Seance struct {
	ID       uint64    `json:"id"`
	CinemaID uint64    `json:"cinemaId"`
	FilmID   uint64    `json:"filmId"`
	At       time.Time `json:"at"`
	Version  string    `json:"version"`
	URL      *string   `json:"url,omitempty"`
}

type QueryResult struct {
	Cinema Cinema `json:"cinema"`
	Film   Film   `json:"film"`
	Seance Seance `json:"seance"`
}

type Version int

const (
	AnyVersion Version = iota
	Original
	French
)

// Short is the tag stored on seances, empty for AnyVersion.
func (v Version) Short() string {
	switch v {
	case Original:
		return "VO"
	case French:
		return "VF"
	default:
		return ""
	}
}

func (v Version) String() string {
	if s := v.Short(); s != "" {
		return s
	}
	return "any"
}

// VersionFromFlags maps the --vo/--vf switches; both or neither mean any version.
func VersionFromFlags(vo, vf bool) Version {
	switch {
	case vo && !vf:
		return Original
	case vf && !vo:
		return French
	default:
		return AnyVersion
	}
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

// AbsoluteURL resolves a site-relative path against the site root.
func AbsoluteURL(root, path string) string {
	base, err := url.Parse(root)
	if err != nil {
		return root + path
	}
	ref, err := url.Parse(path)
	if err != nil {
		return root + path
	}
	return base.ResolveReference(ref).String()
}
