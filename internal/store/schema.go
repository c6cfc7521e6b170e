package store

import (
	"time"

	"github.com/drewfead/cip/internal/core"
)

// Timestamps are stored as RFC 3339 text in the store's fixed offset, so string
// order matches time order and the offset survives a round trip.
const datetimeLayout = time.RFC3339

var dropTables = []string{
	`DROP TABLE IF EXISTS seance`,
	`DROP TABLE IF EXISTS film`,
	`DROP TABLE IF EXISTS cinema`,
}

var createTables = []string{
	`CREATE TABLE cinema (
		id BIGINT PRIMARY KEY NOT NULL,
		name TEXT NOT NULL,
		url_path TEXT NOT NULL,
		address TEXT NOT NULL,
		image_path TEXT NOT NULL
	)`,
	`CREATE TABLE film (
		id BIGINT PRIMARY KEY NOT NULL,
		name TEXT NOT NULL,
		url_path TEXT NOT NULL,
		image_path TEXT NOT NULL,
		director TEXT NOT NULL,
		release_date TEXT NOT NULL
	)`,
	`CREATE TABLE seance (
		id BIGINT PRIMARY KEY NOT NULL,
		cinema_id BIGINT NOT NULL REFERENCES cinema(id),
		film_id BIGINT NOT NULL REFERENCES film(id),
		datetime TEXT NOT NULL,
		version TEXT NOT NULL,
		url TEXT
	)`,
	`CREATE INDEX seance_datetime ON seance (datetime)`,
}

type cinemaRow struct {
	ID        uint64 `gorm:"column:id;primaryKey;autoIncrement:false"`
	Name      string `gorm:"column:name"`
	URLPath   string `gorm:"column:url_path"`
	Address   string `gorm:"column:address"`
	ImagePath string `gorm:"column:image_path"`
}

func (cinemaRow) TableName() string { return "cinema" }

type filmRow struct {
	ID          uint64 `gorm:"column:id;primaryKey;autoIncrement:false"`
	Name        string `gorm:"column:name"`
	URLPath     string `gorm:"column:url_path"`
	ImagePath   string `gorm:"column:image_path"`
	Director    string `gorm:"column:director"`
	ReleaseDate string `gorm:"column:release_date"`
}

func (filmRow) TableName() string { return "film" }

type seanceRow struct {
	ID       uint64  `gorm:"column:id;primaryKey;autoIncrement:false"`
	CinemaID uint64  `gorm:"column:cinema_id"`
	FilmID   uint64  `gorm:"column:film_id"`
	Datetime string  `gorm:"column:datetime"`
	Version  string  `gorm:"column:version"`
	URL      *string `gorm:"column:url"`
}

func (seanceRow) TableName() string { return "seance" }

func cinemaRows(cinemas []core.Cinema) []cinemaRow {
	rows := make([]cinemaRow, len(cinemas))
	for i, c := range cinemas {
		rows[i] = cinemaRow(c)
	}
	return rows
}

func filmRows(films []core.Film) []filmRow {
	rows := make([]filmRow, len(films))
	for i, f := range films {
		rows[i] = filmRow(f)
	}
	return rows
}

func seanceRows(seances []core.Seance, loc *time.Location) []seanceRow {
	rows := make([]seanceRow, len(seances))
	for i, s := range seances {
		rows[i] = seanceRow{
			ID:       s.ID,
			CinemaID: s.CinemaID,
			FilmID:   s.FilmID,
			Datetime: formatDatetime(s.At, loc),
			Version:  s.Version,
			URL:      s.URL,
		}
	}
	return rows
}

func formatDatetime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(datetimeLayout)
}
