package cip

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/drewfead/cip/internal/apperrors"
	"github.com/drewfead/cip/internal/core"
	"github.com/drewfead/cip/internal/metrics"
	"github.com/drewfead/cip/internal/scraping"
)

const (
	cinemasPath = "/json/cinemas"
	filmsPath   = "/json/movies"
)

// Catalog records decode every field through a pointer so that an absent key
// fails validation while a present empty string is kept. Director is the only
// optional field.
type cinemaRecord struct {
	Name      *string `json:"value" validate:"required"`
	URLPath   *string `json:"url" validate:"required"`
	Address   *string `json:"address" validate:"required"`
	ImagePath *string `json:"image1" validate:"required"`
}

type filmRecord struct {
	ID          *uint64 `json:"id" validate:"required"`
	Name        *string `json:"value" validate:"required"`
	URLPath     *string `json:"url" validate:"required"`
	ImagePath   *string `json:"image_path" validate:"required"`
	Director    *string `json:"director"`
	ReleaseDate *string `json:"releaseDate" validate:"required"`
}

var validate = validator.New()

// Catalog is the cinema and film list of one ingestion run.
type Catalog struct {
	Cinemas []core.Cinema
	Films   []core.Film
}

// FetchCatalog downloads the cinema and film lists concurrently. Cinemas are
// numbered 1..N in the order the site lists them.
func FetchCatalog(ctx context.Context, f *scraping.Fetcher, baseURL string) (Catalog, error) {
	ctx, span := otel.Tracer("cip").Start(ctx, "fetch_catalog")
	defer span.End()

	var catalog Catalog
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cinemas, err := fetchCinemas(gctx, f, core.AbsoluteURL(baseURL, cinemasPath))
		if err != nil {
			return fmt.Errorf("failed to download cinemas: %w", err)
		}
		catalog.Cinemas = cinemas
		zap.L().Info("Downloaded cinemas", zap.Int("count", len(cinemas)))
		return nil
	})
	g.Go(func() error {
		films, err := fetchFilms(gctx, f, core.AbsoluteURL(baseURL, filmsPath))
		if err != nil {
			return fmt.Errorf("failed to download films: %w", err)
		}
		catalog.Films = films
		zap.L().Info("Downloaded films", zap.Int("count", len(films)))
		return nil
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return Catalog{}, err
	}
	return catalog, nil
}

func fetchCinemas(ctx context.Context, f *scraping.Fetcher, url string) ([]core.Cinema, error) {
	records, err := scraping.GetJSON[[]cinemaRecord](ctx, f, url)
	metrics.ObserveFetch("catalog", err)
	if err != nil {
		return nil, err
	}
	out := make([]core.Cinema, 0, len(records))
	for i, r := range records {
		if err := validate.Struct(r); err != nil {
			return nil, recordError("cinema", i, err)
		}
		out = append(out, core.Cinema{
			ID:        uint64(i) + 1,
			Name:      *r.Name,
			URLPath:   *r.URLPath,
			Address:   *r.Address,
			ImagePath: *r.ImagePath,
		})
	}
	return out, nil
}

func fetchFilms(ctx context.Context, f *scraping.Fetcher, url string) ([]core.Film, error) {
	records, err := scraping.GetJSON[[]filmRecord](ctx, f, url)
	metrics.ObserveFetch("catalog", err)
	if err != nil {
		return nil, err
	}
	out := make([]core.Film, 0, len(records))
	for i, r := range records {
		if err := validate.Struct(r); err != nil {
			return nil, recordError("film", i, err)
		}
		var director string
		if r.Director != nil {
			director = *r.Director
		}
		out = append(out, core.Film{
			ID:          *r.ID,
			Name:        *r.Name,
			URLPath:     *r.URLPath,
			ImagePath:   *r.ImagePath,
			Director:    director,
			ReleaseDate: *r.ReleaseDate,
		})
	}
	return out, nil
}

func recordError(kind string, index int, err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		fields := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields = append(fields, fe.Field())
		}
		return &apperrors.ParseError{
			Node:   fmt.Sprintf("%s record %d", kind, index),
			Detail: "missing " + strings.Join(fields, ", "),
		}
	}
	return &apperrors.ParseError{Node: fmt.Sprintf("%s record %d", kind, index), Detail: err.Error()}
}
