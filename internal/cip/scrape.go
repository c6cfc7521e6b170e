package cip

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/drewfead/cip/internal/apperrors"
	"github.com/drewfead/cip/internal/calendar"
	"github.com/drewfead/cip/internal/core"
	"github.com/drewfead/cip/internal/metrics"
	"github.com/drewfead/cip/internal/scraping"
)

const DefaultBaseURL = "https://www.cip-paris.fr"

type Scraper struct {
	BaseURL  string
	Fetcher  *scraping.Fetcher
	Calendar calendar.Calendar
	// Concurrency caps in-flight cinema fetches; zero runs one task per cinema.
	Concurrency int
}

// Result is everything one ingestion run collected, ready to be stored.
type Result struct {
	RunID      uuid.UUID
	Cinemas    []core.Cinema
	Films      []core.Film
	Seances    []core.Seance
	Duplicates int
}

// Scrape fetches the catalog, then every cinema's listing concurrently, and
// returns once all of them have been extracted. The first failure cancels the
// remaining fetches and is returned.
func (s *Scraper) Scrape(ctx context.Context) (*Result, error) {
	runID := uuid.New()
	ctx, span := otel.Tracer("cip").Start(ctx, "scrape")
	defer span.End()
	span.SetAttributes(attribute.String("run_id", runID.String()))

	logger := zap.L().With(zap.Stringer("run", runID))
	logger.Info("Starting scrape", zap.String("baseURL", s.BaseURL))

	catalog, err := FetchCatalog(ctx, s.Fetcher, s.BaseURL)
	if err != nil {
		return nil, err
	}

	films := IndexFilms(catalog.Films)
	acc := core.NewAccumulator()
	var duplicates atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	if s.Concurrency > 0 {
		g.SetLimit(s.Concurrency)
	}
	for _, cinema := range catalog.Cinemas {
		g.Go(func() error {
			accepted, dup, err := s.scrapeCinema(gctx, cinema, films, acc)
			if err != nil {
				return &apperrors.ExtractionError{Cinema: cinema.Name, Err: err}
			}
			duplicates.Add(int64(dup))
			logger.Info("Downloaded seances",
				zap.String("cinema", cinema.Name),
				zap.Int("accepted", accepted),
				zap.Int("duplicates", dup),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	result := &Result{
		RunID:      runID,
		Cinemas:    catalog.Cinemas,
		Films:      catalog.Films,
		Seances:    acc.Seances(),
		Duplicates: int(duplicates.Load()),
	}
	logger.Info("Scrape complete",
		zap.Int("cinemas", len(result.Cinemas)),
		zap.Int("films", len(result.Films)),
		zap.Int("seances", len(result.Seances)),
		zap.Int("duplicates", result.Duplicates),
	)
	return result, nil
}

func (s *Scraper) scrapeCinema(
	ctx context.Context,
	cinema core.Cinema,
	films FilmIndex,
	acc *core.Accumulator,
) (accepted, duplicates int, err error) {
	ctx, span := otel.Tracer("cip").Start(ctx, "scrape_cinema")
	defer span.End()
	span.SetAttributes(attribute.String("cinema", cinema.Name))

	page, err := s.Fetcher.Get(ctx, core.AbsoluteURL(s.BaseURL, cinema.URLPath))
	metrics.ObserveFetch("listing", err)
	if err != nil {
		return 0, 0, err
	}
	if ce := zap.L().Check(zap.DebugLevel, "Extracting seances"); ce != nil {
		ce.Write(zap.String("cinema", cinema.Name), zap.Int("sessions", CountSessions(page)))
	}

	candidates, err := ExtractSeances(page, cinema, films, s.Calendar)
	if err != nil {
		return 0, 0, err
	}
	for _, c := range candidates {
		if _, ok := acc.Add(c); ok {
			accepted++
			metrics.SeancesTotal.WithLabelValues("accepted").Inc()
		} else {
			duplicates++
			metrics.SeancesTotal.WithLabelValues("duplicate").Inc()
			zap.L().Debug("Dropped duplicate seance",
				zap.String("cinema", cinema.Name),
				zap.Uint64("film", c.FilmID),
				zap.Time("at", c.At),
			)
		}
	}
	return accepted, duplicates, nil
}
