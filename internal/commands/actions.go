package commands

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/drewfead/cip/internal/apperrors"
	"github.com/drewfead/cip/internal/cip"
	"github.com/drewfead/cip/internal/metrics"
	"github.com/drewfead/cip/internal/present"
	"github.com/drewfead/cip/internal/scraping"
	"github.com/drewfead/cip/internal/store"
)

func scrape(c *cli.Context) error {
	cleanupSteps := setup(c)
	defer cleanup(c, cleanupSteps...)

	cfg, cal, err := load(c)
	if err != nil {
		return err
	}
	timeout, err := cfg.Timeout()
	if err != nil {
		return err
	}

	s := &cip.Scraper{
		BaseURL: cfg.RootURL,
		Fetcher: &scraping.Fetcher{
			UserAgent: cfg.UserAgent,
			Timeout:   timeout,
		},
		Calendar:    cal,
		Concurrency: cfg.Concurrency,
	}

	res, err := s.Scrape(c.Context)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.DB.Driver, cfg.DB.DSN, cal.Location)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Replace(c.Context, res.Cinemas, res.Films, res.Seances); err != nil {
		return err
	}

	metrics.StoredEntries.WithLabelValues("cinema").Set(float64(len(res.Cinemas)))
	metrics.StoredEntries.WithLabelValues("film").Set(float64(len(res.Films)))
	metrics.StoredEntries.WithLabelValues("seance").Set(float64(len(res.Seances)))
	metrics.MarkRun(res.RunID.String(), time.Now())
	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			zap.L().Warn("Failed to write metrics", zap.String("path", cfg.MetricsFile), zap.Error(err))
		}
	}

	_, err = fmt.Fprintf(c.App.Writer, "Stored %d cinemas, %d films and %d seances (%d duplicates skipped)\n",
		len(res.Cinemas), len(res.Films), len(res.Seances), res.Duplicates)
	return err
}

func query(c *cli.Context) error {
	cleanupSteps := setup(c)
	defer cleanup(c, cleanupSteps...)

	format, err := outputFormat(c)
	if err != nil {
		return err
	}
	axis, err := present.ParseAxis(c.String(groupFlag.Name))
	if err != nil {
		return err
	}

	cfg, cal, err := load(c)
	if err != nil {
		return err
	}

	filter, err := store.ParseFilter(
		c.String(dayFlag.Name),
		c.String(timeFlag.Name),
		c.Bool(voFlag.Name),
		c.Bool(vfFlag.Name),
		cal,
	)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.DB.Driver, cfg.DB.DSN, cal.Location)
	if err != nil {
		return err
	}
	defer st.Close()

	results, err := st.Query(c.Context, filter, cal)
	if err != nil {
		return err
	}

	groups := present.GroupResults(results, axis)
	if format == present.FormatJSON {
		return present.WriteJSON(c.App.Writer, groups)
	}
	return present.WriteListing(c.App.Writer, groups, !filter.HasWindow())
}

func seance(c *cli.Context) error {
	cleanupSteps := setup(c)
	defer cleanup(c, cleanupSteps...)

	format, err := outputFormat(c)
	if err != nil {
		return err
	}

	arg := c.Args().First()
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return &apperrors.InputError{Field: "id", Value: arg, Reason: "expected a seance number"}
	}

	cfg, cal, err := load(c)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.DB.Driver, cfg.DB.DSN, cal.Location)
	if err != nil {
		return err
	}
	defer st.Close()

	result, err := st.Seance(c.Context, id)
	var notFound *apperrors.NotFoundError
	if errors.As(err, &notFound) {
		return present.WriteNotFound(c.App.Writer, id)
	}
	if err != nil {
		return err
	}

	detail := present.NewSeanceDetail(result, cfg.RootURL)
	if format == present.FormatJSON {
		return present.WriteJSON(c.App.Writer, detail)
	}
	return present.WriteSeance(c.App.Writer, detail)
}

func clean(c *cli.Context) error {
	cleanupSteps := setup(c)
	defer cleanup(c, cleanupSteps...)

	cfg, _, err := load(c)
	if err != nil {
		return err
	}
	if err := store.Delete(c.Context, cfg.DB.Driver, cfg.DB.DSN); err != nil {
		return err
	}
	zap.L().Info("Store deleted", zap.String("driver", cfg.DB.Driver), zap.String("dsn", cfg.DB.DSN))
	return nil
}
