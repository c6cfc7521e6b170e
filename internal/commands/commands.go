package commands

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	"github.com/drewfead/cip/internal/calendar"
	"github.com/drewfead/cip/internal/config"
	"github.com/drewfead/cip/internal/present"
)

var (
	profileFlag = &cli.BoolFlag{
		Name:  "profile",
		Usage: "Enable pprof profiling for this run",
		Value: false,
	}

	verbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "Set the verbosity of the logger",
		Value: "info",
	}

	outputFormatFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Set the output format (text or json)",
		Value:   present.FormatText,
	}

	dbDriverFlag = &cli.StringFlag{
		Name:  "db-driver",
		Usage: "Store driver (sqlite or postgres), overrides configuration",
	}

	dbDSNFlag = &cli.StringFlag{
		Name:  "db-dsn",
		Usage: "Store location: a file path for sqlite, a connection string for postgres",
	}

	rootURLFlag = &cli.StringFlag{
		Name:  "root-url",
		Usage: "Root URL of the cinema network site",
	}

	metricsFileFlag = &cli.StringFlag{
		Name:  "metrics-file",
		Usage: "Write run metrics to this Prometheus textfile",
	}

	dayFlag = &cli.StringFlag{
		Name:  "day",
		Usage: "Only list seances of this day (DD/MM)",
	}

	timeFlag = &cli.StringFlag{
		Name:  "time",
		Usage: "Only list seances from this time on (HH:MM)",
	}

	voFlag = &cli.BoolFlag{
		Name:  "vo",
		Usage: "Only list original-version seances",
	}

	vfFlag = &cli.BoolFlag{
		Name:  "vf",
		Usage: "Only list French-version seances",
	}

	groupFlag = &cli.StringFlag{
		Name:  "group",
		Usage: "Group the listing by cinema or film",
		Value: "cinema",
	}
)

var sharedFlags = []cli.Flag{
	verbosityFlag,
	profileFlag,
	dbDriverFlag,
	dbDSNFlag,
}

func setup(ctx *cli.Context) []func() {
	zapCfg := zap.NewDevelopmentConfig()
	level, err := zap.ParseAtomicLevel(ctx.String(verbosityFlag.Name))
	if err != nil {
		log.Fatalf("failed to parse log level: %v", err)
	}
	zapCfg.Level = level
	logger, err := zapCfg.Build()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	zap.ReplaceGlobals(logger)
	maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		zap.L().Debug(fmt.Sprintf(format, args...))
	}))

	out := []func(){
		func() { _ = logger.Sync() },
	}

	if ctx.Bool(profileFlag.Name) {
		cpuProfile, err := os.Create("/tmp/cpu_profile.prof")
		if err != nil {
			log.Fatal(err)
		}

		if err := pprof.StartCPUProfile(cpuProfile); err != nil {
			log.Fatal(err)
		}

		out = append(out, func() {
			pprof.StopCPUProfile()
		})

		memProfile, err := os.Create("/tmp/memory_profile.prof")
		if err != nil {
			log.Fatal(err)
		}

		out = append(out, func() {
			defer memProfile.Close()
			runtime.GC()
			if err := pprof.WriteHeapProfile(memProfile); err != nil {
				zap.L().Error("Failed to write heap profile", zap.Error(err))
			}
		})
	}

	return out
}

// cleanup runs steps in reverse so the logger is synced last.
func cleanup(ctx *cli.Context, steps ...func()) {
	for i := len(steps) - 1; i >= 0; i-- {
		steps[i]()
	}
}

// load reads configuration, applies flag overrides and fixes the reference
// now for this invocation.
func load(ctx *cli.Context) (*config.Config, calendar.Calendar, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, calendar.Calendar{}, err
	}

	overrides := []struct {
		flag   *cli.StringFlag
		target *string
	}{
		{dbDriverFlag, &cfg.DB.Driver},
		{dbDSNFlag, &cfg.DB.DSN},
		{rootURLFlag, &cfg.RootURL},
		{metricsFileFlag, &cfg.MetricsFile},
	}
	for _, o := range overrides {
		if ctx.IsSet(o.flag.Name) {
			*o.target = ctx.String(o.flag.Name)
		}
	}

	cal, err := cfg.Calendar(time.Now())
	if err != nil {
		return nil, calendar.Calendar{}, err
	}
	return cfg, cal, nil
}

func outputFormat(ctx *cli.Context) (string, error) {
	switch f := ctx.String(outputFormatFlag.Name); f {
	case present.FormatText, present.FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %s", f)
	}
}

// All is every command of the cip application.
var All = []*cli.Command{
	{
		Name:     "scrape",
		Usage:    "Fetch every cinema's listing and replace the local store",
		Category: "ingestion",
		Flags:    append([]cli.Flag{rootURLFlag, metricsFileFlag}, sharedFlags...),
		Action:   scrape,
	},
	{
		Name:     "query",
		Usage:    "List stored seances, optionally restricted to a day, a time or a version",
		Category: "listing",
		Flags: append([]cli.Flag{
			dayFlag,
			timeFlag,
			voFlag,
			vfFlag,
			groupFlag,
			outputFormatFlag,
		}, sharedFlags...),
		Action: query,
	},
	{
		Name:      "seance",
		Usage:     "Show the details of one seance",
		Category:  "listing",
		ArgsUsage: "<id>",
		Flags:     append([]cli.Flag{rootURLFlag, outputFormatFlag}, sharedFlags...),
		Action:    seance,
	},
	{
		Name:     "clean",
		Usage:    "Delete the local store",
		Category: "ingestion",
		Flags:    sharedFlags,
		Action:   clean,
	},
}
