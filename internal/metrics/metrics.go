package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds the ingestion metrics. A batch run has no scrape endpoint, so the
// registry is written to a node_exporter textfile at the end of the run.
var Registry = prometheus.NewRegistry()

var (
	FetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cip_fetches_total",
			Help: "Total number of page fetches by kind and outcome.",
		},
		[]string{"kind", "status"},
	)

	SeancesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cip_seances_total",
			Help: "Total number of extracted seances by accumulation result.",
		},
		[]string{"result"},
	)

	StoredEntries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cip_stored_entries",
			Help: "Number of rows written to the store by the last run.",
		},
		[]string{"table"},
	)

	LastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cip_last_run_timestamp_seconds",
			Help: "Completion time of the last ingestion run, labelled with its id.",
		},
		[]string{"run_id"},
	)
)

func init() {
	Registry.MustRegister(
		FetchesTotal,
		SeancesTotal,
		StoredEntries,
		LastRun,
	)
}

func ObserveFetch(kind string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	FetchesTotal.WithLabelValues(kind, status).Inc()
}

// MarkRun records a completed run, replacing any previous run id.
func MarkRun(runID string, at time.Time) {
	LastRun.Reset()
	LastRun.WithLabelValues(runID).Set(float64(at.Unix()))
}

// WriteTextfile writes the registry in the text exposition format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
