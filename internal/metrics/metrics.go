package metrics

import (
	"database/sql"
	"net/http"

	"github.com/dlmiddlecote/sqlstats"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github/chapool/go-txrelay/internal/transactions"
)

const namespace = "txrelay"

// Metrics owns its registry so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	submissions     *prometheus.CounterVec
	queueLength     *prometheus.GaugeVec
	queueEvents     *prometheus.CounterVec
	reconciled      *prometheus.CounterVec
	persistFailures prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "submissions",
				Name:      "total",
				Help:      "Submission outcomes by path and error kind.",
			},
			[]string{"path", "result"},
		),
		queueLength: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "queue",
				Name:      "length",
				Help:      "Transactions waiting to be observed on chain.",
			},
			[]string{"queue"},
		),
		queueEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "queue",
				Name:      "events_total",
				Help:      "Queue pushes and removals.",
			},
			[]string{"queue", "event"},
		),
		reconciled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "reconciler",
				Name:      "transactions_total",
				Help:      "Transactions removed from the queue by outcome.",
			},
			[]string{"kind", "outcome"},
		),
		persistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "persist_failures_total",
			Help:      "Failed writes of the queue snapshot.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.submissions,
		m.queueLength,
		m.queueEvents,
		m.reconciled,
		m.persistFailures,
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RegisterDB exports the connection pool stats of db labelled with name.
func (m *Metrics) RegisterDB(name string, db *sql.DB) error {
	if err := m.registry.Register(sqlstats.NewStatsCollector(name, db)); err != nil {
		return errors.Wrapf(err, "failed to register stats of database %q", name)
	}

	return nil
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordSubmission labels failures with their transactions.ErrorKind.
func (m *Metrics) RecordSubmission(path string, result transactions.Result) {
	label := "success"
	if !result.IsSuccess() {
		label = transactions.Classify(result.Err()).String()
	}

	m.submissions.WithLabelValues(path, label).Inc()
}

func (m *Metrics) SetQueueLength(queue string, n int) {
	m.queueLength.WithLabelValues(queue).Set(float64(n))
}

func (m *Metrics) RecordQueueEvent(queue string, event transactions.QueueEventType, length int) {
	m.queueEvents.WithLabelValues(queue, string(event)).Inc()
	m.SetQueueLength(queue, length)
}

func (m *Metrics) RecordReconciled(kind transactions.TransactionKind, outcome string) {
	m.reconciled.WithLabelValues(string(kind), outcome).Inc()
}

func (m *Metrics) RecordPersistFailure(_ error) {
	m.persistFailures.Inc()
}
