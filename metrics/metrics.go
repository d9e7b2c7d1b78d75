package metrics

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/turbot/hostspipe/events"
	"github.com/turbot/hostspipe/types"
)

const namespace = "hostspipe"

// PumpMetrics exports pump events as prometheus metrics, labelled by list name.
// It is an observer: add it to a pump or job runner to record their events.
type PumpMetrics struct {
	LinesWritten *prometheus.CounterVec
	ChunksRead   *prometheus.CounterVec
	DecodeErrors *prometheus.CounterVec
	WriteErrors  *prometheus.CounterVec
	Errors       *prometheus.CounterVec
	RunDuration  *prometheus.HistogramVec
}

func NewPumpMetrics() *PumpMetrics {
	return &PumpMetrics{
		LinesWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pump",
				Name:      "lines_written_total",
				Help:      "Total number of hosts-file records written",
			},
			[]string{"list"},
		),
		ChunksRead: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pump",
				Name:      "chunks_read_total",
				Help:      "Total number of chunks read from list sources",
			},
			[]string{"list"},
		),
		DecodeErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pump",
				Name:      "decode_errors_total",
				Help:      "Total number of lines dropped because they could not be decoded",
			},
			[]string{"list"},
		),
		WriteErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pump",
				Name:      "write_errors_total",
				Help:      "Total number of failed writes to the output sink",
			},
			[]string{"list"},
		),
		Errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pump",
				Name:      "errors_total",
				Help:      "Total number of list runs which failed",
			},
			[]string{"list"},
		),
		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "pump",
				Name:      "run_duration_seconds",
				Help:      "Duration of list runs in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"list", "status"},
		),
	}
}

// Register adds all metrics to the registerer
func (m *PumpMetrics) Register(r prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.LinesWritten, m.ChunksRead, m.DecodeErrors, m.WriteErrors, m.Errors, m.RunDuration} {
		if err := r.Register(c); err != nil {
			var alreadyRegErr prometheus.AlreadyRegisteredError
			if errors.As(err, &alreadyRegErr) {
				return fmt.Errorf("pump metrics already registered: %w", err)
			}
			return fmt.Errorf("failed to register pump metrics: %w", err)
		}
	}
	return nil
}

// Notify implements observable.Observer
func (m *PumpMetrics) Notify(_ context.Context, e events.Event) error {
	list := e.GetListName()
	switch ev := e.(type) {
	case *events.DecodeError:
		m.DecodeErrors.WithLabelValues(list).Inc()
	case *events.WriteError:
		m.WriteErrors.WithLabelValues(list).Inc()
	case *events.Error:
		m.Errors.WithLabelValues(list).Inc()
	case *events.Completed:
		m.LinesWritten.WithLabelValues(list).Add(float64(ev.LinesWritten))
		m.ChunksRead.WithLabelValues(list).Add(float64(ev.ChunksRead))
		status := "success"
		if ev.Err != nil {
			status = "failure"
		}
		if t, ok := ev.Timing[types.PhaseRun]; ok && !t.End.IsZero() {
			m.RunDuration.WithLabelValues(list, status).Observe(t.Duration().Seconds())
		}
	}
	return nil
}

// DroppedEventsGauge reports the number of events a channel observer never delivered
func DroppedEventsGauge(dropped func() int64) prometheus.GaugeFunc {
	return prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "dropped",
			Help:      "Number of events dropped because the events channel was full",
		},
		func() float64 { return float64(dropped()) },
	)
}
