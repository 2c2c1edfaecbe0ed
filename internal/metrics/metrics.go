// Package metrics exposes replay progress as prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bft-labs/beastreplay/internal/app"
	"github.com/bft-labs/beastreplay/pkg/beast"
	"github.com/bft-labs/beastreplay/pkg/replay"
)

const namespace = "beastreplay"

// Metrics implements replay.Observer by updating prometheus counters.
type Metrics struct {
	messages     *prometheus.CounterVec
	discarded    prometheus.Counter
	badSelectors prometheus.Counter
	abandoned    prometheus.Counter
	regressions  prometheus.Counter
	sleeps       prometheus.Counter
	sleepSeconds prometheus.Counter
	gapSkips     prometheus.Counter
	passes       *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Messages written to the output, by frame kind.",
		}, []string{"kind"}),
		discarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discarded_bytes_total",
			Help:      "Input bytes that were not part of any emitted frame.",
		}),
		badSelectors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bad_selectors_total",
			Help:      "Sentinels followed by an unknown frame selector.",
		}),
		abandoned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "abandoned_frames_total",
			Help:      "Frames cut short by an unescaped sentinel.",
		}),
		regressions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timestamp_regressions_total",
			Help:      "Messages whose timestamp did not advance the replay clock.",
		}),
		sleeps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pacing_sleeps_total",
			Help:      "Waits handed to the clock while pacing.",
		}),
		sleepSeconds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pacing_sleep_seconds_total",
			Help:      "Total scheduled wait time.",
		}),
		gapSkips: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gap_skips_total",
			Help:      "Waits skipped because they exceeded the maximum gap.",
		}),
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "passes_total",
			Help:      "Finished replay passes, by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.messages,
		m.discarded,
		m.badSelectors,
		m.abandoned,
		m.regressions,
		m.sleeps,
		m.sleepSeconds,
		m.gapSkips,
		m.passes,
	)
	for _, k := range beast.Kinds {
		m.messages.WithLabelValues(k.String())
	}
	return m
}

// OnDecode records decoder drop counters.
func (m *Metrics) OnDecode(st beast.Stats) {
	m.discarded.Add(float64(st.DiscardedBytes))
	m.badSelectors.Add(float64(st.BadSelectors))
	m.abandoned.Add(float64(st.AbandonedFrames))
}

// OnEmit records an emitted message and its pacing decision.
func (m *Metrics) OnEmit(msg beast.Message, d replay.Decision) {
	m.messages.WithLabelValues(msg.Kind.String()).Inc()
	switch {
	case d.Regressed:
		m.regressions.Inc()
	case d.GapSkipped:
		m.gapSkips.Inc()
	case d.Sleep:
		m.sleeps.Inc()
		m.sleepSeconds.Add(d.Delay.Seconds())
	}
}

// OnPass records a finished pass.
func (m *Metrics) OnPass(res app.Result) {
	m.passes.WithLabelValues(res.Outcome.String()).Inc()
}

// Handler serves the metrics gathered by g in the prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

var (
	_ replay.Observer  = (*Metrics)(nil)
	_ app.PassObserver = (*Metrics)(nil)
)
