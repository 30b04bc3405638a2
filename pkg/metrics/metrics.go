// Package metrics records form engine activity. Components depend on the
// Recorder interface; the Prometheus implementation is wired by the CLI.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result labels.
const (
	ResultOK          = "ok"
	ResultError       = "error"
	ResultInvalid     = "invalid"
	ResultRejected    = "rejected"
	ResultUnreachable = "unreachable"
)

// Recorder receives engine events.
type Recorder interface {
	OptionFetch(link string, ok bool)
	Submission(recordType, result string, elapsed time.Duration)
	FollowUp(hook string, ok bool)
}

// Nop discards every event.
type Nop struct{}

func (Nop) OptionFetch(string, bool)                 {}
func (Nop) Submission(string, string, time.Duration) {}
func (Nop) FollowUp(string, bool)                    {}

// Prometheus exports events as Prometheus collectors.
type Prometheus struct {
	optionFetches *prometheus.CounterVec
	submissions   *prometheus.CounterVec
	submitLatency *prometheus.HistogramVec
	followUps     *prometheus.CounterVec
}

// NewPrometheus registers the collectors with reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	factory := promauto.With(reg)
	return &Prometheus{
		optionFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recordforms",
			Name:      "option_fetch_total",
			Help:      "Link option fetches broken down by target record type and result.",
		}, []string{"link", "result"}),
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recordforms",
			Name:      "submissions_total",
			Help:      "Form submissions broken down by record type and result.",
		}, []string{"record_type", "result"}),
		submitLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "recordforms",
			Name:      "submit_duration_seconds",
			Help:      "Latency of the primary create/update request.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"record_type"}),
		followUps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recordforms",
			Name:      "followups_total",
			Help:      "Post-commit hook executions broken down by hook and result.",
		}, []string{"hook", "result"}),
	}
}

var defaultPrometheus = sync.OnceValue(func() *Prometheus {
	return NewPrometheus(prometheus.DefaultRegisterer)
})

// Default returns the process-wide recorder registered with the default
// Prometheus registry.
func Default() *Prometheus {
	return defaultPrometheus()
}

func (p *Prometheus) OptionFetch(link string, ok bool) {
	p.optionFetches.With(prometheus.Labels{"link": link, "result": result(ok)}).Inc()
}

func (p *Prometheus) Submission(recordType, outcome string, elapsed time.Duration) {
	p.submissions.With(prometheus.Labels{"record_type": recordType, "result": outcome}).Inc()
	if elapsed > 0 {
		p.submitLatency.With(prometheus.Labels{"record_type": recordType}).Observe(elapsed.Seconds())
	}
}

func (p *Prometheus) FollowUp(hook string, ok bool) {
	p.followUps.With(prometheus.Labels{"hook": hook, "result": result(ok)}).Inc()
}

func result(ok bool) string {
	if ok {
		return ResultOK
	}
	return ResultError
}
