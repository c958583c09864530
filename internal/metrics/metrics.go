package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	attemptsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "satportal_attempts_started_total",
		Help: "Attempts created.",
	})
	answersRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "satportal_answers_recorded_total",
		Help: "Answer writes by outcome.",
	}, []string{"outcome"})
	attemptsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "satportal_attempts_submitted_total",
		Help: "Submit calls by outcome.",
	}, []string{"outcome"})
	scorePercent = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "satportal_score_percent",
		Help:    "Distribution of submitted attempt scores.",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	})
	eventsRelayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "satportal_events_relayed_total",
		Help: "Outbox events handed to the broker by outcome.",
	}, []string{"outcome"})
)

func AttemptStarted() { attemptsStarted.Inc() }

func AnswerRecorded(err error) { answersRecorded.WithLabelValues(outcome(err)).Inc() }

func AttemptSubmitted(percent float64, err error) {
	attemptsSubmitted.WithLabelValues(outcome(err)).Inc()
	if err == nil {
		scorePercent.Observe(percent)
	}
}

func EventRelayed(err error) { eventsRelayed.WithLabelValues(outcome(err)).Inc() }

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
