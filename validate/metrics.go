package validate

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// validationsTotal counts validation passes.
	//
	// Labels:
	//   - has_error: "true" if the pass left the model invalid or failed outright.
	//
	// Usage example in dashboards:
	//   - rate(validation_calls_total[5m]) - Passes per second
	//   - sum(rate(validation_calls_total{has_error="true"}[5m])) / sum(rate(validation_calls_total[5m])) - Error rate
	validationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "validation_calls_total",
		Help: "The total number of validation passes",
	}, []string{"has_error"})

	// validationTime tracks the duration of a pass in milliseconds.
	//
	// Labels:
	//   - type: the Go type of the root model (e.g. "*api.CreateOrderRequest").
	//   - has_error: same meaning as for validation_calls_total.
	//
	// Buckets cover sub-millisecond passes over small requests up to passes that
	// call out to databases from Validate(ctx) methods.
	validationTime = promauto.NewHistogramVec(prometheus.HistogramOpts{ //nolint:gochecknoglobals
		Name: "validation_time_millis",
		Help: "The time it takes to validate, in milliseconds",
		Buckets: []float64{
			1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000,
		},
	}, []string{"type", "has_error"})

	// nodesVisited counts the values visited across all passes. Divided by
	// validation_calls_total it gives the average model size.
	nodesVisited = promauto.NewCounter(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "validation_nodes_visited_total",
		Help: "The total number of values visited by validation passes",
	})

	// errorsRecorded counts model errors recorded across all passes.
	errorsRecorded = promauto.NewCounter(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "validation_errors_total",
		Help: "The total number of model errors recorded by validation passes",
	})
)

// init pre-initializes validationsTotal so both outcomes exist from process
// start and rate() queries have no gaps.
func init() {
	validationsTotal.WithLabelValues("true").Add(0)
	validationsTotal.WithLabelValues("false").Add(0)
}

func observePass(typeName string, hasError bool, millis float64, nodes, errs int) {
	label := strconv.FormatBool(hasError)

	validationsTotal.WithLabelValues(label).Inc()
	validationTime.WithLabelValues(typeName, label).Observe(millis)
	nodesVisited.Add(float64(nodes))
	errorsRecorded.Add(float64(errs))
}
