package nestedset

import (
	"errors"
	"time"

	"github.com/leapstack-labs/sqltree/pkg/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sqltree_operations_total",
	Help: "Tree operations by outcome",
}, []string{"op", "status"})

var operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "sqltree_operation_duration_seconds",
	Help:    "Duration of tree operations, including the wait for the writer slot",
	Buckets: prometheus.DefBuckets,
}, []string{"op"})

var rowsShifted = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sqltree_boundary_rows_shifted_total",
	Help: "Rows whose lft or rgt boundary was renumbered",
}, []string{"edge"})

func observe(op string, start time.Time, err error) {
	status := "ok"
	switch {
	case errors.Is(err, core.ErrNotFound):
		status = "not_found"
	case err != nil:
		status = "error"
	}
	operationsTotal.WithLabelValues(op, status).Inc()
	operationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
