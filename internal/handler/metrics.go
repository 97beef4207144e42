package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/edutoken/internal/token"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	eduRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edu_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	eduRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "edu_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	eduOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edu_operations_total",
		Help: "Total ledger mutations by kind (transfer, mint) and result.",
	}, []string{"kind", "result"})

	eduTotalSupply = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "edu_total_supply",
		Help: "Tokens in circulation.",
	})

	eduHolders = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "edu_holders",
		Help: "Identities present in the balance table, zero balances included.",
	})

	eduJournalEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "edu_journal_entries",
		Help: "Entries in the transaction journal, genesis included.",
	})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		eduRequestsTotal.WithLabelValues(method, path, status).Inc()
		eduRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordOperation records the outcome of a transfer or mint.
// Its signature matches session.MetricsRecorder.
func RecordOperation(kind token.TxType, success bool) {
	result := "success"
	if !success {
		result = "rejected"
	}
	eduOperationsTotal.WithLabelValues(string(kind), result).Inc()
}

// SetLedgerGauges publishes the settled ledger summary.
func SetLedgerGauges(info token.TokenInfo, journalEntries int) {
	eduTotalSupply.Set(float64(info.TotalSupply))
	eduHolders.Set(float64(info.TotalHolders))
	eduJournalEntries.Set(float64(journalEntries))
}

var eduIntegrityChecks = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "edu_integrity_checks_total",
	Help: "Integrity probe runs by probe (ledger, journal) and result.",
}, []string{"probe", "result"})

// RecordIntegrityCheck records one probe run.
// Its signature matches health.MetricsRecordFunc.
func RecordIntegrityCheck(probe string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	eduIntegrityChecks.WithLabelValues(probe, result).Inc()
}
