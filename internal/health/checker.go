// Package health runs periodic integrity probes against the ledger and the
// journal and reports whether the process is ready to serve.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/jmerrifield20/edutoken/internal/journal"
	"github.com/jmerrifield20/edutoken/internal/session"
	"github.com/jmerrifield20/edutoken/internal/token"
	"go.uber.org/zap"
)

// Config holds health check configuration.
type Config struct {
	CheckInterval time.Duration
	ProbeTimeout  time.Duration
	FailThreshold int
}

// Probe is a named check. A nil error means the probe passed.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// ProbeStatus is the last known state of one probe.
type ProbeStatus struct {
	Healthy   bool      `json:"healthy"`
	FailCount int       `json:"fail_count"`
	LastError string    `json:"last_error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Report is the readiness summary served on /readyz.
type Report struct {
	Status string                 `json:"status"` // "healthy" or "degraded"
	Probes map[string]ProbeStatus `json:"probes"`
}

// MetricsRecordFunc is an optional callback for recording probe results.
type MetricsRecordFunc func(probe string, success bool)

// Checker runs probes on a timer. A probe is degraded once it has failed
// FailThreshold times in a row and recovers on its next success.
type Checker struct {
	probes    []Probe
	mu        sync.Mutex
	status    map[string]ProbeStatus
	cfg       Config
	onMetrics MetricsRecordFunc
	logger    *zap.Logger
}

// New creates a new Checker.
func New(probes []Probe, cfg Config, logger *zap.Logger) *Checker {
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = time.Minute
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = 10 * time.Second
	}
	if cfg.FailThreshold == 0 {
		cfg.FailThreshold = 3
	}

	status := make(map[string]ProbeStatus, len(probes))
	for _, p := range probes {
		status[p.Name] = ProbeStatus{Healthy: true}
	}
	return &Checker{
		probes: probes,
		status: status,
		cfg:    cfg,
		logger: logger,
	}
}

// SetMetricsRecord configures the metrics recording callback.
func (h *Checker) SetMetricsRecord(fn MetricsRecordFunc) {
	h.onMetrics = fn
}

// Start runs the check loop until ctx is done.
func (h *Checker) Start(ctx context.Context) {
	ticker := time.NewTicker(h.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.CheckAll(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// CheckAll runs every probe concurrently and waits for them.
func (h *Checker) CheckAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, p := range h.probes {
		wg.Add(1)
		go func(p Probe) {
			defer wg.Done()

			pctx, cancel := context.WithTimeout(ctx, h.cfg.ProbeTimeout)
			err := p.Check(pctx)
			cancel()

			if h.onMetrics != nil {
				h.onMetrics(p.Name, err == nil)
			}
			h.record(p.Name, err)
		}(p)
	}
	wg.Wait()
}

func (h *Checker) record(name string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	st := h.status[name]
	st.CheckedAt = time.Now().UTC()

	if err == nil {
		if !st.Healthy {
			h.logger.Info("health: recovered", zap.String("probe", name))
		}
		h.status[name] = ProbeStatus{Healthy: true, CheckedAt: st.CheckedAt}
		return
	}

	st.FailCount++
	st.LastError = err.Error()
	if st.FailCount == h.cfg.FailThreshold {
		st.Healthy = false
		h.logger.Warn("health: degraded",
			zap.String("probe", name),
			zap.Int("fail_count", st.FailCount),
			zap.Error(err),
		)
	}
	h.status[name] = st
}

// Healthy reports whether no probe is degraded.
func (h *Checker) Healthy() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, st := range h.status {
		if !st.Healthy {
			return false
		}
	}
	return true
}

// Report returns a snapshot of every probe.
func (h *Checker) Report() Report {
	h.mu.Lock()
	defer h.mu.Unlock()

	r := Report{Status: "healthy", Probes: make(map[string]ProbeStatus, len(h.status))}
	for name, st := range h.status {
		r.Probes[name] = st
		if !st.Healthy {
			r.Status = "degraded"
		}
	}
	return r
}

// JournalProbe walks the journal hash chain.
func JournalProbe(j journal.Journal) Probe {
	return Probe{Name: "journal", Check: j.Verify}
}

// MirrorProbe checks that the journal records the ledger history in order.
func MirrorProbe(ctrl *session.Controller) Probe {
	return Probe{Name: "journal_mirror", Check: ctrl.CheckMirror}
}

// LedgerProbe checks the ledger's balance invariants.
func LedgerProbe(ledger *token.FungibleToken) Probe {
	return Probe{Name: "ledger", Check: func(context.Context) error {
		return ledger.CheckInvariants()
	}}
}
