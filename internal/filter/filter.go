package filter

import (
	"sync/atomic"

	"firestige.xyz/nlyzer/internal/log"
	"firestige.xyz/nlyzer/internal/metrics"
)

// Adapter turns a Predicate into a plain accept/reject decision for the
// capture loop. Predicate errors never escape: they are logged, counted
// and treated as a rejection.
type Adapter struct {
	predicate Predicate
	device    string
	errors    atomic.Uint64
}

// NewAdapter wraps p for frames captured on device. A nil p accepts everything.
func NewAdapter(device string, p Predicate) *Adapter {
	if p == nil {
		p = AcceptAll
	}
	return &Adapter{predicate: p, device: device}
}

// Accept reports whether rec passes the predicate.
func (a *Adapter) Accept(rec Record) bool {
	ok, err := a.predicate.Match(rec)
	if err != nil {
		n := a.errors.Add(1)
		metrics.FilterErrorsTotal.WithLabelValues(a.device).Inc()
		// Only the first failure is logged at warn.
		l := log.GetLogger().WithError(err).WithField("device", a.device)
		if n == 1 {
			l.Warn("filter failed, frame rejected")
		} else {
			l.Debug("filter failed, frame rejected")
		}
		return false
	}
	return ok
}
