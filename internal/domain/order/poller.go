// internal/domain/order/poller.go
package order

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// NotificationKind classifies a detected order-table delta.
type NotificationKind string

const (
	// KindNew fires when an order was created since the last sample.
	KindNew NotificationKind = "new"
	// KindUpdate fires when an existing order changed.
	KindUpdate NotificationKind = "update"
)

// Notifier receives poller notifications. Implementations are
// fire-and-forget: they handle their own failures and must never
// block the polling loop for long.
type Notifier interface {
	Notify(ctx context.Context, kind NotificationKind, orderID uint)
}

// Poller samples the order signal on a fixed interval and notifies
// exactly once per detected transition. It keeps only a baseline (the
// previous successful sample) and compares each new sample against
// it.
type Poller struct {
	source   SignalSource
	notifier Notifier
	interval time.Duration
	log      *logrus.Logger

	baseline Signal
	primed   bool
}

// NewPoller creates a poller. Run starts it.
func NewPoller(source SignalSource, notifier Notifier, interval time.Duration, log *logrus.Logger) *Poller {
	return &Poller{
		source:   source,
		notifier: notifier,
		interval: interval,
		log:      log,
	}
}

// Run polls until the context is cancelled. Cancellation is the only
// way the loop exits; a dangling poller after its owner is gone would
// keep notifying for a view nobody watches.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.log.WithField("interval", p.interval).Info("order change-detection poller started")

	for {
		select {
		case <-ctx.Done():
			p.log.Info("order change-detection poller stopped")
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick performs one sample-and-classify cycle.
func (p *Poller) tick(ctx context.Context) {
	sample, err := p.source.Sample(ctx)
	if err != nil {
		// Transient sampling failure: keep the baseline so the next
		// successful tick compares against real state instead of
		// reporting a false transition.
		p.log.WithError(err).Debug("order signal sample failed, tick skipped")
		return
	}

	if !p.primed {
		// First successful sample only establishes the baseline.
		// Pre-existing orders must not ring the bell on startup.
		p.baseline = sample
		p.primed = true
		return
	}

	if kind, changed := classify(p.baseline, sample); changed {
		p.log.WithFields(logrus.Fields{
			"kind":     kind,
			"order_id": sample.LatestID,
			"count":    sample.TotalCount,
		}).Info("order change detected")
		p.notifier.Notify(ctx, kind, sample.LatestID)
	}

	// The baseline always advances to the newest sample, so a delta
	// is reported once and identical follow-up samples stay silent.
	p.baseline = sample
}

// classify compares a sample against the baseline.
//
// A new order requires both a changed latest id and a strictly
// greater total count: an update to the most recent order can change
// which record is latest without growing the table, and id alone
// would misreport that as a new order.
func classify(baseline, sample Signal) (NotificationKind, bool) {
	if sample.LatestID != baseline.LatestID && sample.TotalCount > baseline.TotalCount {
		return KindNew, true
	}
	if !sample.LatestUpdatedAt.Equal(baseline.LatestUpdatedAt) {
		return KindUpdate, true
	}
	return "", false
}
