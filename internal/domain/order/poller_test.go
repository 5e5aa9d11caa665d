// internal/domain/order/poller_test.go
package order

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSignalSource struct {
	samples []Signal
	errs    []error
	calls   int
}

func (f *fakeSignalSource) Sample(ctx context.Context) (Signal, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return Signal{}, f.errs[i]
	}
	if i >= len(f.samples) {
		return f.samples[len(f.samples)-1], nil
	}
	return f.samples[i], nil
}

type recordedNotification struct {
	kind    NotificationKind
	orderID uint
}

type fakeNotifier struct {
	notifications []recordedNotification
}

func (f *fakeNotifier) Notify(ctx context.Context, kind NotificationKind, orderID uint) {
	f.notifications = append(f.notifications, recordedNotification{kind: kind, orderID: orderID})
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func signalAt(id uint, count int64, updated time.Time) Signal {
	return Signal{LatestID: id, LatestUpdatedAt: updated, TotalCount: count}
}

func newTestPoller(source *fakeSignalSource, notifier *fakeNotifier) *Poller {
	return NewPoller(source, notifier, time.Minute, quietLogger())
}

func TestFirstTickOnlyEstablishesBaseline(t *testing.T) {
	ts := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	source := &fakeSignalSource{samples: []Signal{signalAt(17, 250, ts)}}
	notifier := &fakeNotifier{}
	p := newTestPoller(source, notifier)

	p.tick(context.Background())

	assert.Empty(t, notifier.notifications, "pre-existing orders must stay silent")
	assert.True(t, p.primed)
	assert.Equal(t, uint(17), p.baseline.LatestID)
}

func TestNewOrderFiresOnce(t *testing.T) {
	ts := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	later := ts.Add(time.Minute)
	source := &fakeSignalSource{samples: []Signal{
		signalAt(17, 5, ts),
		signalAt(18, 6, later),
		signalAt(18, 6, later),
		signalAt(18, 6, later),
	}}
	notifier := &fakeNotifier{}
	p := newTestPoller(source, notifier)

	for i := 0; i < 4; i++ {
		p.tick(context.Background())
	}

	require.Len(t, notifier.notifications, 1)
	assert.Equal(t, KindNew, notifier.notifications[0].kind)
	assert.Equal(t, uint(18), notifier.notifications[0].orderID)
}

func TestUpdateWithoutNewOrder(t *testing.T) {
	ts := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	source := &fakeSignalSource{samples: []Signal{
		signalAt(17, 5, ts),
		signalAt(17, 5, ts.Add(time.Minute)),
	}}
	notifier := &fakeNotifier{}
	p := newTestPoller(source, notifier)

	p.tick(context.Background())
	p.tick(context.Background())

	require.Len(t, notifier.notifications, 1)
	assert.Equal(t, KindUpdate, notifier.notifications[0].kind)
}

func TestSampleErrorSkipsTickAndKeepsBaseline(t *testing.T) {
	ts := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	source := &fakeSignalSource{
		samples: []Signal{
			signalAt(17, 5, ts),
			{}, // consumed by the error slot
			signalAt(18, 6, ts.Add(time.Minute)),
		},
		errs: []error{nil, fmt.Errorf("db unavailable"), nil},
	}
	notifier := &fakeNotifier{}
	p := newTestPoller(source, notifier)

	p.tick(context.Background())
	p.tick(context.Background())
	require.Empty(t, notifier.notifications)
	assert.Equal(t, uint(17), p.baseline.LatestID, "failed tick must not move the baseline")

	p.tick(context.Background())
	require.Len(t, notifier.notifications, 1)
	assert.Equal(t, KindNew, notifier.notifications[0].kind)
}

func TestClassify(t *testing.T) {
	ts := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	later := ts.Add(time.Minute)

	tests := []struct {
		name     string
		baseline Signal
		sample   Signal
		kind     NotificationKind
		changed  bool
	}{
		{
			name:     "identical samples stay silent",
			baseline: signalAt(17, 5, ts),
			sample:   signalAt(17, 5, ts),
		},
		{
			name:     "new id and larger count is a new order",
			baseline: signalAt(17, 5, ts),
			sample:   signalAt(18, 6, later),
			kind:     KindNew,
			changed:  true,
		},
		{
			name:     "changed timestamp alone is an update",
			baseline: signalAt(17, 5, ts),
			sample:   signalAt(17, 5, later),
			kind:     KindUpdate,
			changed:  true,
		},
		{
			name:     "latest id moved without growth is an update",
			baseline: signalAt(17, 5, ts),
			sample:   signalAt(16, 5, later),
			kind:     KindUpdate,
			changed:  true,
		},
		{
			name:     "count grew but latest id unchanged is an update",
			baseline: signalAt(17, 5, ts),
			sample:   signalAt(17, 6, later),
			kind:     KindUpdate,
			changed:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, changed := classify(tt.baseline, tt.sample)
			assert.Equal(t, tt.changed, changed)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ts := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	source := &fakeSignalSource{samples: []Signal{signalAt(17, 5, ts)}}
	notifier := &fakeNotifier{}
	p := NewPoller(source, notifier, time.Millisecond, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after context cancellation")
	}
}
