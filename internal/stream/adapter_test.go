package stream_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/plaza/internal/domain"
	"github.com/gosuda/plaza/internal/stream"
)

type nextResult struct {
	record domain.AuditLog
	ok     bool
	err    error
}

func TestAdapter_NextSaltsPublishedRecord(t *testing.T) {
	t.Parallel()

	b := stream.NewBridge(stream.DeliverSingle, nil)
	a := stream.NewAdapter(b, stream.NewSalt("xyz-salt"), time.Minute, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	res := make(chan nextResult, 1)
	go func() {
		rec, ok, err := a.Next(ctx)
		res <- nextResult{record: rec, ok: ok, err: err}
	}()
	waitingEquals(t, b, 1)

	published := shopCreated()
	require.Equal(t, 1, b.Publish(published))

	r := <-res
	require.NoError(t, r.err)
	require.True(t, r.ok)
	assert.Equal(t, "xyz-salt", r.record.ID)
	assert.Equal(t, domain.OperationCreate, r.record.OperationType)
	assert.Equal(t, domain.TargetShop, r.record.OperationTarget)

	want := published
	want.ID = "xyz-salt"
	assert.Equal(t, want, r.record)
	assert.Equal(t, "abc123", published.ID, "publisher's copy must stay untouched")
}

func TestAdapter_NextTimesOutWithoutRecord(t *testing.T) {
	t.Parallel()

	m := stream.NewMetrics(prometheus.NewRegistry())
	b := stream.NewBridge(stream.DeliverSingle, m)
	a := stream.NewAdapter(b, stream.NewSalt("s"), 10*time.Millisecond, m)

	rec, ok, err := a.Next(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, domain.AuditLog{}, rec)
	assert.Equal(t, 0, b.Waiting(), "timed out subscription must be revoked")
	assert.InDelta(t, 1, testutil.ToFloat64(m.Ticks), 0)
}

func TestAdapter_NextReturnsContextError(t *testing.T) {
	t.Parallel()

	b := stream.NewBridge(stream.DeliverSingle, nil)
	a := stream.NewAdapter(b, stream.NewSalt("s"), time.Minute, nil)

	ctx, cancel := context.WithCancel(context.Background())
	res := make(chan nextResult, 1)
	go func() {
		rec, ok, err := a.Next(ctx)
		res <- nextResult{record: rec, ok: ok, err: err}
	}()
	waitingEquals(t, b, 1)

	cancel()
	r := <-res
	require.ErrorIs(t, r.err, context.Canceled)
	assert.False(t, r.ok)
	assert.Equal(t, 0, b.Waiting())
}

func TestAdapter_DroppedPublishIsNeverProduced(t *testing.T) {
	t.Parallel()

	b := stream.NewBridge(stream.DeliverSingle, nil)
	a := stream.NewAdapter(b, stream.NewSalt("s"), 10*time.Millisecond, nil)

	require.Equal(t, 0, b.Publish(shopCreated()))

	for range 3 {
		_, ok, err := a.Next(context.Background())
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestAdapter_DefaultTick(t *testing.T) {
	t.Parallel()

	// A non-positive tick falls back to DefaultTick; the record arrives well
	// before it elapses.
	b := stream.NewBridge(stream.DeliverSingle, nil)
	a := stream.NewAdapter(b, stream.NewSalt("s"), 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	res := make(chan nextResult, 1)
	go func() {
		rec, ok, err := a.Next(ctx)
		res <- nextResult{record: rec, ok: ok, err: err}
	}()
	waitingEquals(t, b, 1)
	b.Publish(shopCreated())

	r := <-res
	require.NoError(t, r.err)
	assert.True(t, r.ok)
}

func TestAdapter_RecordsSurvivesTicks(t *testing.T) {
	t.Parallel()

	b := stream.NewBridge(stream.DeliverSingle, nil)
	a := stream.NewAdapter(b, stream.NewSalt("xyz-salt"), 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan domain.AuditLog, 4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for rec, err := range a.Records(ctx) {
			if err != nil {
				return
			}
			got <- rec
			if len(got) == 2 {
				return
			}
		}
	}()

	// Let several empty ticks pass before anything is published.
	time.Sleep(30 * time.Millisecond)

	for i := range 2 {
		rec := shopCreated()
		rec.Description = []string{"first", "second"}[i]
		require.Eventually(t, func() bool { return b.Publish(rec) == 1 }, waitFor, time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("sequence did not produce two records")
	}

	first := <-got
	second := <-got
	assert.Equal(t, "xyz-salt", first.ID)
	assert.Equal(t, "first", first.Description)
	assert.Equal(t, "second", second.Description)
	assert.Equal(t, 0, b.Waiting(), "stopping iteration must not leave a listener behind")
}

func TestAdapter_RecordsEndsOnCancel(t *testing.T) {
	t.Parallel()

	b := stream.NewBridge(stream.DeliverSingle, nil)
	a := stream.NewAdapter(b, stream.NewSalt("s"), time.Minute, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan int)
	go func() {
		n := 0
		for range a.Records(ctx) {
			n++
		}
		done <- n
	}()
	waitingEquals(t, b, 1)

	cancel()
	select {
	case n := <-done:
		assert.Equal(t, 0, n, "cancellation must not be yielded as an element")
	case <-time.After(waitFor):
		t.Fatal("sequence did not end after cancellation")
	}
	assert.Equal(t, 0, b.Waiting())
}

type failingSubscriber struct {
	err error
}

func (f failingSubscriber) SubscribeOnce(context.Context) (domain.AuditLog, error) {
	return domain.AuditLog{}, f.err
}

func TestAdapter_RecordsYieldsSourceFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("emitter unavailable")
	a := stream.NewAdapter(failingSubscriber{err: boom}, stream.NewSalt("s"), time.Minute, nil)

	var errs []error
	for _, err := range a.Records(context.Background()) {
		errs = append(errs, err)
	}

	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], boom)
}
