package stream_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/plaza/internal/domain"
	"github.com/gosuda/plaza/internal/stream"
)

const waitFor = 2 * time.Second

type subscribeResult struct {
	record domain.AuditLog
	err    error
}

func subscribeAsync(ctx context.Context, b *stream.Bridge) <-chan subscribeResult {
	out := make(chan subscribeResult, 1)
	go func() {
		rec, err := b.SubscribeOnce(ctx)
		out <- subscribeResult{record: rec, err: err}
	}()
	return out
}

func waitingEquals(t *testing.T, b *stream.Bridge, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return b.Waiting() == n }, waitFor, time.Millisecond)
}

func shopCreated() domain.AuditLog {
	return domain.AuditLog{
		ID:              "abc123",
		OperationType:   domain.OperationCreate,
		OperationTarget: domain.TargetShop,
		TargetID:        "shop-7",
		Operator:        "alice",
		Description:     "created shop",
		CreatedAt:       time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestBridge_PublishWithoutSubscriberIsDropped(t *testing.T) {
	t.Parallel()

	b := stream.NewBridge(stream.DeliverSingle, nil)

	assert.Equal(t, 0, b.Publish(shopCreated()))
	assert.Equal(t, 0, b.Waiting())

	// A later subscriber never sees the dropped record.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := b.SubscribeOnce(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBridge_SingleDeliveryToOneSubscriber(t *testing.T) {
	t.Parallel()

	b := stream.NewBridge(stream.DeliverSingle, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	res := subscribeAsync(ctx, b)
	waitingEquals(t, b, 1)

	assert.Equal(t, 1, b.Publish(shopCreated()))

	select {
	case r := <-res:
		require.NoError(t, r.err)
		assert.Equal(t, shopCreated(), r.record)
	case <-time.After(waitFor):
		t.Fatal("subscriber did not receive the record")
	}
	assert.Equal(t, 0, b.Waiting(), "registration must be consumed")
}

func TestBridge_SingleDeliveryIsFIFO(t *testing.T) {
	t.Parallel()

	b := stream.NewBridge(stream.DeliverSingle, nil)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	defer cancelFirst()
	first := subscribeAsync(firstCtx, b)
	waitingEquals(t, b, 1)

	secondCtx, cancelSecond := context.WithCancel(context.Background())
	second := subscribeAsync(secondCtx, b)
	waitingEquals(t, b, 2)

	assert.Equal(t, 1, b.Publish(shopCreated()))

	r := <-first
	require.NoError(t, r.err)
	assert.Equal(t, "abc123", r.record.ID)

	assert.Equal(t, 1, b.Waiting())
	cancelSecond()
	r = <-second
	require.ErrorIs(t, r.err, context.Canceled)
	assert.Equal(t, 0, b.Waiting())
}

func TestBridge_BroadcastDeliversToAll(t *testing.T) {
	t.Parallel()

	b := stream.NewBridge(stream.DeliverBroadcast, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const subscribers = 3
	results := make([]<-chan subscribeResult, 0, subscribers)
	for range subscribers {
		results = append(results, subscribeAsync(ctx, b))
	}
	waitingEquals(t, b, subscribers)

	assert.Equal(t, subscribers, b.Publish(shopCreated()))
	for _, res := range results {
		r := <-res
		require.NoError(t, r.err)
		assert.Equal(t, shopCreated(), r.record)
	}
	assert.Equal(t, 0, b.Waiting())
}

func TestBridge_CancelledSubscriptionIsRemoved(t *testing.T) {
	t.Parallel()

	b := stream.NewBridge(stream.DeliverSingle, nil)
	ctx, cancel := context.WithCancel(context.Background())

	res := subscribeAsync(ctx, b)
	waitingEquals(t, b, 1)

	cancel()
	r := <-res
	require.ErrorIs(t, r.err, context.Canceled)
	assert.Equal(t, 0, b.Waiting())

	assert.Equal(t, 0, b.Publish(shopCreated()), "no stale listener may absorb the record")
}

func TestBridge_SubscribeWithDoneContext(t *testing.T) {
	t.Parallel()

	b := stream.NewBridge(stream.DeliverSingle, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.SubscribeOnce(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, b.Waiting())
}

func TestBridge_ConcurrentPublishAndCancelNeverLoses(t *testing.T) {
	t.Parallel()

	b := stream.NewBridge(stream.DeliverSingle, nil)

	for range 200 {
		ctx, cancel := context.WithCancel(context.Background())
		res := subscribeAsync(ctx, b)
		waitingEquals(t, b, 1)

		var wg sync.WaitGroup
		var delivered int
		wg.Add(2)
		go func() {
			defer wg.Done()
			delivered = b.Publish(shopCreated())
		}()
		go func() {
			defer wg.Done()
			cancel()
		}()
		wg.Wait()

		r := <-res
		if delivered == 1 {
			require.NoError(t, r.err, "a delivered record must reach the subscriber")
			assert.Equal(t, "abc123", r.record.ID)
		} else {
			require.ErrorIs(t, r.err, context.Canceled)
		}
		assert.Equal(t, 0, b.Waiting())
	}
}

func TestBridge_Announce(t *testing.T) {
	t.Parallel()

	b := stream.NewBridge("", nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	res := subscribeAsync(ctx, b)
	waitingEquals(t, b, 1)

	entry := shopCreated()
	require.NoError(t, b.Announce(ctx, &entry))

	r := <-res
	require.NoError(t, r.err)
	assert.Equal(t, entry, r.record)
}

func TestBridge_Metrics(t *testing.T) {
	t.Parallel()

	m := stream.NewMetrics(prometheus.NewRegistry())
	b := stream.NewBridge(stream.DeliverSingle, m)

	b.Publish(shopCreated())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	res := subscribeAsync(ctx, b)
	waitingEquals(t, b, 1)
	b.Publish(shopCreated())
	<-res

	assert.InDelta(t, 2, testutil.ToFloat64(m.Published), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Delivered), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Dropped), 0)
}

func TestParseDelivery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    stream.Delivery
		wantErr bool
	}{
		{in: "", want: stream.DeliverSingle},
		{in: "single", want: stream.DeliverSingle},
		{in: "broadcast", want: stream.DeliverBroadcast},
		{in: "fanout", wantErr: true},
		{in: "SINGLE", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()

			got, err := stream.ParseDelivery(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewSalt(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "xyz-salt", stream.NewSalt("xyz-salt").String())

	a := stream.NewSalt("")
	b := stream.NewSalt("")
	assert.NotEmpty(t, a.String())
	assert.NotEqual(t, a, b)
}
