package stream

import "time"

// Feed holds the process-wide stream state and opens one Adapter per
// connection.
type Feed struct {
	source  Subscriber
	salt    Salt
	tick    time.Duration
	metrics *Metrics
}

func NewFeed(source Subscriber, salt Salt, tick time.Duration, metrics *Metrics) *Feed {
	return &Feed{source: source, salt: salt, tick: tick, metrics: metrics}
}

// Open returns a fresh Adapter for one connection.
func (f *Feed) Open() *Adapter {
	return NewAdapter(f.source, f.salt, f.tick, f.metrics)
}

// Metrics returns the metrics shared by every connection; it may be nil.
func (f *Feed) Metrics() *Metrics { return f.metrics }
