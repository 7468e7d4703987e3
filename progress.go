package sialo

import (
	"context"
	"sync"
)

// Emitter is the producing end of a shard completion stream. Notify never
// blocks, so it is safe to call from transfer goroutines regardless of how
// slowly the consumer drains.
type Emitter struct {
	mu      sync.Mutex
	pending uint64
	closed  bool
	signal  chan struct{}
}

// Consumer is the receiving end of a shard completion stream.
type Consumer struct {
	e *Emitter
}

// Subscribe creates a connected emitter and consumer. Events carry no
// payload, so the queue between them is a counter and never fills.
func Subscribe() (*Emitter, *Consumer) {
	e := &Emitter{signal: make(chan struct{}, 1)}
	return e, &Consumer{e: e}
}

// Notify records one completed shard. Calls after Close are ignored.
func (e *Emitter) Notify() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.pending++
	e.mu.Unlock()
	e.wake()
}

// Close ends the stream. Events already notified are still delivered.
// Close is idempotent.
func (e *Emitter) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.wake()
}

func (e *Emitter) wake() {
	select {
	case e.signal <- struct{}{}:
	default:
	}
}

// Receive waits for the next event. It returns true once per notified
// event and false when the stream is closed and drained or ctx is done.
func (c *Consumer) Receive(ctx context.Context) bool {
	for {
		c.e.mu.Lock()
		if c.e.pending > 0 {
			c.e.pending--
			c.e.mu.Unlock()
			return true
		}
		closed := c.e.closed
		c.e.mu.Unlock()
		if closed {
			return false
		}

		select {
		case <-c.e.signal:
		case <-ctx.Done():
			return false
		}
	}
}

// ProgressRenderer displays upload progress.
type ProgressRenderer interface {
	Update(done, total uint64) error
	Finish(done, total uint64) error
}

// TrackProgress counts events from c against plan.TotalShards, rendering
// after each one and once more when the stream ends. It returns the number
// of events seen and the first render error. Rendering failures do not
// stop the count, so the producing side is never held up by the display.
func TrackProgress(ctx context.Context, c *Consumer, plan UploadPlan, r ProgressRenderer) (uint64, error) {
	var (
		done     uint64
		firstErr error
	)
	for c.Receive(ctx) {
		done++
		if err := r.Update(done, plan.TotalShards); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := r.Finish(done, plan.TotalShards); err != nil && firstErr == nil {
		firstErr = err
	}
	return done, firstErr
}
