package trellis

import (
	"context"
	"sync"
)

// NewBodySync creates the one-shot handoff bridging push-delivered request
// body data into an awaitable consumer. The writer must be primed once and
// then delivers exactly one value; the reader blocks until the value
// arrives and afterwards returns it immediately.
func NewBodySync() (*BodyReader, *BodyWriter) {
	ch := make(chan []byte, 1)
	return &BodyReader{ch: ch}, &BodyWriter{ch: ch}
}

const (
	bodyCreated = iota
	bodyPrimed
	bodyDelivered
)

// BodyWriter is the push side of the handoff. Driving it past its two
// advances (Prime, then Deliver) is a programming error.
type BodyWriter struct {
	mu    sync.Mutex
	state int
	ch    chan<- []byte
}

// Prime readies the writer for a single delivery.
func (w *BodyWriter) Prime() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != bodyCreated {
		panic("trellis: body writer primed twice")
	}
	w.state = bodyPrimed
}

// Deliver hands the body to the paired reader, resolving it.
func (w *BodyWriter) Deliver(data []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch w.state {
	case bodyCreated:
		panic("trellis: body writer delivered before prime")
	case bodyDelivered:
		panic("trellis: body writer delivered twice")
	}
	w.state = bodyDelivered
	w.ch <- data
}

// BodyReader is the awaitable consumer side. It expects a single consumer.
type BodyReader struct {
	mu   sync.Mutex
	ch   <-chan []byte
	data []byte
	done bool
}

// Read blocks until the body has been delivered or ctx is cancelled.
// Subsequent calls return the delivered body immediately.
func (r *BodyReader) Read(ctx context.Context) ([]byte, error) {
	r.mu.Lock()
	if r.done {
		defer r.mu.Unlock()
		return r.data, nil
	}
	r.mu.Unlock()

	select {
	case data := <-r.ch:
		r.mu.Lock()
		r.data = data
		r.done = true
		r.mu.Unlock()
		return data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
