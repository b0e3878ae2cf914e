package camera

import "sync/atomic"

// Deliverer hands frames from a grab loop to a FrameHandler running on its
// own goroutine, dropping frames that arrive while the handler is busy.
//
// The hand-off channel is unbuffered, so a frame is accepted only when the
// delivery goroutine is parked waiting for one.
type Deliverer struct {
	handler FrameHandler
	preview *Preview
	frames  chan Frame

	captured  atomic.Int64
	delivered atomic.Int64
	dropped   atomic.Int64
}

// NewDeliverer creates a deliverer for handler. preview may be nil.
func NewDeliverer(handler FrameHandler, preview *Preview) *Deliverer {
	return &Deliverer{
		handler: handler,
		preview: preview,
		frames:  make(chan Frame),
	}
}

// Offer publishes f to the preview and tries to hand it to the handler.
// It never blocks. Returns false if the frame was dropped.
func (d *Deliverer) Offer(f Frame) bool {
	d.captured.Add(1)
	if d.preview != nil {
		d.preview.Store(f)
	}

	select {
	case d.frames <- f:
		d.delivered.Add(1)
		return true
	default:
		d.dropped.Add(1)
		return false
	}
}

// Run calls the handler for each accepted frame until stop is closed.
// It is the capture execution context: call it on exactly one goroutine.
func (d *Deliverer) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case f := <-d.frames:
			d.handler.OnFrame(f)
		}
	}
}

// Counts returns captured, delivered and dropped totals.
func (d *Deliverer) Counts() (captured, delivered, dropped int64) {
	return d.captured.Load(), d.delivered.Load(), d.dropped.Load()
}
