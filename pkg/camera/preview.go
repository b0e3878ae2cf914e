package camera

import "sync/atomic"

// Preview holds the most recently captured frame for display surfaces.
// It sees every frame, including those dropped by the overrun policy.
type Preview struct {
	latest atomic.Pointer[Frame]
}

// NewPreview creates an empty preview.
func NewPreview() *Preview {
	return &Preview{}
}

// Store replaces the latest frame. The frame's pixel buffer must not be
// modified afterwards.
func (p *Preview) Store(f Frame) {
	p.latest.Store(&f)
}

// Latest returns the most recent frame, or false if none was captured yet.
func (p *Preview) Latest() (Frame, bool) {
	f := p.latest.Load()
	if f == nil {
		return Frame{}, false
	}
	return *f, true
}

// Seq returns the sequence number of the latest frame, 0 if none.
func (p *Preview) Seq() uint64 {
	if f := p.latest.Load(); f != nil {
		return f.Seq
	}
	return 0
}
