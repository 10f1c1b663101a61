// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package frame

// FrmbufPoolCnt is the number of preallocated Frame buffers the MAC layer
// and its application share. Exhaustion is a back-pressure signal -- the
// caller must wait or drop work -- never a crash.
const FrmbufPoolCnt = 4

// Pool is a fixed-capacity set of reusable Frames, handed out via a
// buffered channel so Acquire/Destroy double as the "semaphore" the TX
// queue and frame lifecycle require (spec design note: frame and queue
// accesses must be serialized across the MAC goroutine and its callers).
type Pool struct {
	free chan *Frame
}

// NewPool allocates FrmbufPoolCnt Frames and returns a Pool owning them.
func NewPool() *Pool {
	p := &Pool{free: make(chan *Frame, FrmbufPoolCnt)}
	for i := 0; i < FrmbufPoolCnt; i++ {
		p.free <- &Frame{pool: p}
	}
	return p
}

// Acquire takes a Frame from the pool without blocking. ok is false if the
// pool is currently exhausted.
func (p *Pool) Acquire() (f *Frame, ok bool) {
	select {
	case f = <-p.free:
		f.reset()
		return f, true
	default:
		return nil, false
	}
}

// release returns f to the pool. Called by Frame.Destroy.
func (p *Pool) release(f *Frame) {
	f.reset()
	select {
	case p.free <- f:
	default:
		// Pool double-release or a Frame from a different Pool; drop it
		// rather than block or panic.
	}
}
