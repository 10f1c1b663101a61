// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package sx127x

import "time"

// decodeAppliedDIO translates a pin's last-applied mapping value into a
// logical Signal. It touches only the in-memory settings table, never
// SPI, so it is safe to call from an interrupt-adjacent context.
func (r *Radio) decodeAppliedDIO(pin int) Signal {
	v := byte(r.settings.applied[dioField(pin)])
	return decodeDIO(pin, v)
}

// StartDIOWatcher spawns one goroutine per configured DIO pin. Each
// goroutine's only job is to wait for the pin's edge and translate it to
// a Signal via the last-applied mapping, then hand it to OnSignal -- the
// short, SPI-free handler the concurrency model requires of interrupt
// context. Stop with StopDIOWatcher.
func (r *Radio) StartDIOWatcher() {
	r.watchStop = make(chan struct{})
	for pin := 0; pin < 6; pin++ {
		pin := pin
		g := r.dio[pin]
		if g == nil {
			continue
		}
		go func() {
			for {
				select {
				case <-r.watchStop:
					return
				default:
				}
				if g.WaitForEdge(time.Second) {
					r.onSignal(r.decodeAppliedDIO(pin))
				}
			}
		}()
	}
}

// StopDIOWatcher halts the goroutines started by StartDIOWatcher. It is a
// no-op if the watcher was never started.
func (r *Radio) StopDIOWatcher() {
	if r.watchStop != nil {
		close(r.watchStop)
		r.watchStop = nil
	}
}

// PollDIO checks pin once, non-blocking, and delivers a Signal via
// OnSignal if an edge is pending, for callers that prefer a synchronous
// poll loop over StartDIOWatcher's goroutines.
func (r *Radio) PollDIO(pin int) Signal {
	g := r.dio[pin]
	if g == nil {
		return SigNone
	}
	if !g.WaitForEdge(0) {
		return SigNone
	}
	sig := r.decodeAppliedDIO(pin)
	r.onSignal(sig)
	return sig
}
