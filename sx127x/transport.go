// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package sx127x

import "time"

// SPI is the bus access this driver requires. Concrete implementations
// live in sx127x/periphtransport and sx127x/embdtransport; tests use a
// fake. w is the full outgoing transaction (command byte plus any data),
// r receives the same number of bytes clocked back in.
type SPI interface {
	Tx(w, r []byte) error
}

// Edge identifies which transition a GPIO interrupt pin should watch for.
type Edge int

const (
	NoEdge Edge = iota
	RisingEdge
	FallingEdge
	BothEdges
)

// GPIO is a single interrupt-capable input pin (one of DIO0..DIO5) or the
// reset output pin.
type GPIO interface {
	// In arms the pin as an input watching for edge; pass NoEdge to disarm.
	In(edge Edge) error
	// WaitForEdge blocks until edge fires or timeout elapses (0 = poll
	// once, non-blocking); returns whether an edge was observed.
	WaitForEdge(timeout time.Duration) bool
	// Read returns the pin's current level.
	Read() bool
	// Out drives the pin low/high; used only for the reset line.
	Out(high bool) error
}

// LogPrintf is the logging hook every Radio accepts, in the same
// no-op-default style the teacher's sx1276 package uses: production code
// need not depend on any particular logging library, and callers that
// want structured logs can pass a closure around one.
type LogPrintf func(format string, v ...interface{})

func noopLog(format string, v ...interface{}) {}
