// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// Package embdtransport adapts github.com/kidoman/embd's SPI bus and
// digital pins to the sx127x.SPI and sx127x.GPIO interfaces, for targets
// where periph's host drivers aren't available. Grounded on the teacher's
// own embd shim (shim.go).
package embdtransport

import (
	"time"

	"github.com/kidoman/embd"

	"github.com/heymacradio/heymac/sx127x"
)

// SPI wraps an embd.SPIBus.
type SPI struct {
	bus embd.SPIBus
}

// NewSPI opens an embd SPI bus (mode 0, 8 bits, 4MHz) on the given bus and
// chip-select index.
func NewSPI(busNum, csNum byte) *SPI {
	return &SPI{bus: embd.NewSPIBus(embd.SPIMode0, int(busNum), 4*1000*1000, 8, int(csNum))}
}

// Tx implements sx127x.SPI: embd's TransferAndReceiveData operates
// in-place on a single buffer, so Tx copies w into r and transfers that.
func (s *SPI) Tx(w, r []byte) error {
	copy(r, w)
	return s.bus.TransferAndReceiveData(r)
}

var _ sx127x.SPI = (*SPI)(nil)

// GPIO wraps an embd.DigitalPin, translating its callback-based Watch into
// the blocking WaitForEdge this package's consumers expect.
type GPIO struct {
	pin  embd.DigitalPin
	dir  embd.Direction
	edge chan struct{}
}

// NewGPIO opens name (e.g. "GPIO17") as a digital input pin.
func NewGPIO(name string) (*GPIO, error) {
	p, err := embd.NewDigitalPin(name)
	if err != nil {
		return nil, err
	}
	if err := p.SetDirection(embd.In); err != nil {
		return nil, err
	}
	return &GPIO{pin: p, dir: embd.In, edge: make(chan struct{}, 1)}, nil
}

// In implements sx127x.GPIO.
func (g *GPIO) In(edge sx127x.Edge) error {
	if err := g.pin.SetDirection(embd.In); err != nil {
		return err
	}
	g.dir = embd.In
	if edge == sx127x.NoEdge {
		return nil
	}
	e := [...]embd.Edge{embd.EdgeNone, embd.EdgeRising, embd.EdgeFalling, embd.EdgeBoth}[edge]
	return g.pin.Watch(e, g.edgeCB)
}

func (g *GPIO) edgeCB(embd.DigitalPin) {
	select {
	case g.edge <- struct{}{}:
	default:
	}
}

// WaitForEdge implements sx127x.GPIO.
func (g *GPIO) WaitForEdge(timeout time.Duration) bool {
	to := time.After(timeout)
	select {
	case <-g.edge:
		return true
	case <-to:
		return false
	}
}

// Read implements sx127x.GPIO.
func (g *GPIO) Read() bool {
	v, _ := g.pin.Read()
	return v == 1
}

// Out implements sx127x.GPIO.
func (g *GPIO) Out(high bool) error {
	if g.dir != embd.Out {
		if err := g.pin.SetDirection(embd.Out); err != nil {
			return err
		}
		g.dir = embd.Out
	}
	level := 0
	if high {
		level = 1
	}
	return g.pin.Write(level)
}

var _ sx127x.GPIO = (*GPIO)(nil)
