// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// Package periphtransport adapts periph.io/x/periph's SPI and GPIO
// abstractions to the sx127x.SPI and sx127x.GPIO interfaces.
package periphtransport

import (
	"errors"
	"time"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/spi"

	"github.com/heymacradio/heymac/sx127x"
)

// SPI wraps a periph spi.Conn, configured for the SX127x's requirements
// (mode 0, 8 bits, 4MHz -- the speed the teacher's driver used).
type SPI struct {
	conn spi.Conn
}

// NewSPI configures port for SPI mode 0 at 4MHz and returns an sx127x.SPI.
func NewSPI(port spi.PortCloser) (*SPI, error) {
	conn, err := port.DevParams(4*1000*1000, spi.Mode0, 8)
	if err != nil {
		return nil, err
	}
	return &SPI{conn: conn}, nil
}

// Tx implements sx127x.SPI.
func (s *SPI) Tx(w, r []byte) error { return s.conn.Tx(w, r) }

var _ sx127x.SPI = (*SPI)(nil)

// GPIO wraps a periph gpio.PinIO.
type GPIO struct {
	pin gpio.PinIO
}

// NewGPIO wraps pin as an sx127x.GPIO.
func NewGPIO(pin gpio.PinIO) *GPIO { return &GPIO{pin: pin} }

// In implements sx127x.GPIO.
func (g *GPIO) In(edge sx127x.Edge) error {
	var e gpio.Edge
	switch edge {
	case sx127x.NoEdge:
		e = gpio.NoEdge
	case sx127x.RisingEdge:
		e = gpio.RisingEdge
	case sx127x.FallingEdge:
		e = gpio.FallingEdge
	case sx127x.BothEdges:
		e = gpio.BothEdges
	default:
		return errors.New("periphtransport: unknown edge")
	}
	return g.pin.In(gpio.Float, e)
}

// WaitForEdge implements sx127x.GPIO.
func (g *GPIO) WaitForEdge(timeout time.Duration) bool {
	return g.pin.WaitForEdge(timeout)
}

// Read implements sx127x.GPIO.
func (g *GPIO) Read() bool { return g.pin.Read() == gpio.High }

// Out implements sx127x.GPIO.
func (g *GPIO) Out(high bool) error {
	level := gpio.Low
	if high {
		level = gpio.High
	}
	return g.pin.Out(level)
}

var _ sx127x.GPIO = (*GPIO)(nil)
