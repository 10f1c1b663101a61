// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package sx127x

import (
	"testing"
	"time"
)

// fakeSPI emulates the SX127x register file well enough to drive this
// package's diff-and-apply logic: writes with the MSB set store into regs
// starting at the low 7 bits of w[0], auto-incrementing like the real
// chip; reads return from the same array.
type fakeSPI struct {
	regs    [256]byte
	txCount int
}

func newFakeSPI() *fakeSPI {
	f := &fakeSPI{}
	f.regs[RegVersion] = SiliconRevision
	return f
}

func (f *fakeSPI) Tx(w, r []byte) error {
	f.txCount++
	addr := w[0] &^ 0x80
	if w[0]&0x80 != 0 {
		for i, b := range w[1:] {
			f.regs[int(addr)+i] = b
		}
	} else {
		for i := range r[1:] {
			r[1+i] = f.regs[int(addr)+i]
		}
	}
	return nil
}

type fakeGPIO struct {
	level bool
	edge  bool // pretend an edge is pending
}

func (g *fakeGPIO) In(Edge) error               { return nil }
func (g *fakeGPIO) WaitForEdge(d time.Duration) bool {
	if g.edge {
		g.edge = false
		return true
	}
	return false
}
func (g *fakeGPIO) Read() bool       { return g.level }
func (g *fakeGPIO) Out(high bool) error { g.level = high; return nil }

func newTestRadio(t *testing.T) (*Radio, *fakeSPI) {
	t.Helper()
	spi := newFakeSPI()
	r, err := New(spi, RadioOpts{Reset: &fakeGPIO{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r, spi
}

func TestInitAssertsSiliconRevision(t *testing.T) {
	spi := newFakeSPI()
	spi.regs[RegVersion] = 0x99
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on silicon revision mismatch")
		}
	}()
	New(spi, RadioOpts{Reset: &fakeGPIO{}})
}

func TestWriteOpModePreservesLongRangeMode(t *testing.T) {
	r, spi := newTestRadio(t)
	// New() leaves LongRangeMode set (LoRa) and mode == Standby.
	if spi.regs[RegOpMode]&opModeLongRangeBit == 0 {
		t.Fatal("LongRangeMode bit should be set after New()")
	}
	if err := r.writeOpMode(ModeTx); err != nil {
		t.Fatalf("writeOpMode: %v", err)
	}
	if spi.regs[RegOpMode]&opModeLongRangeBit == 0 {
		t.Error("writeOpMode must not clear LongRangeMode")
	}
	if Mode(spi.regs[RegOpMode]&opModeModeMask) != ModeTx {
		t.Errorf("OpMode low bits = %#x, want ModeTx", spi.regs[RegOpMode]&opModeModeMask)
	}
}

func TestSettingsIdempotence(t *testing.T) {
	r, spi := newTestRadio(t)
	r.settings.Set(FieldBandwidth, uint32(BW125))
	r.settings.SetFrequencyHz(915000000)
	if err := r.writeStngs(false); err != nil {
		t.Fatalf("writeStngs: %v", err)
	}
	before := spi.txCount
	if err := r.writeStngs(false); err != nil {
		t.Fatalf("second writeStngs: %v", err)
	}
	if spi.txCount != before {
		t.Errorf("second writeStngs issued %d SPI transactions, want 0", spi.txCount-before)
	}
}

func TestErratumIdempotence(t *testing.T) {
	r, spi := newTestRadio(t)
	r.settings.Set(FieldBandwidth, uint32(BW125))
	r.settings.SetFrequencyHz(432550000)
	if err := r.writeStngs(true); err != nil {
		t.Fatalf("writeStngs: %v", err)
	}
	before := spi.txCount
	if err := r.writeStngs(true); err != nil {
		t.Fatalf("second writeStngs: %v", err)
	}
	if spi.txCount != before {
		t.Errorf("second writeStngs(true) issued %d SPI transactions, want 0", spi.txCount-before)
	}
}

func TestErratumBelow500kHz(t *testing.T) {
	r, spi := newTestRadio(t)
	r.settings.Set(FieldBandwidth, uint32(BW125))
	r.settings.SetFrequencyHz(432550000)
	if err := r.writeStngs(true); err != nil {
		t.Fatalf("writeStngs: %v", err)
	}
	if spi.regs[RegIFFreq2] != 0x40 {
		t.Errorf("IF2 = %#x, want 0x40", spi.regs[RegIFFreq2])
	}
	if spi.regs[RegDetectOpt]&0x80 != 0 {
		t.Error("auto-IF-on bit should be clear below 500kHz")
	}
	gotFrf := uint64(spi.regs[RegFrfMSB])<<16 | uint64(spi.regs[RegFrfMID])<<8 | uint64(spi.regs[RegFrfLSB])
	wantFrf := (uint64(432550000) << 19) / 32000000
	if gotFrf != wantFrf {
		t.Errorf("frf = %#x, want %#x (no offset)", gotFrf, wantFrf)
	}

	// Reconfigure to a narrower bandwidth: the offset must now apply.
	r.settings.Set(FieldBandwidth, uint32(BW31_25))
	if err := r.writeStngs(true); err != nil {
		t.Fatalf("writeStngs (31.25k): %v", err)
	}
	if spi.regs[RegIFFreq2] != 0x44 {
		t.Errorf("IF2 = %#x, want 0x44", spi.regs[RegIFFreq2])
	}
	gotFrf = uint64(spi.regs[RegFrfMSB])<<16 | uint64(spi.regs[RegFrfMID])<<8 | uint64(spi.regs[RegFrfLSB])
	wantFrf = (uint64(432581250) << 19) / 32000000
	if gotFrf != wantFrf {
		t.Errorf("frf = %#x, want %#x (31250Hz offset)", gotFrf, wantFrf)
	}
}

func TestDIOTranslationTable(t *testing.T) {
	cases := []struct {
		pin   int
		value byte
		want  Signal
	}{
		{0, 0, SigRxDone}, {0, 1, SigTxDone}, {0, 2, SigCadDone},
		{1, 0, SigRxTmout}, {1, 2, SigCadDetected},
		{3, 1, SigValidHdr}, {3, 2, SigPayldCrcErr},
		{5, 0, SigModeRdy}, {5, 1, SigClkOut},
	}
	for _, c := range cases {
		if got := decodeDIO(c.pin, c.value); got != c.want {
			t.Errorf("decodeDIO(%d,%d) = %v, want %v", c.pin, c.value, got, c.want)
		}
	}
}

func TestDIOTranslationRejectsOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range pin")
		}
	}()
	decodeDIO(6, 0)
}

func TestSettingOutOfRangeIsFatal(t *testing.T) {
	r, _ := newTestRadio(t)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range setting")
		}
	}()
	r.settings.Set(FieldSpreadingFactor, 20)
}

func TestWriteFIFOOverwritesReservedByte(t *testing.T) {
	r, _ := newTestRadio(t)
	buf := []byte{0x00, 1, 2, 3}
	if err := r.WriteFIFO(buf); err != nil {
		t.Fatalf("WriteFIFO: %v", err)
	}
	if buf[0] != RegFIFO|0x80 {
		t.Errorf("buf[0] = %#x, want %#x", buf[0], RegFIFO|0x80)
	}
	if err := r.WriteFIFO(nil); err == nil {
		t.Error("expected error for empty buffer")
	}
}
