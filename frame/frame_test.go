// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package frame

import (
	"bytes"
	"testing"
)

func TestBuildShortAddrFrame(t *testing.T) {
	f := New()
	if !f.SetProtocol(ProtoCSMAv0) {
		t.Fatal("SetProtocol failed")
	}
	if !f.SetNetID(0x1234) {
		t.Fatal("SetNetID failed")
	}
	if !f.SetDstAddr16(0x00AB) {
		t.Fatal("SetDstAddr16 failed")
	}
	if !f.SetSrcAddr16(0xCD00) {
		t.Fatal("SetSrcAddr16 failed")
	}
	if !f.SetPayload([]byte("ping")) {
		t.Fatal("SetPayload failed")
	}

	want := []byte{0xE4, 0x34, 0x12, 0x34, 0x00, 0xAB, 0xCD, 0x00, 0x70, 0x69, 0x6E, 0x67}
	if got := f.Bytes(); !bytes.Equal(got, want) {
		t.Fatalf("got % x, want % x", got, want)
	}

	parsed, err := Parse(f.Bytes())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed.FCTL() != f.FCTL() {
		t.Errorf("FCTL mismatch: got %#x want %#x", parsed.FCTL(), f.FCTL())
	}
	if net, ok := parsed.NetID(); !ok || net != 0x1234 {
		t.Errorf("NetID mismatch: got %#x ok=%v", net, ok)
	}
	if dst, long, ok := parsed.DstAddr(); !ok || long || dst != 0x00AB {
		t.Errorf("DstAddr mismatch: got %#x long=%v ok=%v", dst, long, ok)
	}
	if src, long, ok := parsed.SrcAddr(); !ok || long || src != 0xCD00 {
		t.Errorf("SrcAddr mismatch: got %#x long=%v ok=%v", src, long, ok)
	}
	if !bytes.Equal(parsed.Payload(), []byte("ping")) {
		t.Errorf("Payload mismatch: got %q", parsed.Payload())
	}
}

func TestTextCommand(t *testing.T) {
	f := New()
	f.SetProtocol(ProtoCSMAv0)
	if !f.SetSrcAddr64(0xCAFEDEADBEEF0102) {
		t.Fatal("SetSrcAddr64 failed")
	}
	cb := NewCommandBuilder(f)
	if !cb.Text([]byte("ABC")) {
		t.Fatal("Text failed")
	}
	if !bytes.Equal(f.Payload(), []byte{0x83, 0x41, 0x42, 0x43}) {
		t.Errorf("payload = % x", f.Payload())
	}
	if f.FCTL() != FlagLong|FlagSrc {
		t.Errorf("FCTL = %#x, want %#x", f.FCTL(), FlagLong|FlagSrc)
	}
}

func TestCapabilityBeaconCommand(t *testing.T) {
	f := New()
	f.SetProtocol(ProtoCSMAv0)
	cb := NewCommandBuilder(f)
	if !cb.CapabilityBeacon(0x00CA, 0x0000) {
		t.Fatal("CapabilityBeacon failed")
	}
	want := []byte{0x84, 0x00, 0xCA, 0x00, 0x00}
	if !bytes.Equal(f.Payload(), want) {
		t.Errorf("payload = % x, want % x", f.Payload(), want)
	}
}

func TestTextCommandRejectsWhenFrameTooLong(t *testing.T) {
	f := New()
	f.SetProtocol(ProtoCSMAv0)
	// Fill the payload so the frame's total size is exactly 253.
	if !f.SetPayload(make([]byte, 251)) { // PayloadOffset() == 2 here (PID+FCTL only)
		t.Fatal("SetPayload failed")
	}
	if f.Size() != 253 {
		t.Fatalf("Size() = %d, want 253", f.Size())
	}
	beforeSize := f.Size()
	cb := NewCommandBuilder(f)
	if cb.Text([]byte("ABC")) {
		t.Fatal("Text should have been refused (4 > remaining 3)")
	}
	if f.Size() != beforeSize {
		t.Errorf("frame was modified on refusal: size now %d", f.Size())
	}
}

func TestLongDstAddr(t *testing.T) {
	f := New()
	f.SetProtocol(ProtoCSMAv0)
	if !f.SetDstAddr64(0x0102030405060708) {
		t.Fatal("SetDstAddr64 failed")
	}
	want := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	got := f.Bytes()[2 : 2+8]
	if !bytes.Equal(got, want) {
		t.Errorf("DstAddr bytes = % x, want % x", got, want)
	}
	if f.FCTL()&FlagLong == 0 {
		t.Error("L flag not set")
	}
}

func TestMultihopRequiresMatchingAddressWidth(t *testing.T) {
	f := New()
	f.SetProtocol(ProtoCSMAv0)
	f.SetDstAddr16(0x1) // L == 0
	f.SetPayload([]byte("x"))
	if f.SetMultihop64(1, 0x0807060504030201) {
		t.Error("SetMultihop64 should fail when L == 0")
	}
	if !f.SetMultihop16(2, 0xBEEF) {
		t.Fatal("SetMultihop16 should succeed when L == 0")
	}
	hops, tx, long, ok := f.Multihop()
	if !ok || long || hops != 2 || tx != 0xBEEF {
		t.Errorf("Multihop() = hops=%d tx=%#x long=%v ok=%v", hops, tx, long, ok)
	}
	if f.SetMultihop16(3, 0xABCD) {
		t.Error("second SetMultihop16 should fail: M already set")
	}
}

func TestRoundTripSelectedFlagCombinations(t *testing.T) {
	type build func(f *Frame) bool
	cases := map[string]build{
		"net+dst16+src16": func(f *Frame) bool {
			return f.SetNetID(1) && f.SetDstAddr16(2) && f.SetSrcAddr16(3) && f.SetPayload([]byte{0x42})
		},
		"src16 with multihop16": func(f *Frame) bool {
			return f.SetSrcAddr16(9) && f.SetPayload([]byte{1, 2, 3}) && f.SetMultihop16(4, 0xAAAA)
		},
	}
	for name, build := range cases {
		f := New()
		f.SetProtocol(ProtoCSMAv0)
		if !build(f) {
			t.Fatalf("%s: build failed", name)
		}
		wantFCTL := f.FCTL()
		wantSize := f.Size()
		parsed, err := Parse(f.Bytes())
		if err != nil {
			t.Fatalf("%s: Parse: %v", name, err)
		}
		if !parsed.Inbound() {
			t.Errorf("%s: parsed frame should report Inbound()", name)
		}
		if parsed.FCTL() != wantFCTL {
			t.Errorf("%s: FCTL got %#x want %#x", name, parsed.FCTL(), wantFCTL)
		}
		if parsed.Size() != wantSize {
			t.Errorf("%s: Size got %d want %d", name, parsed.Size(), wantSize)
		}
	}
}

func TestParseRejectsZeroPayloadSize(t *testing.T) {
	type build func(f *Frame) bool
	cases := map[string]build{
		"net only":    func(f *Frame) bool { return f.SetNetID(0xBEEF) },
		"dst64+src64": func(f *Frame) bool {
			return f.SetDstAddr64(0x1111111111111111) && f.SetSrcAddr64(0x2222222222222222)
		},
	}
	for name, build := range cases {
		f := New()
		f.SetProtocol(ProtoCSMAv0)
		if !build(f) {
			t.Fatalf("%s: build failed", name)
		}
		if _, err := Parse(f.Bytes()); err == nil {
			t.Errorf("%s: expected Parse to reject a zero-byte payload", name)
		}
	}
}

func TestParseRejectsWrongProtocol(t *testing.T) {
	if _, err := Parse([]byte{0x00, 0x00}); err == nil {
		t.Error("expected error for wrong PID")
	}
}

func TestParseRejectsNegativePayloadSize(t *testing.T) {
	// FCTL requests NetId+Dst+Src (16-bit each) = 6 bytes of header but
	// only 2 bytes are supplied after PID+FCTL.
	raw := []byte{ProtoCSMAv0, FlagNetID | FlagDst | FlagSrc, 0x00, 0x00}
	if _, err := Parse(raw); err == nil {
		t.Error("expected error for negative derived payload size")
	}
}

func TestPoolExhaustion(t *testing.T) {
	p := NewPool()
	var got []*Frame
	for i := 0; i < FrmbufPoolCnt; i++ {
		f, ok := p.Acquire()
		if !ok {
			t.Fatalf("acquire %d should have succeeded", i)
		}
		got = append(got, f)
	}
	if _, ok := p.Acquire(); ok {
		t.Fatal("pool should be exhausted")
	}
	got[0].Destroy()
	if _, ok := p.Acquire(); !ok {
		t.Fatal("pool should have a Frame available after a Destroy")
	}
}
