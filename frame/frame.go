// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// Package frame implements the HeyMac data-link frame: a dynamic,
// bit-flag-driven wire format whose field layout is entirely inferred from
// a single control byte (FCTL). A Frame is either outbound (built up field
// by field with the Set* methods) or inbound (produced by Parse from raw
// radio bytes); the two are mutually exclusive for the life of the Frame.
package frame

import "errors"

// FrameMax is the largest frame this core will serialize or accept, not
// counting the one reserved leading byte every Frame's buffer carries so
// that the radio driver can issue a FIFO write directly from it.
const FrameMax = 256

// ProtoCSMAv0 is the only Protocol ID this core accepts: top nibble 0xE
// identifies HeyMac, low nibble 4 selects CSMA sub-protocol version 0.
const ProtoCSMAv0 = 0xE4

// FCTL flag bits.
const (
	FlagExt       = 0x80 // X: extended frame, remaining bytes opaque
	FlagLong      = 0x40 // L: 64-bit addressing, else 16-bit
	FlagNetID     = 0x20 // N: NetId present
	FlagDst       = 0x10 // D: DstAddr present
	FlagIE        = 0x08 // I: Information Elements present
	FlagSrc       = 0x04 // S: SrcAddr present
	FlagMultihop  = 0x02 // M: multihop (Hops + TxAddr) present
	FlagPending   = 0x01 // P: pending-frame follows
)

// buffer layout, all offsets are absolute indices into Frame.buf
const (
	posReserved    = 0 // SPI command-byte placeholder, never part of "frame size"
	posPID         = 1
	posFCTL        = 2
	posFieldsStart = 3
)

// Frame owns a fixed-size byte buffer holding one HeyMac frame in transmit
// order, plus the bookkeeping needed to grow it field by field or to
// interpret it after a Parse.
type Frame struct {
	buf [1 + FrameMax]byte

	payloadSize int // bytes currently in the payload region
	micSize     int // always 0 in this core: IEs (and their MIC) aren't implemented
	mhopSize    int // 0, or 3 (16-bit TxAddr) or 9 (64-bit TxAddr)

	payloadFinalized bool // true once a payload byte has been committed

	receivedSize int // >0 for frames built by Parse; 0 for outbound frames

	pool *Pool // non-nil if this Frame came from a Pool
}

// reset clears a Frame for reuse, as when a Pool hands it back out.
func (f *Frame) reset() {
	for i := range f.buf {
		f.buf[i] = 0
	}
	f.payloadSize = 0
	f.micSize = 0
	f.mhopSize = 0
	f.payloadFinalized = false
	f.receivedSize = 0
}

// Destroy releases the Frame back to the Pool it came from, if any. It is a
// no-op for Frames not obtained from a Pool (e.g. those built with New for
// testing).
func (f *Frame) Destroy() {
	if f.pool != nil {
		f.pool.release(f)
	}
}

// New returns a standalone outbound Frame, not tied to any Pool. Production
// code should prefer Pool.Acquire; New exists for tests and for callers
// that manage their own buffers.
func New() *Frame {
	return &Frame{}
}

// Inbound reports whether this Frame was produced by Parse.
func (f *Frame) Inbound() bool { return f.receivedSize > 0 }

func (f *Frame) fctl() byte { return f.buf[posFCTL] }

// addrSize returns the width, in bytes, of Dst/Src/TxAddr given the current
// L flag.
func (f *Frame) addrSize() int {
	if f.fctl()&FlagLong != 0 {
		return 8
	}
	return 2
}

// headerEnd returns the absolute buffer index at which the payload begins,
// walking the FCTL flags left to right: NetId, DstAddr, IEs, SrcAddr. IEs
// always contribute zero bytes in this core.
func (f *Frame) headerEnd() int {
	end := posFieldsStart
	fctl := f.fctl()
	if fctl&FlagNetID != 0 {
		end += 2
	}
	if fctl&FlagDst != 0 {
		end += f.addrSize()
	}
	// IEs: reserved, zero bytes.
	if fctl&FlagSrc != 0 {
		end += f.addrSize()
	}
	return end
}

// PayloadOffset returns the byte offset (not counting the one reserved
// leading byte) at which the payload begins.
func (f *Frame) PayloadOffset() int { return f.headerEnd() - 1 }

// Size returns the serialized frame length, not counting the reserved
// leading byte: payload_offset + payload_size + mic_size + mhop_size.
func (f *Frame) Size() int {
	return f.PayloadOffset() + f.payloadSize + f.micSize + f.mhopSize
}

// BufferSize returns the number of bytes of f.Buffer() that are valid,
// which is Size()+1 to account for the reserved leading byte.
func (f *Frame) BufferSize() int { return f.Size() + 1 }

// Buffer returns the full underlying buffer including the reserved leading
// byte, sized to BufferSize(). The radio driver overwrites buf[0] with the
// SPI FIFO command byte before shipping this slice out over SPI, so no
// separate copy is needed to transmit.
func (f *Frame) Buffer() []byte { return f.buf[:f.BufferSize()] }

// Bytes returns the serialized frame, not including the reserved leading
// byte.
func (f *Frame) Bytes() []byte { return f.buf[1:f.BufferSize()] }

// SetProtocol sets the Protocol ID byte. Only ProtoCSMAv0 is accepted by
// this core.
func (f *Frame) SetProtocol(pid byte) bool {
	if pid != ProtoCSMAv0 {
		return false
	}
	f.buf[posPID] = pid
	return true
}

// Protocol returns the frame's Protocol ID byte.
func (f *Frame) Protocol() byte { return f.buf[posPID] }

// FCTL returns the current Frame Control byte.
func (f *Frame) FCTL() byte { return f.fctl() }

// SetNetID sets the 2-byte NetId field and the N flag.
func (f *Frame) SetNetID(v uint16) bool {
	if f.payloadFinalized || f.fctl()&(FlagDst|FlagSrc) != 0 {
		return false
	}
	if !f.hasRoomForHeaderGrowth(2) {
		return false
	}
	off := f.headerEnd() // NetId always lands right where the header currently ends
	f.buf[posFCTL] |= FlagNetID
	putUint16(f.buf[off:], v)
	return true
}

func (f *Frame) hasRoomForHeaderGrowth(n int) bool {
	return f.headerEnd()+n+f.payloadSize+f.micSize+f.mhopSize <= 1+FrameMax
}

// SetDstAddr16 sets a 16-bit DstAddr and clears L. It fails if SrcAddr is
// already set.
func (f *Frame) SetDstAddr16(v uint16) bool {
	off, ok := f.prepareAddr(FlagDst, false)
	if !ok {
		return false
	}
	putUint16(f.buf[off:], v)
	return true
}

// SetDstAddr64 sets a 64-bit DstAddr and sets L.
func (f *Frame) SetDstAddr64(v uint64) bool {
	off, ok := f.prepareAddr(FlagDst, true)
	if !ok {
		return false
	}
	putUint64(f.buf[off:], v)
	return true
}

// SetSrcAddr16 sets a 16-bit SrcAddr and clears L. It fails if a 64-bit
// DstAddr is already set.
func (f *Frame) SetSrcAddr16(v uint16) bool {
	off, ok := f.prepareAddr(FlagSrc, false)
	if !ok {
		return false
	}
	putUint16(f.buf[off:], v)
	return true
}

// SetSrcAddr64 sets a 64-bit SrcAddr and sets L.
func (f *Frame) SetSrcAddr64(v uint64) bool {
	off, ok := f.prepareAddr(FlagSrc, true)
	if !ok {
		return false
	}
	putUint64(f.buf[off:], v)
	return true
}

// prepareAddr validates ordering/width-sharing rules, reserves room for an
// address field, raises its flag (and L if needed), and returns the
// absolute buffer offset at which to write the address value.
func (f *Frame) prepareAddr(destFlag byte, long bool) (int, bool) {
	if f.payloadFinalized {
		return 0, false
	}
	if destFlag == FlagDst && f.fctl()&FlagSrc != 0 {
		// Src (ordered after Dst) is already committed; inserting/moving
		// Dst now would shift Src's bytes.
		return 0, false
	}
	otherPresent := f.fctl()&(FlagDst|FlagSrc)&^destFlag != 0
	curLong := f.fctl()&FlagLong != 0
	if otherPresent && curLong != long {
		return 0, false
	}
	size := 2
	if long {
		size = 8
	}
	if !f.hasRoomForHeaderGrowth(size) {
		return 0, false
	}
	if long {
		f.buf[posFCTL] |= FlagLong
	} else if !otherPresent {
		f.buf[posFCTL] &^= FlagLong
	}
	// Dst is ordered before Src, and Src cannot be set yet when destFlag is
	// Dst (checked above), so headerEnd() already points at the right slot
	// once the flag below is raised.
	f.buf[posFCTL] |= destFlag
	return f.headerEnd() - size, true
}

// SetPayload copies data into the payload region, finalizing the header.
// After this call no NetId/DstAddr/SrcAddr setter may succeed.
func (f *Frame) SetPayload(data []byte) bool {
	if f.fctl()&FlagMultihop != 0 {
		return false // multihop already appended past the old payload end
	}
	hdrEnd := f.headerEnd()
	if hdrEnd+len(data)+f.micSize+f.mhopSize > 1+FrameMax {
		return false
	}
	copy(f.buf[hdrEnd:], data)
	f.payloadSize = len(data)
	f.payloadFinalized = true
	return true
}

// AppendSlot returns a slice starting right after the current payload, for
// callers that grow the payload in place (the command builder appends
// additional commands this way), plus the size already committed.
func (f *Frame) AppendSlot() (slot []byte, alreadyUsed int) {
	hdrEnd := f.headerEnd()
	return f.buf[hdrEnd+f.payloadSize : 1+FrameMax : 1+FrameMax], f.payloadSize
}

// SetPayloadSize records the total payload length after a caller (the
// command builder) has written directly into the region returned by
// AppendSlot.
func (f *Frame) SetPayloadSize(n int) bool {
	hdrEnd := f.headerEnd()
	if hdrEnd+n+f.micSize+f.mhopSize > 1+FrameMax {
		return false
	}
	f.payloadSize = n
	f.payloadFinalized = true
	return true
}

// PayloadSize returns the current payload length.
func (f *Frame) PayloadSize() int { return f.payloadSize }

// Payload returns the valid portion of the payload region.
func (f *Frame) Payload() []byte {
	hdrEnd := f.headerEnd()
	return f.buf[hdrEnd : hdrEnd+f.payloadSize]
}

// SetMultihop16 appends a 1-byte Hops count and a 16-bit TxAddr. It
// requires L==0 (short addressing already selected by Dst/Src) and that M
// is not already set.
func (f *Frame) SetMultihop16(hops byte, txAddr uint16) bool {
	if f.fctl()&FlagLong != 0 || f.fctl()&FlagMultihop != 0 {
		return false
	}
	off := f.headerEnd() + f.payloadSize + f.micSize
	if off+3 > 1+FrameMax {
		return false
	}
	f.buf[off] = hops
	putUint16(f.buf[off+1:], txAddr)
	f.mhopSize = 3
	f.buf[posFCTL] |= FlagMultihop
	f.payloadFinalized = true
	return true
}

// SetMultihop64 appends a 1-byte Hops count and a 64-bit TxAddr. It
// requires L==1 and that M is not already set.
func (f *Frame) SetMultihop64(hops byte, txAddr uint64) bool {
	if f.fctl()&FlagLong == 0 || f.fctl()&FlagMultihop != 0 {
		return false
	}
	off := f.headerEnd() + f.payloadSize + f.micSize
	if off+9 > 1+FrameMax {
		return false
	}
	f.buf[off] = hops
	putUint64(f.buf[off+1:], txAddr)
	f.mhopSize = 9
	f.buf[posFCTL] |= FlagMultihop
	f.payloadFinalized = true
	return true
}

// NetID returns the NetId field, if present.
func (f *Frame) NetID() (uint16, bool) {
	if f.fctl()&FlagNetID == 0 {
		return 0, false
	}
	return getUint16(f.buf[posFieldsStart:]), true
}

// DstAddr returns the DstAddr field as a 64-bit value (zero-extended if
// 16-bit) along with whether addressing is long, if present.
func (f *Frame) DstAddr() (addr uint64, long bool, present bool) {
	if f.fctl()&FlagDst == 0 {
		return 0, false, false
	}
	off := posFieldsStart
	if f.fctl()&FlagNetID != 0 {
		off += 2
	}
	long = f.fctl()&FlagLong != 0
	if long {
		return getUint64(f.buf[off:]), true, true
	}
	return uint64(getUint16(f.buf[off:])), false, true
}

// SrcAddr returns the SrcAddr field, if present.
func (f *Frame) SrcAddr() (addr uint64, long bool, present bool) {
	if f.fctl()&FlagSrc == 0 {
		return 0, false, false
	}
	off := posFieldsStart
	if f.fctl()&FlagNetID != 0 {
		off += 2
	}
	if f.fctl()&FlagDst != 0 {
		off += f.addrSize()
	}
	long = f.fctl()&FlagLong != 0
	if long {
		return getUint64(f.buf[off:]), true, true
	}
	return uint64(getUint16(f.buf[off:])), false, true
}

// Multihop returns the Hops count and TxAddr, if the M flag is present.
func (f *Frame) Multihop() (hops byte, txAddr uint64, long bool, present bool) {
	if f.fctl()&FlagMultihop == 0 {
		return 0, 0, false, false
	}
	off := f.headerEnd() + f.payloadSize + f.micSize
	long = f.fctl()&FlagLong != 0
	hops = f.buf[off]
	if long {
		txAddr = getUint64(f.buf[off+1:])
	} else {
		txAddr = uint64(getUint16(f.buf[off+1:]))
	}
	return hops, txAddr, long, true
}

// Parse builds an inbound Frame from n raw bytes (not including the
// reserved leading byte; the caller's radio driver has already stripped
// the SPI command byte off). It validates the protocol ID and the derived
// payload size but, per this core's scope, does not validate IE content,
// address-family-specific rules, or payload-header semantics -- nothing is
// rejected that the size equation alone accepts.
func Parse(raw []byte) (*Frame, error) {
	if len(raw) < 2 {
		return nil, errors.New("frame: too short")
	}
	f := &Frame{}
	copy(f.buf[1:], raw)
	f.receivedSize = len(raw)

	if f.buf[posPID] != ProtoCSMAv0 {
		return nil, errors.New("frame: unsupported protocol id")
	}

	if f.fctl()&FlagExt != 0 {
		// Extended frames are opaque in this core: accept as-is, payload
		// spans everything after PID+FCTL.
		f.payloadSize = len(raw) - 2
		if f.payloadSize < 0 {
			return nil, errors.New("frame: negative payload size")
		}
		return f, nil
	}

	hdrEnd := f.headerEnd()
	mhop := 0
	if f.fctl()&FlagMultihop != 0 {
		mhop = 1 + f.addrSize()
	}
	f.mhopSize = mhop
	f.micSize = 0 // IE-determined MIC size, always 0 in this core

	payloadSize := len(raw) - (hdrEnd - 1) - f.micSize - mhop
	if payloadSize <= 0 {
		return nil, errors.New("frame: non-positive derived payload size")
	}
	f.payloadSize = payloadSize
	return f, nil
}

func putUint16(b []byte, v uint16) {
	b[0] = byte(v >> 8)
	b[1] = byte(v)
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> uint(56-8*i))
	}
}

func getUint16(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}

func getUint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(b[i])
	}
	return v
}
