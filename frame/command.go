// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package frame

// CmdPrefix and CmdMask identify a MAC command opcode byte: the top two
// bits are always 0b10, the low six bits select the command.
const (
	CmdPrefix = 0x80
	CmdMask   = 0xC0
)

// MAC command ids (low six bits of the opcode byte).
const (
	CmdSBCN = 1 // small beacon, reserved
	CmdEBCN = 2 // extended beacon, reserved
	CmdTXT  = 3 // opaque text
	CmdCBCN = 4 // capability beacon: caps:u16, status:u16
	CmdJOIN = 5 // reserved
)

// CommandBuilder writes MAC commands into a Frame's payload area, one per
// call, each appended after the payload already present; the Frame's
// payload size grows by the opcode plus body.
type CommandBuilder struct {
	f *Frame
}

// NewCommandBuilder binds a CommandBuilder to a Frame.
func NewCommandBuilder(f *Frame) *CommandBuilder { return &CommandBuilder{f: f} }

// fits reports whether appending a 1-byte opcode plus a bodySize-byte body
// keeps the frame's total size at or under FrameMax.
func (c *CommandBuilder) fits(bodySize int) bool {
	return c.f.Size()+1+bodySize <= FrameMax
}

// opcode composes the opcode byte for cmdID.
func opcode(cmdID byte) byte { return CmdPrefix | (cmdID & 0x3F) }

// Text emplaces a TXT command carrying opaque text bytes, appended after
// any command(s) already in the payload.
func (c *CommandBuilder) Text(text []byte) bool {
	if !c.fits(len(text)) {
		return false
	}
	slot, used := c.f.AppendSlot()
	slot[0] = opcode(CmdTXT)
	copy(slot[1:], text)
	return c.f.SetPayloadSize(used + 1 + len(text))
}

// CapabilityBeacon emplaces a CBCN command: a 16-bit capability bitmask
// followed by a 16-bit status word, both big-endian.
func (c *CommandBuilder) CapabilityBeacon(caps, status uint16) bool {
	const bodySize = 4
	if !c.fits(bodySize) {
		return false
	}
	slot, used := c.f.AppendSlot()
	slot[0] = opcode(CmdCBCN)
	putUint16(slot[1:], caps)
	putUint16(slot[3:], status)
	return c.f.SetPayloadSize(used + 1 + bodySize)
}
