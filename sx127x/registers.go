// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package sx127x

// Register addresses used by this driver. SPI framing adds the read/write
// bit on top (MSB clear to read, set to write); these are the bare
// addresses.
const (
	RegFIFO        = 0x00
	RegOpMode      = 0x01
	RegFrfMSB      = 0x06 // frequency, 3 registers, auto-incrementing
	RegFrfMID      = 0x07
	RegFrfLSB      = 0x08
	RegPAConfig    = 0x09
	RegPARamp      = 0x0A
	RegOCP         = 0x0B
	RegLNA         = 0x0C
	RegFIFOPtr     = 0x0D
	RegFIFOTxBase  = 0x0E
	RegFIFORxBase  = 0x0F
	RegFIFORxCurr  = 0x10
	RegIRQMask     = 0x11
	RegIRQFlags    = 0x12
	RegRxBytes     = 0x13
	RegModemStat   = 0x18
	RegPktSNR      = 0x19
	RegPktRSSI     = 0x1A
	RegCurrRSSI    = 0x1B
	RegHopChannel  = 0x1C
	RegModemConf1  = 0x1D
	RegModemConf2  = 0x1E
	RegSymbTimeout = 0x1F
	RegPreambleMSB = 0x20
	RegPreambleLSB = 0x21
	RegPayloadLen  = 0x22
	RegPayloadMax  = 0x23
	RegFIFORxLast  = 0x25
	RegModemConf3  = 0x26
	RegPPMCorr     = 0x27
	RegFEI         = 0x28
	RegDetectOpt   = 0x31
	RegIFFreq2     = 0x2F // erratum 2.3 override target
	RegSyncWord    = 0x39
	RegDetectThr   = 0x37
	RegDIOMapping1 = 0x40
	RegDIOMapping2 = 0x41
	RegVersion     = 0x42
	RegPADAC       = 0x4D
)

// SiliconRevision is the only REG_VERSION value this driver accepts; a
// mismatch means the SPI link isn't actually talking to an SX127x.
const SiliconRevision = 0x12

// Mode is the low-three-bits encoding of REG_OPMODE. Bit 7 of REG_OPMODE
// (LongRangeMode) is tracked separately and may only change while in
// ModeSleep.
type Mode byte

const (
	ModeSleep Mode = iota
	ModeStandby
	ModeFSTx
	ModeTx
	ModeFSRx
	ModeRxContinuous
	ModeRxSingle
	ModeCAD
)

const opModeLongRangeBit = 0x80 // LoRa mode, vs. FSK/OOK
const opModeModeMask = 0x07

// LoRa IRQ flag/mask bits (REG_IRQFLAGS, REG_IRQMASK).
const (
	IRQRxTimeout     = 1 << 7
	IRQRxDone        = 1 << 6
	IRQPayloadCRCErr = 1 << 5
	IRQValidHeader   = 1 << 4
	IRQTxDone        = 1 << 3
	IRQCadDone       = 1 << 2
	IRQFhssChangeChn = 1 << 1
	IRQCadDetected   = 1 << 0
)

// Signal is a logical DIO event, decoded from whichever pin raised and the
// 2-bit mapping field programmed for that pin.
type Signal int

const (
	SigNone Signal = iota
	SigModeRdy
	SigCadDetected
	SigCadDone
	SigFhssChgChnl
	SigRxTmout
	SigRxDone
	SigClkOut
	SigPllLock
	SigValidHdr
	SigTxDone
	SigPayldCrcErr
)

func (s Signal) String() string {
	switch s {
	case SigModeRdy:
		return "ModeRdy"
	case SigCadDetected:
		return "CadDetected"
	case SigCadDone:
		return "CadDone"
	case SigFhssChgChnl:
		return "FhssChgChnl"
	case SigRxTmout:
		return "RxTmout"
	case SigRxDone:
		return "RxDone"
	case SigClkOut:
		return "ClkOut"
	case SigPllLock:
		return "PllLock"
	case SigValidHdr:
		return "ValidHdr"
	case SigTxDone:
		return "TxDone"
	case SigPayldCrcErr:
		return "PayldCrcErr"
	default:
		return "None"
	}
}

// dioTable maps (pin, 2-bit mapping value) -> Signal, transcribed from the
// SX1276 datasheet's per-DIO mapping tables in LoRa mode.
var dioTable = [6][4]Signal{
	0: {SigRxDone, SigTxDone, SigCadDone, SigNone},            // DIO0
	1: {SigRxTmout, SigFhssChgChnl, SigCadDetected, SigNone},  // DIO1
	2: {SigFhssChgChnl, SigFhssChgChnl, SigFhssChgChnl, SigNone}, // DIO2
	3: {SigCadDone, SigValidHdr, SigPayldCrcErr, SigNone},     // DIO3
	4: {SigCadDetected, SigPllLock, SigPllLock, SigPllLock},   // DIO4
	5: {SigModeRdy, SigClkOut, SigClkOut, SigClkOut},          // DIO5
}

// decodeDIO translates a pin index (0..5) and its currently-applied 2-bit
// mapping value into a logical Signal.
func decodeDIO(pin int, value byte) Signal {
	if pin < 0 || pin > 5 || value > 3 {
		panic("sx127x: DIO signal index out of range")
	}
	return dioTable[pin][value]
}

// Bandwidth is the LoRa modem bandwidth, encoded in the top nibble of
// REG_MODEMCONF1.
type Bandwidth byte

const (
	BW7_8 Bandwidth = iota
	BW10_4
	BW15_6
	BW20_8
	BW31_25
	BW41_7
	BW62_5
	BW125
	BW250
	BW500
)

// erratumIFOverride returns the erratum 2.3 override byte for RegIFFreq2,
// and whether the bandwidth requires the override at all (false at and
// above 500kHz, where auto-IF-on is used instead).
func erratumIFOverride(bw Bandwidth) (value byte, needed bool) {
	switch bw {
	case BW7_8:
		return 0x48, true
	case BW10_4, BW15_6, BW20_8, BW31_25, BW41_7:
		return 0x44, true
	case BW62_5, BW125, BW250:
		return 0x40, true
	default: // BW500 and above
		return 0, false
	}
}

// erratumFreqOffsetHz returns the erratum 2.3 frequency offset to add to
// the carrier before writing REG_FRF*, in Hz.
func erratumFreqOffsetHz(bw Bandwidth) uint32 {
	switch bw {
	case BW7_8:
		return 7810
	case BW10_4:
		return 10420
	case BW15_6:
		return 15620
	case BW20_8:
		return 20830
	case BW31_25:
		return 31250
	case BW41_7:
		return 41670
	default:
		return 0
	}
}
