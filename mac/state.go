// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package mac

import (
	"github.com/heymacradio/heymac/frame"
	"github.com/heymacradio/heymac/sx127x"
)

// state is one of the MAC's five operating states.
type state int

const (
	stateIniting state = iota
	stateSetting
	stateLstning
	stateRxing
	stateTxing
)

func (s state) String() string {
	switch s {
	case stateIniting:
		return "Initing"
	case stateSetting:
		return "Setting"
	case stateLstning:
		return "Lstning"
	case stateRxing:
		return "Rxing"
	case stateTxing:
		return "Txing"
	default:
		return "?"
	}
}

// result reports what a state handler did with the event word it was
// given: ignored it, handled it without changing state, or transitioned
// (in which case dispatch re-enters the new state with a synthetic
// SM_ENTER).
type result int

const (
	resultIgnored result = iota
	resultHandled
	resultTran
)

// Event flag bits, accumulated in Mac.flags between trips through
// waitFlags and cleared as a batch each time. flagSMEnter is synthetic:
// it never comes from setFlags, only from dispatch's own re-entry.
const (
	flagInit uint32 = 1 << iota
	flagTerm
	flagSMEnter
	flagPrdc
	flagBtn
	flagTxRdy
	flagDioModeRdy
	flagDioCadDetected
	flagDioCadDone
	flagDioFhssChgChnl
	flagDioRxTmout
	flagDioRxDone
	flagDioClkOut
	flagDioPllLock
	flagDioValidHdr
	flagDioTxDone
	flagDioPayldCrcErr
)

// dioFlag maps a decoded DIO Signal to its flag bit; SigNone (and any
// signal this layer doesn't act on) maps to 0, which setFlags ignores.
func dioFlag(sig sx127x.Signal) uint32 {
	switch sig {
	case sx127x.SigModeRdy:
		return flagDioModeRdy
	case sx127x.SigCadDetected:
		return flagDioCadDetected
	case sx127x.SigCadDone:
		return flagDioCadDone
	case sx127x.SigFhssChgChnl:
		return flagDioFhssChgChnl
	case sx127x.SigRxTmout:
		return flagDioRxTmout
	case sx127x.SigRxDone:
		return flagDioRxDone
	case sx127x.SigClkOut:
		return flagDioClkOut
	case sx127x.SigPllLock:
		return flagDioPllLock
	case sx127x.SigValidHdr:
		return flagDioValidHdr
	case sx127x.SigTxDone:
		return flagDioTxDone
	case sx127x.SigPayldCrcErr:
		return flagDioPayldCrcErr
	default:
		return 0
	}
}

// DIO mapping values used below, per the Dio*Mapping field descriptions:
// DIO0 selects RxDone (0) or TxDone (1); DIO1's 0 selects RxTimeout;
// DIO3's 1 selects ValidHeader.
const (
	dio0RxDone   = 0
	dio0TxDone   = 1
	dio1RxTmout  = 0
	dio3ValidHdr = 1
)

// allIRQBits covers every bit REG_IRQFLAGS/REG_IRQMASK define.
const allIRQBits = sx127x.IRQRxTimeout | sx127x.IRQRxDone | sx127x.IRQPayloadCRCErr |
	sx127x.IRQValidHeader | sx127x.IRQTxDone | sx127x.IRQCadDone |
	sx127x.IRQFhssChangeChn | sx127x.IRQCadDetected

// handleIniting waits for the one-time INIT event (posted by run() right
// after Start) and moves straight to Setting. Identity parsing and radio
// bring-up happen before Start is ever called -- sx127x.New already runs
// the reset/silicon-revision/sleep-gated-defaults sequence -- so there is
// nothing left for this state to do but hand off.
func (m *Mac) handleIniting(f uint32) result {
	if f&flagInit == 0 {
		return resultIgnored
	}
	m.state = stateSetting
	return resultTran
}

// handleSetting drives the radio to whatever Standby-time configuration
// the next state needs, putting the radio through Sleep first if any
// Sleep-gated field is dirty.
func (m *Mac) handleSetting(f uint32) result {
	if f&flagSMEnter != 0 {
		if m.radio.Settings().RequireSleep() {
			if err := m.radio.SetMode(sx127x.ModeSleep); err != nil {
				m.log("mac: Setting: enter sleep: %v", err)
			}
			return resultHandled
		}
		return m.settingProceed()
	}
	if f&flagDioModeRdy != 0 {
		if err := m.radio.WriteSleepStngs(); err != nil {
			m.log("mac: Setting: write sleep settings: %v", err)
		}
		return m.settingProceed()
	}
	return resultIgnored
}

// settingProceed is the second half of Setting: reach Standby, decide
// whether the next state is Txing (queue non-empty) or Lstning, program
// the DIO mapping that state needs, and apply the non-sleep settings.
func (m *Mac) settingProceed() result {
	if err := m.radio.SetMode(sx127x.ModeStandby); err != nil {
		m.log("mac: Setting: enter standby: %v", err)
	}

	if len(m.txQueue) > 0 {
		m.radio.Settings().Set(sx127x.FieldDio0Mapping, dio0TxDone)
		if err := m.radio.WriteStngs(false); err != nil {
			m.log("mac: Setting: write settings (tx): %v", err)
		}
		m.state = stateTxing
		return resultTran
	}

	m.radio.Settings().Set(sx127x.FieldDio0Mapping, dio0RxDone)
	m.radio.Settings().Set(sx127x.FieldDio1Mapping, dio1RxTmout)
	m.radio.Settings().Set(sx127x.FieldDio3Mapping, dio3ValidHdr)
	if err := m.radio.WriteStngs(true); err != nil {
		m.log("mac: Setting: write settings (rx): %v", err)
	}
	m.state = stateLstning
	return resultTran
}

// handleLstning enters RX, samples RSSI on every periodic tick, services
// button presses, and transitions out on a ready TX job or on the start
// of an incoming header.
func (m *Mac) handleLstning(f uint32) result {
	if f&flagSMEnter != 0 {
		enable := uint32(sx127x.IRQRxDone | sx127x.IRQPayloadCRCErr | sx127x.IRQValidHeader)
		disable := uint32(allIRQBits) &^ enable
		if err := m.radio.WriteLoRaIRQMask(byte(disable), byte(enable)); err != nil {
			m.log("mac: Lstning: irq mask: %v", err)
		}
		if err := m.radio.WriteLoRaIRQFlags(byte(enable)); err != nil {
			m.log("mac: Lstning: ack irq flags: %v", err)
		}
		if err := m.radio.WriteFIFOPtr(0); err != nil {
			m.log("mac: Lstning: fifo ptr: %v", err)
		}
		if err := m.radio.SetMode(sx127x.ModeRxContinuous); err != nil {
			m.log("mac: Lstning: enter rx: %v", err)
		}
		return resultHandled
	}

	if f&flagDioValidHdr != 0 {
		m.state = stateRxing
		return resultTran
	}
	if f&flagTxRdy != 0 {
		if err := m.radio.SetMode(sx127x.ModeStandby); err != nil {
			m.log("mac: Lstning: leave rx for tx: %v", err)
		}
		m.state = stateSetting
		return resultTran
	}

	handled := false
	if f&flagPrdc != 0 {
		m.sampleEntropy()
		handled = true
	}
	if f&flagBtn != 0 {
		m.enqueueOperatorIDFrame()
		handled = true
	}
	if handled {
		return resultHandled
	}
	return resultIgnored
}

// handleRxing waits for RxDone, pulls the frame out of the FIFO, parses
// it, and hands it to the configured receive callback before cycling
// back through Setting.
func (m *Mac) handleRxing(f uint32) result {
	if f&flagDioRxDone == 0 {
		return resultIgnored
	}
	payload, snr, rssi, err := m.radio.ReadRxPacket()
	if err != nil {
		m.log("mac: Rxing: read: %v", err)
	} else if fr, perr := frame.Parse(payload); perr != nil {
		m.log("mac: Rxing: parse: %v", perr)
	} else if m.onReceive != nil {
		m.onReceive(fr, snr, rssi)
	}
	m.state = stateSetting
	return resultTran
}

// handleTxing enters TX by masking everything but TxDone, popping the
// head of the queue into the FIFO, and commanding Tx; it cycles back to
// Setting once TxDone fires.
func (m *Mac) handleTxing(f uint32) result {
	if f&flagSMEnter != 0 {
		disable := uint32(allIRQBits) &^ uint32(sx127x.IRQTxDone)
		if err := m.radio.WriteLoRaIRQMask(byte(disable), byte(sx127x.IRQTxDone)); err != nil {
			m.log("mac: Txing: irq mask: %v", err)
		}
		if err := m.radio.WriteLoRaIRQFlags(byte(sx127x.IRQTxDone)); err != nil {
			m.log("mac: Txing: ack irq flags: %v", err)
		}
		if err := m.radio.WriteFIFOPtr(0); err != nil {
			m.log("mac: Txing: fifo ptr: %v", err)
		}

		entry, ok := m.popTxQueue()
		if !ok {
			m.log("mac: Txing entered with an empty queue")
			m.state = stateSetting
			return resultTran
		}
		m.pendingTx = entry.frame
		if err := m.radio.WriteFIFO(entry.frame.Buffer()); err != nil {
			m.log("mac: Txing: write fifo: %v", err)
		}
		if err := m.radio.SetMode(sx127x.ModeTx); err != nil {
			m.log("mac: Txing: enter tx: %v", err)
		}
		return resultHandled
	}

	if f&flagDioTxDone != 0 {
		if m.pendingTx != nil {
			m.pendingTx.Destroy()
			m.pendingTx = nil
		}
		m.state = stateSetting
		return resultTran
	}
	return resultIgnored
}
