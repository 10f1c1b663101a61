// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// Package mac implements the HeyMac data-link MAC: an event-flag-driven
// state machine that owns one sx127x.Radio, cycles it between Setting,
// Lstning, Rxing and Txing, and moves frame.Frame values between a TX
// queue and the air. It knows the frame and radio layers only through
// their public APIs; this is the layer that ties them together, the way
// the teacher's sx1276.Sx1276 ties its register layer to its worker
// goroutine.
package mac

import (
	"sync"
	"sync/atomic"

	"github.com/heymacradio/heymac/frame"
	"github.com/heymacradio/heymac/rtthread"
	"github.com/heymacradio/heymac/sx127x"
)

// LogPrintf matches sx127x.LogPrintf's shape so callers can share one
// logger across the radio and the MAC.
type LogPrintf func(format string, v ...interface{})

func noopLog(string, ...interface{}) {}

// TxQueueCnt is the depth of the outbound frame queue. Exhaustion is
// back-pressure: Enqueue returns false rather than blocking the caller.
const TxQueueCnt = 4

// entropyCap bounds the RSSI-sample entropy pool the Lstning state feeds
// on every periodic tick; old samples are dropped once it fills.
const entropyCap = 64

type txEntry struct {
	frame  *frame.Frame
	atTime int64 // ms epoch; 0 means "as soon as Setting is reached"
}

// Opts configures a Mac at construction time.
type Opts struct {
	Pool       *frame.Pool      // required; frame buffers for the OperatorID TXT frames a button press queues (received frames are allocated by frame.Parse)
	OperatorID string           // carried in the TXT frame a button press queues
	Logger     LogPrintf        // optional; defaults to a no-op
	OnReceive  func(f *frame.Frame, snr, rssi int) // optional; called from the MAC goroutine on RxDone
}

// Mac drives one radio through the Initing/Setting/Lstning/Rxing/Txing
// cycle. The radio is attached after construction (AttachRadio) because
// the radio's DIO callback must point at OnDIOSignal before the radio
// itself exists -- a one-directional dependency, not a cycle: the Radio
// never holds anything but a func value back into the Mac.
type Mac struct {
	radio *sx127x.Radio
	pool  *frame.Pool

	operatorID string
	log        LogPrintf
	onReceive  func(f *frame.Frame, snr, rssi int)

	flags uint32
	wake  chan struct{}

	state      state
	txQueue    chan txEntry
	pendingTx  *frame.Frame

	entropyMu sync.Mutex
	entropy   []byte

	done chan struct{}
}

// New returns a Mac in state Initing, not yet started and not yet
// attached to a Radio.
func New(opts Opts) *Mac {
	if opts.Pool == nil {
		panic("mac: Opts.Pool is required")
	}
	m := &Mac{
		pool:       opts.Pool,
		operatorID: opts.OperatorID,
		log:        noopLog,
		onReceive:  opts.OnReceive,
		wake:       make(chan struct{}, 1),
		state:      stateIniting,
		txQueue:    make(chan txEntry, TxQueueCnt),
		done:       make(chan struct{}),
	}
	if opts.Logger != nil {
		m.log = opts.Logger
	}
	return m
}

// AttachRadio binds the Radio this Mac drives. Call it after constructing
// the Radio with RadioOpts.OnSignal set to m.OnDIOSignal.
func (m *Mac) AttachRadio(r *sx127x.Radio) { m.radio = r }

// OnDIOSignal is the callback to pass as sx127x.RadioOpts.OnSignal. It
// only sets a flag bit and wakes the state machine; all register access
// happens later, on the Mac's own goroutine.
func (m *Mac) OnDIOSignal(sig sx127x.Signal) {
	if f := dioFlag(sig); f != 0 {
		m.setFlags(f)
	}
}

// NotifyButton posts a button-press event, handled in the Lstning state
// by queuing an operator-id text frame.
func (m *Mac) NotifyButton() { m.setFlags(flagBtn) }

// Enqueue submits fr for transmission. atTimeMs is advisory and currently
// only distinguishes "now" (0, wakes the state machine immediately) from
// "later" (checked the next time Setting is reached for any other
// reason); there is no internal timer. Enqueue reports false, without
// blocking, if the queue is full -- the caller owns fr and may retry or
// drop it.
func (m *Mac) Enqueue(fr *frame.Frame, atTimeMs int64) bool {
	select {
	case m.txQueue <- txEntry{frame: fr, atTime: atTimeMs}:
		if atTimeMs == 0 {
			m.setFlags(flagTxRdy)
		}
		return true
	default:
		return false
	}
}

// Start runs the state machine on its own goroutine until Stop is called.
func (m *Mac) Start() {
	go m.run()
}

// Stop requests the state machine goroutine to exit; Join waits for it.
func (m *Mac) Stop() { m.setFlags(flagTerm) }

// Join blocks until the state machine goroutine has exited.
func (m *Mac) Join() { <-m.done }

// Entropy returns (and clears) the RSSI-derived entropy pool accumulated
// in Lstning, for a caller that seeds a PRNG or key material from it.
func (m *Mac) Entropy() []byte {
	m.entropyMu.Lock()
	defer m.entropyMu.Unlock()
	out := m.entropy
	m.entropy = nil
	return out
}

func (m *Mac) run() {
	if err := rtthread.Realtime(); err != nil {
		m.log("mac: realtime scheduling unavailable, continuing on a normal thread: %v", err)
	}
	m.setFlags(flagInit)
	for {
		f := m.waitFlags()
		if f&flagTerm != 0 {
			break
		}
		m.dispatch(f)
	}
	close(m.done)
}

// dispatch runs f through the current state's handler, re-entering with
// a synthetic SM_ENTER event for as long as the handler keeps
// transitioning -- so the entry action of each new state runs without a
// second trip through waitFlags (e.g. INIT carries Initing -> Setting ->
// Lstning in one call). A Setting pass that must go through Sleep returns
// after commanding Sleep and resumes when ModeRdy arrives via waitFlags.
func (m *Mac) dispatch(f uint32) {
	for {
		result := m.handle(f)
		if result != resultTran {
			return
		}
		f = flagSMEnter
	}
}

func (m *Mac) handle(f uint32) result {
	switch m.state {
	case stateIniting:
		return m.handleIniting(f)
	case stateSetting:
		return m.handleSetting(f)
	case stateLstning:
		return m.handleLstning(f)
	case stateRxing:
		return m.handleRxing(f)
	case stateTxing:
		return m.handleTxing(f)
	default:
		panic("mac: unknown state")
	}
}

func (m *Mac) setFlags(bits uint32) {
	for {
		old := atomic.LoadUint32(&m.flags)
		if atomic.CompareAndSwapUint32(&m.flags, old, old|bits) {
			break
		}
	}
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// waitFlags blocks until at least one flag is pending, then atomically
// takes (and clears) the whole word.
func (m *Mac) waitFlags() uint32 {
	for {
		old := atomic.SwapUint32(&m.flags, 0)
		if old != 0 {
			return old
		}
		<-m.wake
	}
}

func (m *Mac) popTxQueue() (txEntry, bool) {
	select {
	case e := <-m.txQueue:
		return e, true
	default:
		return txEntry{}, false
	}
}

// enqueueOperatorIDFrame is the Lstning state's BTN handler: it builds a
// TXT frame carrying the operator id and queues it for the next Setting
// pass. A pool exhaustion or oversize id is logged and dropped rather
// than blocking the state machine.
func (m *Mac) enqueueOperatorIDFrame() {
	fr, ok := m.pool.Acquire()
	if !ok {
		m.log("mac: button press dropped, frame pool exhausted")
		return
	}
	fr.SetProtocol(frame.ProtoCSMAv0)
	if !frame.NewCommandBuilder(fr).Text([]byte(m.operatorID)) {
		m.log("mac: operator id %q too long for one frame", m.operatorID)
		fr.Destroy()
		return
	}
	if !m.Enqueue(fr, 0) {
		m.log("mac: button press dropped, tx queue full")
		fr.Destroy()
	}
}

func (m *Mac) sampleEntropy() {
	b, err := m.radio.ReadCurrentRSSI()
	if err != nil {
		return
	}
	m.entropyMu.Lock()
	defer m.entropyMu.Unlock()
	if len(m.entropy) >= entropyCap {
		m.entropy = m.entropy[1:]
	}
	m.entropy = append(m.entropy, b&0x01)
}
