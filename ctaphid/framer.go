package ctaphid

import (
	"io"
	"log/slog"
	"time"
)

// frameState tags which half of the Idle/Assembling tagged record the
// Framer currently occupies.
type frameState int

const (
	stateIdle frameState = iota
	stateAssembling
)

// assembly holds the fields of the Assembling variant of the framer state.
type assembly struct {
	cid      Channel
	cmd      Command
	bcnt     uint16
	received []byte
	seqLast  int // -1 means "no continuation packet seen yet"
	beginTS  time.Time
}

// MetricsReporter receives framer-level observability events. A nil
// MetricsReporter is never stored on a Framer: WithMetrics ignores a nil
// argument, leaving the no-op default in place.
type MetricsReporter interface {
	// ObserveMessageCompleted records a completed CTAPHID message for cmd.
	ObserveMessageCompleted(cmd byte)
	// ObserveFramingError records a CTAPHID_ERROR completion with the given
	// error code.
	ObserveFramingError(code byte)
	// ObserveChannelAllocated records one new channel id allocation.
	ObserveChannelAllocated()
}

type noopMetrics struct{}

func (noopMetrics) ObserveMessageCompleted(byte) {}
func (noopMetrics) ObserveFramingError(byte)     {}
func (noopMetrics) ObserveChannelAllocated()     {}

// Framer reassembles inbound CTAPHID packets into complete messages;
// outbound messages are split into packets by Emit. One Framer owns one set of
// allocated channel identifiers for its lifetime; it is not safe for
// concurrent use without an external lock.
type Framer struct {
	allocated map[Channel]struct{}
	state     frameState
	asm       assembly

	clock   Clock
	source  channelSource
	logger  *slog.Logger
	metrics MetricsReporter

	versionMajor byte
	versionMinor byte
	buildNumber  byte
}

// Option configures a Framer at construction time, following this
// package's functional-options convention.
type Option func(*Framer)

// WithClock overrides the Framer's time source. Defaults to the system
// clock.
func WithClock(c Clock) Option {
	return func(f *Framer) { f.clock = c }
}

// WithChannelSource overrides the entropy source used to allocate new
// channel identifiers. Defaults to crypto/rand.
func WithChannelSource(s channelSource) Option {
	return func(f *Framer) { f.source = s }
}

// WithLogger attaches a structured logger used for observability only; no
// framer decision depends on logging having happened.
func WithLogger(l *slog.Logger) Option {
	return func(f *Framer) { f.logger = l }
}

// WithDeviceVersion sets the major/minor/build version reported in INIT
// responses. Defaults to 0xCA, 0xFE, 0x01.
func WithDeviceVersion(major, minor, build byte) Option {
	return func(f *Framer) {
		f.versionMajor = major
		f.versionMinor = minor
		f.buildNumber = build
	}
}

// WithMetrics attaches a MetricsReporter to the Framer. If m is nil, the
// default no-op reporter is used.
func WithMetrics(m MetricsReporter) Option {
	return func(f *Framer) {
		if m != nil {
			f.metrics = m
		}
	}
}

// NewFramer returns a Framer in the Idle state with no allocated channels.
func NewFramer(opts ...Option) *Framer {
	f := &Framer{
		allocated:    make(map[Channel]struct{}),
		state:        stateIdle,
		clock:        systemClock{},
		source:       defaultChannelSource,
		logger:       slog.Default(),
		metrics:      noopMetrics{},
		versionMajor: 0xCA,
		versionMinor: 0xFE,
		buildNumber:  0x01,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// IsBroadcast reports whether cid is the reserved broadcast channel.
func (f *Framer) IsBroadcast(cid Channel) bool {
	return cid == BroadcastChannel
}

// IsValid reports whether cid is broadcast or currently allocated.
func (f *Framer) IsValid(cid Channel) bool {
	if f.IsBroadcast(cid) {
		return true
	}
	_, ok := f.allocated[cid]
	return ok
}

// Handle feeds one inbound packet into the reassembly state machine. ready
// is true when a message (successful or a framing ERROR) is complete;
// Handle returns the zero Message with ready=false while a multi-packet
// message is still being assembled.
func (f *Framer) Handle(packet []byte) (msg Message, ready bool) {
	now := f.clock.Now()
	if f.state == stateAssembling && now.Sub(f.asm.beginTS) > reassemblyTimeout {
		f.logTimeout()
		f.resetToIdle()
	}

	if f.state == stateIdle {
		return f.handleIdle(packet)
	}
	return f.handleAssembling(packet)
}

func (f *Framer) handleIdle(packet []byte) (Message, bool) {
	if len(packet) < 7 {
		return f.fail(ErrOther, BroadcastChannel)
	}
	if packet[4]&0x80 == 0 {
		return f.fail(ErrInvalidCmd, BroadcastChannel)
	}

	var cid Channel
	copy(cid[:], packet[0:4])
	cmd := Command(packet[4] & 0x7F)
	bcnt := uint16(packet[5])<<8 | uint16(packet[6])

	if !f.IsValid(cid) {
		return f.fail(ErrInvalidChannel, cid)
	}

	payload := packet[7:]
	if int(bcnt) < len(payload) {
		payload = payload[:bcnt]
	}
	received := make([]byte, len(payload), bcnt)
	copy(received, payload)

	f.state = stateAssembling
	f.asm = assembly{
		cid:      cid,
		cmd:      cmd,
		bcnt:     bcnt,
		received: received,
		seqLast:  -1,
		beginTS:  f.clock.Now(),
	}

	if uint16(len(f.asm.received)) >= bcnt {
		return f.completeAssembly()
	}
	return Message{}, false
}

func (f *Framer) handleAssembling(packet []byte) (Message, bool) {
	if len(packet) < 5 {
		return f.fail(ErrOther, f.asm.cid)
	}
	if packet[4]&0x80 != 0 {
		return f.fail(ErrInvalidCmd, f.asm.cid)
	}

	var cid Channel
	copy(cid[:], packet[0:4])
	if cid != f.asm.cid {
		return f.fail(ErrChannelBusy, f.asm.cid)
	}

	seq := int(packet[4])
	if f.asm.seqLast == -1 {
		if seq != 0 {
			return f.fail(ErrInvalidSeq, f.asm.cid)
		}
	} else if seq != f.asm.seqLast+1 {
		return f.fail(ErrInvalidSeq, f.asm.cid)
	}

	// Only the bytes bcnt still needs are appended. The rest of the packet
	// must be zero padding; a non-zero byte past bcnt is an overshoot and is
	// rejected rather than silently dropped.
	chunk := packet[5:]
	if need := int(f.asm.bcnt) - len(f.asm.received); len(chunk) > need {
		for _, b := range chunk[need:] {
			if b != 0 {
				return f.fail(ErrInvalidLen, f.asm.cid)
			}
		}
		chunk = chunk[:need]
	}
	f.asm.received = append(f.asm.received, chunk...)
	f.asm.seqLast = seq

	if uint16(len(f.asm.received)) >= f.asm.bcnt {
		return f.completeAssembly()
	}
	return Message{}, false
}

// completeAssembly finalizes an in-progress message once enough payload
// bytes have arrived.
func (f *Framer) completeAssembly() (Message, bool) {
	asm := f.asm

	// Require exact equality between delivered and declared length rather
	// than silently truncating an overshoot.
	if uint16(len(asm.received)) != asm.bcnt {
		return f.fail(ErrInvalidLen, asm.cid)
	}

	if asm.cmd == CommandInit {
		if !f.IsValid(asm.cid) {
			return f.fail(ErrInvalidChannel, asm.cid)
		}
	} else if f.IsBroadcast(asm.cid) || !f.IsValid(asm.cid) {
		return f.fail(ErrInvalidChannel, asm.cid)
	}

	payload := asm.received[:asm.bcnt]
	f.resetToIdle()

	f.metrics.ObserveMessageCompleted(byte(asm.cmd))

	if asm.cmd == CommandInit {
		return f.buildInitResponse(asm.cid, payload)
	}

	return Message{CID: asm.cid, Cmd: asm.cmd, Payload: payload}, true
}

// buildInitResponse synthesizes the 17-byte INIT response: nonce echo,
// channel id, protocol version, device version, capability flags. A
// broadcast request allocates a fresh channel; a request on an
// already-allocated channel echoes it back unchanged.
func (f *Framer) buildInitResponse(cid Channel, payload []byte) (Message, bool) {
	respCID := cid
	if f.IsBroadcast(cid) {
		respCID = f.allocateChannel()
	}

	nonce := make([]byte, 8)
	copy(nonce, payload) // payload shorter than 8 bytes zero-pads the rest

	resp := make([]byte, 0, 17)
	resp = append(resp, nonce...)
	resp = append(resp, respCID[:]...)
	resp = append(resp,
		protocolVersion,
		f.versionMajor,
		f.versionMinor,
		f.buildNumber,
		capWink|capCBOR|capNMSG,
	)

	return Message{CID: cid, Cmd: CommandInit, Payload: resp}, true
}

// allocateChannel draws a fresh 4-byte channel id from the configured
// entropy source, records it as allocated, and returns it. Allocated
// channels are never released during the Framer's lifetime.
func (f *Framer) allocateChannel() Channel {
	var cid Channel
	for {
		if _, err := io.ReadFull(f.source, cid[:]); err != nil {
			// The only channelSource shipped that can fail this way is a
			// ScriptedSource run past its script with no values at all;
			// crypto/rand.Reader never errs in practice. Fall back to the
			// zero channel rather than panicking mid protocol operation.
			break
		}
		if cid != BroadcastChannel {
			break
		}
	}
	f.allocated[cid] = struct{}{}
	f.metrics.ObserveChannelAllocated()
	return cid
}

// fail centralizes CTAPHID error construction: every framing error resets
// state to Idle and is delivered as an ordinary completed message with
// Cmd=CommandError and a single-byte payload holding the error code.
func (f *Framer) fail(code ErrorCode, cid Channel) (Message, bool) {
	f.resetToIdle()
	if f.logger != nil {
		f.logger.Debug("ctaphid framing error", slog.Int("code", int(code)))
	}
	f.metrics.ObserveFramingError(byte(code))
	return Message{CID: cid, Cmd: CommandError, Payload: []byte{byte(code)}}, true
}

func (f *Framer) resetToIdle() {
	f.state = stateIdle
	f.asm = assembly{}
}

func (f *Framer) logTimeout() {
	if f.logger != nil {
		f.logger.Debug("ctaphid reassembly timeout", slog.Duration("budget", reassemblyTimeout))
	}
}
