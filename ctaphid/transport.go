package ctaphid

import "log/slog"

// Dispatcher executes a decoded CTAP2 request and returns response bytes,
// status-prefixed. fido.Authenticator.CBOR satisfies this.
type Dispatcher interface {
	CBOR(request []byte) []byte
}

// EventHandler reacts to a completed non-CBOR, non-framing message
// (CTAPHID_WINK, CTAPHID_CANCEL, CTAPHID_MSG, CTAPHID_LOCK): CTAPHID
// leaves these undefined beyond delivery to the caller.
// Implementations may return packets to emit in response, or nil for none.
type EventHandler interface {
	HandleEvent(msg Message) []Packet
}

// EventHandlerFunc adapts a plain function to EventHandler.
type EventHandlerFunc func(msg Message) []Packet

// HandleEvent calls f.
func (f EventHandlerFunc) HandleEvent(msg Message) []Packet { return f(msg) }

// Transport wires a Framer to a Dispatcher: it consumes inbound HID
// packets and produces outbound ones, synchronously and without I/O of its
// own, single-threaded and cooperative like the Framer it wraps. The
// physical HID transport is entirely the caller's responsibility.
//
// Routing per completed message:
//   - CTAPHID_INIT and CTAPHID_ERROR completions are already fully formed
//     by the Framer and are emitted back to the wire unchanged.
//   - CTAPHID_PING is echoed: its payload is emitted back verbatim.
//   - CTAPHID_CBOR payloads are decoded and routed through Dispatcher; the
//     status-prefixed result is re-split and emitted as a CBOR response.
//   - CTAPHID_WINK, CTAPHID_CANCEL, CTAPHID_MSG, CTAPHID_LOCK are left
//     undefined at this layer and are handed to the optional
//     EventHandler; with none configured they produce no outbound
//     packets.
type Transport struct {
	framer       *Framer
	dispatcher   Dispatcher
	eventHandler EventHandler
	logger       *slog.Logger
}

// NewTransport builds a Transport over framer and dispatcher.
func NewTransport(framer *Framer, dispatcher Dispatcher, opts ...TransportOption) *Transport {
	t := &Transport{framer: framer, dispatcher: dispatcher, logger: slog.Default()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// TransportOption configures a Transport at construction time.
type TransportOption func(*Transport)

// WithTransportLogger attaches a structured logger used for observability
// only.
func WithTransportLogger(l *slog.Logger) TransportOption {
	return func(t *Transport) { t.logger = l }
}

// WithEventHandler attaches the handler for WINK/CANCEL/MSG/LOCK
// completions.
func WithEventHandler(h EventHandler) TransportOption {
	return func(t *Transport) { t.eventHandler = h }
}

// HandlePacket feeds one inbound HID packet through the framer and routes
// whatever message, if any, that completes. A still-assembling message
// yields no packets.
func (t *Transport) HandlePacket(packet []byte) []Packet {
	msg, ready := t.framer.Handle(packet)
	if !ready {
		return nil
	}

	switch msg.Cmd {
	case CommandInit, CommandError:
		return Emit(msg.Cmd, msg.CID, msg.Payload)
	case CommandPing:
		return Emit(CommandPing, msg.CID, msg.Payload)
	case CommandCBOR:
		resp := t.dispatcher.CBOR(msg.Payload)
		return Emit(CommandCBOR, msg.CID, resp)
	default:
		if t.eventHandler == nil {
			t.logger.Debug("ctaphid: unhandled event command", slog.Int("cmd", int(msg.Cmd)))
			return nil
		}
		return t.eventHandler.HandleEvent(msg)
	}
}
