// Package fido implements the CTAP2 command dispatcher: it owns an
// authenticator's reported settings and its table of registered command
// handlers, decodes CBOR request arguments, and serves authenticatorGetInfo
// directly.
package fido

import (
	"log/slog"

	"github.com/argon-chat/fidocore/cbor"
)

// Status bytes per the CTAP2 response envelope: every response begins
// with one of these, success or otherwise.
const (
	StatusSuccess           byte = 0x00
	StatusErrInvalidCommand byte = 0x01
	StatusErrInvalidLength  byte = 0x03
	StatusErrInvalidCBOR    byte = 0x12
	StatusErrOther          byte = 0x7F
)

// CommandGetInfo is the command byte authenticatorGetInfo is served under;
// it is handled by the Authenticator directly and cannot be overridden by
// a registered Handler.
const CommandGetInfo byte = 0x04

// MetricsReporter receives dispatch-level observability events. A nil
// MetricsReporter is never stored on an Authenticator: WithMetrics ignores
// a nil argument, leaving the no-op default in place.
type MetricsReporter interface {
	// ObserveDispatch records one CTAP2 command dispatched, successful or
	// not.
	ObserveDispatch(command byte)
}

type noopMetrics struct{}

func (noopMetrics) ObserveDispatch(byte) {}

// Handler is a single CTAP2 command implementation. Handle receives the
// decoded CBOR argument of a request (the empty Map when the request
// carried no argument bytes) and returns a ready-to-send response,
// including the leading status byte. The Authenticator never rewrites a
// Handler's output.
type Handler interface {
	Handle(argument cbor.Value) ([]byte, error)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(argument cbor.Value) ([]byte, error)

// Handle calls f.
func (f HandlerFunc) Handle(argument cbor.Value) ([]byte, error) { return f(argument) }

// Authenticator routes decoded CTAP2 requests to registered Handlers and
// serves authenticatorGetInfo from its Settings. It is safe for concurrent
// reads once constructed; registering handlers after the first call to
// CBOR is not supported.
type Authenticator struct {
	settings Settings
	handlers map[byte]Handler
	logger   *slog.Logger
	metrics  MetricsReporter
}

// New constructs an Authenticator reporting settings and with no handlers
// registered beyond authenticatorGetInfo.
func New(settings Settings, opts ...Option) *Authenticator {
	a := &Authenticator{
		settings: settings,
		handlers: make(map[byte]Handler),
		logger:   slog.Default(),
		metrics:  noopMetrics{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Option configures an Authenticator at construction time.
type Option func(*Authenticator)

// WithLogger attaches a structured logger used for observability only.
func WithLogger(l *slog.Logger) Option {
	return func(a *Authenticator) { a.logger = l }
}

// WithMetrics attaches a MetricsReporter to the Authenticator. If m is nil,
// the default no-op reporter is used.
func WithMetrics(m MetricsReporter) Option {
	return func(a *Authenticator) {
		if m != nil {
			a.metrics = m
		}
	}
}

// Handle registers h under command. It panics if command is already
// registered or is CommandGetInfo, which the Authenticator always serves
// itself — mirroring this module's fail-fast registration idiom for
// programmer errors detected at setup time rather than at request time.
func (a *Authenticator) Handle(command byte, h Handler) {
	if command == CommandGetInfo {
		panic("fido: command 0x04 (authenticatorGetInfo) is reserved")
	}
	if _, exists := a.handlers[command]; exists {
		panic("fido: duplicate handler registration")
	}
	a.handlers[command] = h
}

// MustHandle registers fn (adapted via HandlerFunc) under command.
func (a *Authenticator) MustHandle(command byte, fn HandlerFunc) {
	a.Handle(command, fn)
}

// CBOR executes one CTAP2 request (command byte followed by optional CBOR
// argument bytes) and returns the response bytes, always beginning with a
// status byte. CBOR never returns a Go error: every failure mode is
// expressed as a status-prefixed response.
func (a *Authenticator) CBOR(request []byte) []byte {
	if len(request) == 0 {
		return []byte{StatusErrInvalidLength}
	}

	command := request[0]

	argument := cbor.Value(cbor.Map(nil))
	if len(request) > 1 {
		v, _, err := cbor.Decode(request[1:])
		if err != nil {
			a.logger.Debug("fido: invalid cbor argument", slog.Any("err", err))
			return []byte{StatusErrInvalidCBOR}
		}
		argument = v
	}

	if command == CommandGetInfo {
		a.metrics.ObserveDispatch(command)
		return a.getInfo()
	}

	if h, ok := a.handlers[command]; ok {
		a.metrics.ObserveDispatch(command)
		resp, err := h.Handle(argument)
		if err != nil {
			a.logger.Debug("fido: handler error", slog.Int("command", int(command)), slog.Any("err", err))
			return []byte{StatusErrOther}
		}
		return resp
	}

	return []byte{StatusErrInvalidCommand}
}

// getInfo builds the authenticatorGetInfo response: status 0x00 followed
// by the canonical CBOR encoding of the settings map.
func (a *Authenticator) getInfo() []byte {
	encoded, err := cbor.Encode(a.settings.toCBOR())
	if err != nil {
		// Settings are constructed by this package and validated at
		// DefaultSettings time; a failure here is a programmer error
		// in a custom Settings value, not a wire-format condition.
		panic("fido: settings encode: " + err.Error())
	}
	resp := make([]byte, 0, 1+len(encoded))
	resp = append(resp, StatusSuccess)
	resp = append(resp, encoded...)
	return resp
}
