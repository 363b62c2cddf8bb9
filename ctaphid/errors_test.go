package ctaphid

import (
	"errors"
	"testing"
)

func TestAsErrorOnErrorMessage(t *testing.T) {
	msg := Message{Cmd: CommandError, Payload: []byte{byte(ErrInvalidChannel)}}

	err := msg.AsError()
	if err == nil {
		t.Fatal("AsError() = nil, want non-nil")
	}

	var hidErr *HidError
	if !errors.As(err, &hidErr) {
		t.Fatalf("errors.As failed for %v", err)
	}
	if hidErr.Code != ErrInvalidChannel {
		t.Errorf("Code = %#x, want %#x", hidErr.Code, ErrInvalidChannel)
	}
}

func TestAsErrorOnNonErrorMessage(t *testing.T) {
	msg := Message{Cmd: CommandPing, Payload: []byte{0x01}}
	if err := msg.AsError(); err != nil {
		t.Errorf("AsError() = %v, want nil for non-error message", err)
	}
}

func TestAsErrorOnEmptyPayload(t *testing.T) {
	msg := Message{Cmd: CommandError}
	if err := msg.AsError(); err != nil {
		t.Errorf("AsError() = %v, want nil for empty payload", err)
	}
}
