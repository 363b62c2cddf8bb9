package ctaphid

import "fmt"

// HidError wraps a CTAPHID error code as a Go error, for callers (like the
// fidocore-agent serve loop) that want to log or branch on a completed ERROR
// message using errors.As instead of comparing Message.Payload[0] by hand.
type HidError struct {
	Code ErrorCode
}

func (e *HidError) Error() string {
	return fmt.Sprintf("ctaphid: error code 0x%02X", byte(e.Code))
}

// AsError converts a completed Message into a non-nil error when it is a
// CTAPHID_ERROR message, and nil otherwise.
func (m Message) AsError() error {
	if m.Cmd != CommandError || len(m.Payload) == 0 {
		return nil
	}
	return &HidError{Code: ErrorCode(m.Payload[0])}
}
