package frame

import (
	"errors"
	"fmt"
)

// Wire layout:
//
//	[START a0 a2][LEN(2) BE][PAYLOAD(LEN)][CHECKSUM(2) BE][END b0 b3]
const (
	MarkerLen   = 2
	LengthLen   = 2
	ChecksumLen = 2

	// MaxPayloadLen is the largest payload the 10-bit length budget allows.
	MaxPayloadLen = 1<<10 - 1

	// Overhead is the number of bytes a frame adds around its payload.
	Overhead = 2*MarkerLen + LengthLen + ChecksumLen
)

var (
	Start = []byte{0xa0, 0xa2}
	End   = []byte{0xb0, 0xb3}
)

var (
	ErrPayloadTooLarge  = fmt.Errorf("frame: payload exceeds %d bytes", MaxPayloadLen)
	ErrShortBody        = errors.New("frame: body shorter than length and checksum fields")
	ErrLengthMismatch   = errors.New("frame: length mismatch")
	ErrChecksumMismatch = errors.New("frame: checksum mismatch")
	ErrEmptyPayload     = errors.New("frame: empty payload has no message id")
)

// Message is a validated payload split into its id byte and body.
type Message struct {
	ID   byte
	Body []byte
}

// Payload rebuilds the payload the message was validated from.
func (m Message) Payload() []byte {
	out := make([]byte, 0, 1+len(m.Body))
	out = append(out, m.ID)
	return append(out, m.Body...)
}

func (m Message) String() string {
	return fmt.Sprintf("[%d] %x", m.ID, m.Payload())
}

// ValidationError describes a frame body whose declared fields did not match
// its payload. Both checks are always evaluated.
type ValidationError struct {
	DeclaredLength   int
	ActualLength     int
	DeclaredChecksum uint16
	ComputedChecksum uint16
}

func (e *ValidationError) LengthOK() bool   { return e.DeclaredLength == e.ActualLength }
func (e *ValidationError) ChecksumOK() bool { return e.DeclaredChecksum == e.ComputedChecksum }

func (e *ValidationError) Error() string {
	return fmt.Sprintf("frame: verification failed: length declared=%d actual=%d ok=%t, checksum declared=%s computed=%s ok=%t",
		e.DeclaredLength, e.ActualLength, e.LengthOK(),
		FormatChecksum(e.DeclaredChecksum), FormatChecksum(e.ComputedChecksum), e.ChecksumOK())
}

// Is reports ErrLengthMismatch and ErrChecksumMismatch independently so a
// body failing both checks matches both.
func (e *ValidationError) Is(target error) bool {
	switch target {
	case ErrLengthMismatch:
		return !e.LengthOK()
	case ErrChecksumMismatch:
		return !e.ChecksumOK()
	}
	return false
}
