package frame

import "encoding/binary"

// Codec encodes payloads into frames and validates frame bodies using a
// single checksum algorithm. The zero value uses Checksum.
type Codec struct {
	checksum ChecksumFunc
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithChecksum replaces the checksum algorithm.
func WithChecksum(fn ChecksumFunc) CodecOption {
	return func(c *Codec) {
		if fn != nil {
			c.checksum = fn
		}
	}
}

func NewCodec(opts ...CodecOption) *Codec {
	c := &Codec{checksum: Checksum}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultCodec = NewCodec()

// Encode builds a complete frame around payload using the default checksum.
func Encode(payload []byte) ([]byte, error) {
	return defaultCodec.Encode(payload)
}

// MustEncode is like Encode but panics on an oversized payload. It is meant
// for fixed command payloads known at compile time.
func MustEncode(payload []byte) []byte {
	out, err := Encode(payload)
	if err != nil {
		panic(err)
	}
	return out
}

// Validate checks a frame body with the default checksum.
func Validate(body []byte) (Message, error) {
	return defaultCodec.Validate(body)
}

func (c *Codec) sum(payload []byte) uint16 {
	if c == nil || c.checksum == nil {
		return Checksum(payload)
	}
	return c.checksum(payload)
}

// Encode returns START ++ LEN ++ payload ++ CHECKSUM ++ END. Payloads longer
// than MaxPayloadLen are rejected before anything is built.
func (c *Codec) Encode(payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadLen {
		return nil, ErrPayloadTooLarge
	}

	out := make([]byte, 0, Overhead+len(payload))
	out = append(out, Start...)
	out = binary.BigEndian.AppendUint16(out, uint16(len(payload)))
	out = append(out, payload...)
	out = binary.BigEndian.AppendUint16(out, c.sum(payload))
	out = append(out, End...)
	return out, nil
}

// Validate splits a frame body (the bytes between START and END) into its
// declared length, payload and declared checksum, and verifies both fields.
// On failure the returned error is a *ValidationError carrying declared and
// computed values for both fields.
//
// A body whose fields check out but whose payload is empty returns
// ErrEmptyPayload: the frame is intact, but there is no id byte to build a
// Message from. It is not a length or checksum failure, and Encode still
// frames an empty payload.
func (c *Codec) Validate(body []byte) (Message, error) {
	if len(body) < LengthLen+ChecksumLen {
		return Message{}, ErrShortBody
	}

	payload := body[LengthLen : len(body)-ChecksumLen]
	verr := &ValidationError{
		DeclaredLength:   int(binary.BigEndian.Uint16(body[:LengthLen])),
		ActualLength:     len(payload),
		DeclaredChecksum: binary.BigEndian.Uint16(body[len(body)-ChecksumLen:]),
		ComputedChecksum: c.sum(payload),
	}
	if !verr.LengthOK() || !verr.ChecksumOK() {
		return Message{}, verr
	}
	if len(payload) == 0 {
		return Message{}, ErrEmptyPayload
	}

	return Message{
		ID:   payload[0],
		Body: append([]byte(nil), payload[1:]...),
	}, nil
}
