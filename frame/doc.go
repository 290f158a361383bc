// Package frame implements the framing layer of the serial link: building
// outbound frames, locating frame bodies in an unbounded inbound byte stream,
// and verifying a body's declared length and checksum.
//
// # Wire format
//
//	[START a0 a2][LEN(2)][PAYLOAD(LEN)][CHECKSUM(2)][END b0 b3]
//
// LEN is the big-endian payload byte count (0..1023). CHECKSUM covers the
// payload only; see Checksum for the algorithm. The first payload byte is the
// message id.
//
// # Decoding
//
// A Decoder pulls bytes from an io.Reader and returns one body per Next call:
//
//	dec := frame.NewDecoder(port)
//	for {
//	    body, err := dec.Next()
//	    if err != nil {
//	        // transport error
//	    }
//	    msg, err := frame.Validate(body)
//	    if err != nil {
//	        // *ValidationError, ErrShortBody or ErrEmptyPayload
//	        continue
//	    }
//	    // use msg.ID, msg.Body
//	}
//
// The marker bytes are not escaped inside payloads. A payload containing
// a0 a2 or b0 b3 can break framing; this is a property of the protocol.
package frame
