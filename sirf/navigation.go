package sirf

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/clint456/sirflink/frame"
)

var (
	ErrWrongMessage = errors.New("sirf: unexpected message id")
	ErrShortMessage = errors.New("sirf: message body too short")
)

// navFixedLen is x, y, z (int32) followed by vx, vy, vz (int16).
const navFixedLen = 3*4 + 3*2

// Navigation is the leading position and velocity block of message 0x02.
// Fields are raw receiver units; velocities are not rescaled.
type Navigation struct {
	ID         byte
	X, Y, Z    int32
	VX, VY, VZ int16
}

func (n Navigation) String() string {
	return fmt.Sprintf("pos=(%d,%d,%d) vel=(%d,%d,%d)", n.X, n.Y, n.Z, n.VX, n.VY, n.VZ)
}

// DecodeNavigation reads the position and velocity fields of a Measured
// Navigation Data message. Fields are little-endian, which is how this
// link has always interpreted them. Trailing fields are ignored.
func DecodeNavigation(msg frame.Message) (Navigation, error) {
	if msg.ID != MeasuredNavigationData {
		return Navigation{}, fmt.Errorf("%w: got 0x%02x, want 0x%02x", ErrWrongMessage, msg.ID, MeasuredNavigationData)
	}
	b := msg.Body
	if len(b) < navFixedLen {
		return Navigation{}, fmt.Errorf("%w: %d bytes, need %d", ErrShortMessage, len(b), navFixedLen)
	}
	le := binary.LittleEndian
	return Navigation{
		ID: msg.ID,
		X:  int32(le.Uint32(b[0:])),
		Y:  int32(le.Uint32(b[4:])),
		Z:  int32(le.Uint32(b[8:])),
		VX: int16(le.Uint16(b[12:])),
		VY: int16(le.Uint16(b[14:])),
		VZ: int16(le.Uint16(b[16:])),
	}, nil
}
