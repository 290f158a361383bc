package frame

import (
	"fmt"

	"github.com/sigurn/crc16"
)

// ChecksumMask keeps the low 15 bits of the running sum.
const ChecksumMask = 1<<15 - 1

// ChecksumFunc computes the 16-bit checksum field for a payload.
type ChecksumFunc func(payload []byte) uint16

// Checksum sums the payload bytes, masking the running total to 15 bits
// after every addition. Peers compare it bit-for-bit, so the mask order
// must not change.
func Checksum(payload []byte) uint16 {
	var sum uint16
	for _, b := range payload {
		sum += uint16(b)
		sum &= ChecksumMask
	}
	return sum
}

var modbusTable = crc16.MakeTable(crc16.CRC16_MODBUS)

// CRC16Modbus is an alternative checksum for links whose peers append a
// CRC-16/MODBUS trailer instead of the rolling sum.
func CRC16Modbus(payload []byte) uint16 {
	return crc16.Checksum(payload, modbusTable)
}

// FormatChecksum renders a checksum as four zero-padded hex digits, the
// form peers print in their logs.
func FormatChecksum(sum uint16) string {
	return fmt.Sprintf("%04x", sum)
}
