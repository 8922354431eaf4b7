package emvqr

import "fmt"

// Checksum computes CRC16-CCITT (poly 0x1021, init 0xFFFF, no final XOR)
// over data and returns it as four uppercase hex digits, the form the
// payload's CRC field carries on the wire.
func Checksum(data []byte) string {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return fmt.Sprintf("%04X", crc)
}
