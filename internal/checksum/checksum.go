// Package checksum implements the integrity primitives used by the frame
// decoders: an MSB-first CRC-8 with caller-supplied polynomial and init
// value, and the plain additive checksum many Fine Offset sensors append
// next to it.
package checksum

// CRC8 computes an MSB-first CRC-8 over data. Passing a message with its
// trailing CRC byte included yields zero when the message is intact.
func CRC8(data []byte, polynomial, init byte) byte {
	remainder := init
	for _, b := range data {
		remainder ^= b
		for bit := 0; bit < 8; bit++ {
			if remainder&0x80 != 0 {
				remainder = (remainder << 1) ^ polynomial
			} else {
				remainder <<= 1
			}
		}
	}
	return remainder
}

// AddBytes returns the byte-wise sum of data modulo 256.
func AddBytes(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum
}
