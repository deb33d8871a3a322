package ogg

// crcTable is the lookup table for the Ogg checksum: CRC-32 with
// polynomial 0x04c11db7, initial value 0, no reflection and no final XOR.
var crcTable = func() (t [256]uint32) {
	for i := range t {
		r := uint32(i) << 24
		for range 8 {
			if r&0x80000000 != 0 {
				r = r<<1 ^ 0x04c11db7
			} else {
				r <<= 1
			}
		}
		t[i] = r
	}
	return t
}()

// Checksum computes the page checksum of b, which must hold the page with
// its checksum field zeroed.
func Checksum(b []byte) uint32 {
	var crc uint32
	for _, c := range b {
		crc = crc<<8 ^ crcTable[byte(crc>>24)^c]
	}
	return crc
}
