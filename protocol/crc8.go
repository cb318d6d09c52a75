package protocol

import "github.com/sigurn/crc8"

// CRC-8/SMBUS (poly 0x07, init 0x00), check value 0xF4 for "123456789".
var crcTable = crc8.MakeTable(crc8.CRC8)

// Checksum returns the CRC-8 of data.
func Checksum(data []byte) uint8 {
	return crc8.Checksum(data, crcTable)
}
