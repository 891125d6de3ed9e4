package hash

import (
	"encoding/base64"
	"encoding/binary"
	"hash/crc32"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Checksum is a CRC32-Castagnoli sum.
type Checksum uint32

// Of returns the checksum of data.
func Of(data []byte) Checksum {
	return Checksum(crc32.Checksum(data, castagnoli))
}

// Update extends c with p, so Of(a+b) == Of(a).Update(b).
func (c Checksum) Update(p []byte) Checksum {
	return Checksum(crc32.Update(uint32(c), castagnoli, p))
}

// Matches reports whether data hashes to c.
func (c Checksum) Matches(data []byte) bool {
	return Of(data) == c
}

// Base64 renders c the way object stores carry it in checksum headers:
// the big-endian bytes, base64 encoded.
func (c Checksum) Base64() string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(c))
	return base64.StdEncoding.EncodeToString(b[:])
}
