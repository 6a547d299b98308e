package binary

import (
	"crypto/ed25519"
	"encoding/binary"
	"math"
)

func PutKey32(dst []byte, src []byte, offset *int) {
	copy(dst, src)
	*offset += ed25519.PublicKeySize
}

func PutUint64(dst []byte, v uint64, offset *int) {
	binary.LittleEndian.PutUint64(dst, v)
	*offset += 8
}

func PutUint32(dst []byte, v uint32, offset *int) {
	binary.LittleEndian.PutUint32(dst, v)
	*offset += 4
}

func PutUint8(dst []byte, v uint8, offset *int) {
	dst[0] = v
	*offset += 1
}

func PutFloat64(dst []byte, v float64, offset *int) {
	binary.LittleEndian.PutUint64(dst, math.Float64bits(v))
	*offset += 8
}

// PutBool writes v as a single 0/1 byte.
func PutBool(dst []byte, v bool, offset *int) {
	if v {
		dst[0] = 1
	} else {
		dst[0] = 0
	}
	*offset += 1
}

func GetKey32(src []byte, dst *ed25519.PublicKey, offset *int) {
	*dst = make([]byte, ed25519.PublicKeySize)
	copy(*dst, src)
	*offset += ed25519.PublicKeySize
}

func GetUint64(src []byte, dst *uint64, offset *int) {
	*dst = binary.LittleEndian.Uint64(src)
	*offset += 8
}

func GetUint32(src []byte, dst *uint32, offset *int) {
	*dst = binary.LittleEndian.Uint32(src)
	*offset += 4
}

func GetUint8(src []byte, dst *uint8, offset *int) {
	*dst = src[0]
	*offset += 1
}

func GetFloat64(src []byte, dst *float64, offset *int) {
	*dst = math.Float64frombits(binary.LittleEndian.Uint64(src))
	*offset += 8
}

// GetBool reads a single byte flag. Any value other than 0 or 1 is rejected.
func GetBool(src []byte, dst *bool, offset *int) bool {
	switch src[0] {
	case 0:
		*dst = false
	case 1:
		*dst = true
	default:
		return false
	}
	*offset += 1
	return true
}
