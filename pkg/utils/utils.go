package utils

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
)

// PadToWordBoundary right-pads data with zero bytes to a multiple of 4.
// The input slice is never modified.
func PadToWordBoundary(data []byte) []byte {
	pad := (4 - len(data)%4) % 4
	padded := make([]byte, len(data)+pad)
	copy(padded, data)
	return padded
}

// BytesToWords groups data into little-endian 32-bit words after zero-padding
// it to a word boundary. A single resulting word is followed by an extra zero
// word, since the cipher only operates on blocks of two or more words.
func BytesToWords(data []byte) []uint32 {
	padded := PadToWordBoundary(data)

	words := make([]uint32, 0, len(padded)/4+1)
	for i := 0; i < len(padded); i += 4 {
		words = append(words, binary.LittleEndian.Uint32(padded[i:i+4]))
	}

	if len(words) == 1 {
		words = append(words, 0)
	}
	return words
}

// WordsToBytes flattens words into little-endian bytes and truncates the
// result to targetLen.
func WordsToBytes(words []uint32, targetLen int) []byte {
	out := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	if targetLen < len(out) {
		out = out[:targetLen]
	}
	return out
}

// KeyWords interprets a 16-byte key as four little-endian words
func KeyWords(key [16]byte) [4]uint32 {
	var k [4]uint32
	for i := range k {
		k[i] = binary.LittleEndian.Uint32(key[i*4 : i*4+4])
	}
	return k
}

// ByteSum adds up all bytes of data modulo 2^32
func ByteSum(data []byte) uint32 {
	var sum uint32
	for _, b := range data {
		sum += uint32(b)
	}
	return sum
}

// Hex32 formats a word the way the engine tools print it (0x%08x)
func Hex32(v uint32) string {
	return fmt.Sprintf("0x%08x", v)
}

// HexToBytes converts hex string to bytes with validation
func HexToBytes(hexStr string) ([]byte, error) {
	if len(hexStr)%2 != 0 {
		return nil, errors.New("invalid hex string: odd length")
	}
	return hex.DecodeString(hexStr)
}

// HexSpaced renders data as lowercase hex with single spaces between bytes
func HexSpaced(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	out := make([]byte, 0, len(data)*3-1)
	for i, b := range data {
		if i > 0 {
			out = append(out, ' ')
		}
		out = hex.AppendEncode(out, []byte{b})
	}
	return string(out)
}
