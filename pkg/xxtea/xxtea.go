// Package xxtea implements the XXTEA (corrected block TEA, "BTEA") transform
// used by the engine for its save files.
//
// The block functions work in place on a slice of 32-bit words. All
// arithmetic is on uint32 and wraps modulo 2^32.
package xxtea

import "save-lens/pkg/utils"

// Delta is the golden-ratio round constant
const Delta uint32 = 0x9E3779B9

// Rounds returns the number of full sweeps for a block of n words
func Rounds(n int) int {
	return 6 + 52/n
}

func mx(z, y, sum, k uint32) uint32 {
	return (((z >> 5) ^ (y << 2)) + ((y >> 3) ^ (z << 4))) ^ ((sum ^ y) + (k ^ z))
}

// EncryptBlock encrypts v in place. Blocks shorter than two words are left
// untouched.
func EncryptBlock(v []uint32, k *[4]uint32) {
	n := len(v)
	if n < 2 {
		return
	}

	var sum uint32
	z := v[n-1]
	for r := Rounds(n); r > 0; r-- {
		sum += Delta
		e := (sum >> 2) & 3
		for p := 0; p < n; p++ {
			// y wraps to v[0], which was already updated in this sweep
			y := v[(p+1)%n]
			v[p] += mx(z, y, sum, k[(uint32(p)&3)^e])
			z = v[p]
		}
	}
}

// DecryptBlock reverses EncryptBlock in place. Blocks shorter than two words
// are left untouched.
func DecryptBlock(v []uint32, k *[4]uint32) {
	n := len(v)
	if n < 2 {
		return
	}

	r := Rounds(n)
	sum := uint32(r) * Delta
	y := v[0]
	for ; r > 0; r-- {
		e := (sum >> 2) & 3
		for p := n - 1; p >= 0; p-- {
			z := v[(p+n-1)%n]
			v[p] -= mx(z, y, sum, k[(uint32(p)&3)^e])
			y = v[p]
		}
		sum -= Delta
	}
}

// EncryptBytes encrypts data with a 16-byte little-endian key.
// The output keeps the zero padding up to the next 4-byte boundary, so its
// length is len(data) rounded up to a multiple of 4.
func EncryptBytes(data []byte, key [16]byte) []byte {
	padded := utils.PadToWordBoundary(data)
	v := utils.BytesToWords(padded)
	k := utils.KeyWords(key)

	EncryptBlock(v, &k)

	return utils.WordsToBytes(v, len(padded))
}

// DecryptBytes decrypts data with a 16-byte little-endian key.
// Unlike EncryptBytes, the output is cut back to len(data): padding added
// only to reach a word boundary is dropped.
func DecryptBytes(data []byte, key [16]byte) []byte {
	v := utils.BytesToWords(data)
	k := utils.KeyWords(key)

	DecryptBlock(v, &k)

	return utils.WordsToBytes(v, len(data))
}
