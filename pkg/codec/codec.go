// Package codec frames save payloads into the engine's plaintext block layout
// and runs them through the XXTEA transform.
//
// Block layout:
//
//	[payload | checksum(4 LE) | extra4(4 LE) | pad(0..7) | padlen(1)]
//
// The total block length is always a multiple of 8.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log"

	"save-lens/pkg/analyzer"
	"save-lens/pkg/types"
	"save-lens/pkg/utils"
	"save-lens/pkg/xxtea"
)

// VendorTag is the extra4 value the engine writes into every footer
const VendorTag uint32 = 0x0169027d

// ChecksumSeed is the engine's starting value for the payload byte sum
const ChecksumSeed uint32 = 0x06583463

// FooterLen is the fixed part of the footer: checksum(4) + extra4(4) + padlen(1)
const FooterLen = 9

const (
	blockAlign = 8
	// the encoder never writes more than 7, the decoder accepts 8
	maxStoredPadlen = 8
)

// 16-byte XXTEA key, little endian, taken from the game binary
var engineKey = [16]byte{
	0x93, 0x9d, 0xab, 0x7a, 0x2a, 0x56, 0xf8, 0xaf,
	0xb4, 0xdb, 0xa9, 0xb5, 0x22, 0xa3, 0x4b, 0x2b,
}

// EngineKey returns a copy of the engine key
func EngineKey() [16]byte {
	return engineKey
}

var (
	ErrBlockTooShort         = errors.New("block too short")
	ErrPadlenOutOfRange      = errors.New("padlen out of range")
	ErrNegativePayloadLength = errors.New("payload_len < 0 (corrupt?)")
	ErrPadTooShort           = errors.New("pad_bytes too short")

	// ErrInvariant marks a broken internal length invariant, never bad input
	ErrInvariant = errors.New("internal invariant violated")

	// Only returned in strict mode
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrMisalignedCipher = errors.New("cipher length is not a multiple of 8")
)

// UnpackedBlock holds a decoded plaintext block
type UnpackedBlock struct {
	Payload   []byte
	Checksum  uint32
	VendorTag uint32
	Padlen    uint8

	// Set by Decrypt only
	CalculatedChecksum uint32
	Warnings           []types.Warning
}

// ChecksumOK reports whether the stored checksum matches the payload
func (b *UnpackedBlock) ChecksumOK() bool {
	return b.Checksum == Checksum(b.Payload)
}

// WarnFunc receives non-fatal integrity warnings
type WarnFunc func(types.Warning)

// LogWarning is the default WarnFunc, it writes "[warn] ..." through the log package
func LogWarning(w types.Warning) {
	log.Printf("[warn] %s", w.Message)
}

// Discard drops warnings. They are still returned in UnpackedBlock.Warnings.
func Discard(types.Warning) {}

// Options control DecryptWithOptions
type Options struct {
	// Strict turns checksum mismatches and misaligned input into errors
	Strict bool
	// Warn is called for every warning, LogWarning when nil
	Warn WarnFunc
}

func (o Options) warn(w types.Warning) {
	if o.Warn == nil {
		LogWarning(w)
		return
	}
	o.Warn(w)
}

// Checksum calculates the footer checksum for a payload.
// Engine formula: 0x06583463 + sum of all payload bytes (mod 2^32)
func Checksum(payload []byte) uint32 {
	return ChecksumSeed + utils.ByteSum(payload)
}

// PadLen returns the number of pad bytes needed for a payload of n bytes
func PadLen(n int) int {
	return (blockAlign - (n+FooterLen)%blockAlign) % blockAlign
}

// PackBlock builds the plaintext block for payload. A nil pad fills the
// padding with zero bytes; otherwise the first padlen bytes of pad are used.
func PackBlock(payload []byte, vendorTag uint32, pad []byte) ([]byte, error) {
	padlen := PadLen(len(payload))

	if padlen > 0 && pad != nil && len(pad) < padlen {
		return nil, fmt.Errorf("%w: need %d, got %d", ErrPadTooShort, padlen, len(pad))
	}

	block := make([]byte, 0, len(payload)+FooterLen+padlen)
	block = append(block, payload...)
	block = binary.LittleEndian.AppendUint32(block, Checksum(payload))
	block = binary.LittleEndian.AppendUint32(block, vendorTag)

	if pad != nil {
		block = append(block, pad[:padlen]...)
	} else {
		block = append(block, make([]byte, padlen)...)
	}

	block = append(block, byte(padlen))

	if len(block)%blockAlign != 0 {
		return nil, fmt.Errorf("%w: plain block must be multiple of 8, got %d", ErrInvariant, len(block))
	}

	return block, nil
}

// UnpackBlock splits a plaintext block into payload and footer fields.
// It does not validate the checksum.
func UnpackBlock(plain []byte) (*UnpackedBlock, error) {
	if len(plain) < FooterLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrBlockTooShort, len(plain))
	}

	padlen := plain[len(plain)-1]
	if padlen > maxStoredPadlen {
		return nil, fmt.Errorf("%w: %d", ErrPadlenOutOfRange, padlen)
	}

	payloadLen := len(plain) - int(padlen) - FooterLen
	if payloadLen < 0 {
		return nil, ErrNegativePayloadLength
	}

	payload := make([]byte, payloadLen)
	copy(payload, plain[:payloadLen])

	return &UnpackedBlock{
		Payload:   payload,
		Checksum:  binary.LittleEndian.Uint32(plain[payloadLen : payloadLen+4]),
		VendorTag: binary.LittleEndian.Uint32(plain[payloadLen+4 : payloadLen+8]),
		Padlen:    padlen,
	}, nil
}

// Encrypt turns a plaintext payload into save file bytes
func Encrypt(payload []byte) ([]byte, error) {
	block, err := PackBlock(payload, VendorTag, nil)
	if err != nil {
		return nil, err
	}

	enc := xxtea.EncryptBytes(block, engineKey)

	if len(enc)%blockAlign != 0 {
		return nil, fmt.Errorf("%w: cipher must be multiple of 8, got %d", ErrInvariant, len(enc))
	}

	return enc, nil
}

// Decrypt decodes save file bytes. Checksum mismatches and misaligned input
// are logged as warnings; only structural errors fail the call.
func Decrypt(cipher []byte) (*UnpackedBlock, error) {
	return DecryptWithOptions(cipher, Options{})
}

// DecryptWithOptions is Decrypt with a custom warning sink and optional strict mode
func DecryptWithOptions(cipher []byte, opts Options) (*UnpackedBlock, error) {
	warnings := make([]types.Warning, 0)

	if w := analyzer.CheckAlignment(len(cipher)); w != nil {
		if opts.Strict {
			return nil, fmt.Errorf("%w: got %d bytes", ErrMisalignedCipher, len(cipher))
		}
		opts.warn(*w)
		warnings = append(warnings, *w)
	}

	plain := xxtea.DecryptBytes(cipher, engineKey)

	unpacked, err := UnpackBlock(plain)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack block: %w", err)
	}

	unpacked.CalculatedChecksum = Checksum(unpacked.Payload)
	if opts.Strict && unpacked.Checksum != unpacked.CalculatedChecksum {
		return nil, fmt.Errorf("%w: stored=0x%08x calc=0x%08x",
			ErrChecksumMismatch, unpacked.Checksum, unpacked.CalculatedChecksum)
	}

	for _, w := range analyzer.CheckBlock(unpacked.Checksum, unpacked.CalculatedChecksum, unpacked.VendorTag, VendorTag) {
		opts.warn(w)
		warnings = append(warnings, w)
	}
	unpacked.Warnings = warnings

	return unpacked, nil
}
