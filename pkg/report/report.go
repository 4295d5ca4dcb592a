package report

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"

	"save-lens/pkg/codec"
	"save-lens/pkg/types"
	"save-lens/pkg/utils"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Options controls Inspect
type Options struct {
	Strict         bool
	IncludePayload bool
	Warn           codec.WarnFunc
}

// Fingerprint identifies a payload by its double SHA256, printed in reversed
// byte order like a txid
func Fingerprint(payload []byte) string {
	return chainhash.DoubleHashH(payload).String()
}

// Inspect decrypts a save file and describes its container fields
func Inspect(cipher []byte, opts Options) (*types.InspectOutput, error) {
	unpacked, err := codec.DecryptWithOptions(cipher, codec.Options{
		Strict: opts.Strict,
		Warn:   opts.Warn,
	})
	if err != nil {
		return nil, fmt.Errorf("decrypt failed: %w", err)
	}

	result := &types.InspectOutput{
		OK:             true,
		ID:             Fingerprint(unpacked.Payload),
		CipherLen:      len(cipher),
		Padlen:         unpacked.Padlen,
		PayloadLen:     len(unpacked.Payload),
		VendorTag:      utils.Hex32(unpacked.VendorTag),
		ChecksumStored: utils.Hex32(unpacked.Checksum),
		ChecksumCalc:   utils.Hex32(unpacked.CalculatedChecksum),
		ChecksumOK:     unpacked.Checksum == unpacked.CalculatedChecksum,
		Warnings:       unpacked.Warnings,
	}

	if opts.IncludePayload {
		encoded := base64.StdEncoding.EncodeToString(unpacked.Payload)
		result.PayloadB64 = &encoded
	}

	return result, nil
}

// Verify decrypts a save file, encrypts the payload again and decrypts the
// result, checking that nothing changed along the way
func Verify(cipher []byte, warn codec.WarnFunc) (*types.VerifyOutput, error) {
	first, err := codec.DecryptWithOptions(cipher, codec.Options{Warn: warn})
	if err != nil {
		return nil, fmt.Errorf("decrypt failed: %w", err)
	}

	reencrypted, err := codec.Encrypt(first.Payload)
	if err != nil {
		return nil, fmt.Errorf("re-encrypt failed: %w", err)
	}

	second, err := codec.DecryptWithOptions(reencrypted, codec.Options{Warn: codec.Discard})
	if err != nil {
		return nil, fmt.Errorf("decrypt of re-encrypted data failed: %w", err)
	}

	payloadStable := bytes.Equal(first.Payload, second.Payload)
	checksumStable := first.Checksum == second.Checksum

	return &types.VerifyOutput{
		OK:               payloadStable && checksumStable,
		ID:               Fingerprint(first.Payload),
		PayloadLen:       len(first.Payload),
		PayloadStable:    payloadStable,
		ChecksumStable:   checksumStable,
		CipherIdentical:  bytes.Equal(cipher, reencrypted),
		ReencryptedLen:   len(reencrypted),
		OriginalWarnings: first.Warnings,
	}, nil
}

// Encrypt encrypts a payload and summarizes the result
func Encrypt(payload []byte) (*types.EncryptOutput, []byte, error) {
	enc, err := codec.Encrypt(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("encrypt failed: %w", err)
	}

	return &types.EncryptOutput{
		OK:         true,
		PayloadLen: len(payload),
		CipherLen:  len(enc),
		Checksum:   utils.Hex32(codec.Checksum(payload)),
		CipherB64:  base64.StdEncoding.EncodeToString(enc),
	}, enc, nil
}

// ErrorCode maps codec errors to the stable error codes used in JSON output
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, codec.ErrBlockTooShort):
		return "BLOCK_TOO_SHORT"
	case errors.Is(err, codec.ErrPadlenOutOfRange):
		return "PADLEN_OUT_OF_RANGE"
	case errors.Is(err, codec.ErrNegativePayloadLength):
		return "CORRUPT_BLOCK"
	case errors.Is(err, codec.ErrPadTooShort):
		return "PAD_TOO_SHORT"
	case errors.Is(err, codec.ErrChecksumMismatch):
		return types.WarnChecksumMismatch
	case errors.Is(err, codec.ErrMisalignedCipher):
		return types.WarnMisalignedCipher
	default:
		return "INTERNAL"
	}
}

// ErrorInfo builds the JSON error body for err
func ErrorInfo(err error) *types.ErrorInfo {
	return &types.ErrorInfo{Code: ErrorCode(err), Message: err.Error()}
}
