package analyzer

import (
	"fmt"

	"save-lens/pkg/types"
)

// CheckAlignment reports a ciphertext whose length the engine would reject
func CheckAlignment(cipherLen int) *types.Warning {
	if cipherLen%8 == 0 {
		return nil
	}
	return &types.Warning{
		Code:    types.WarnMisalignedCipher,
		Message: fmt.Sprintf("cipher len %d is not a multiple of 8, engine would reject this.", cipherLen),
	}
}

// CheckBlock creates the warnings for an unpacked block
func CheckBlock(storedChecksum, calcChecksum, vendorTag, expectedTag uint32) []types.Warning {
	warnings := make([]types.Warning, 0)

	// CHECKSUM_MISMATCH: stored footer checksum disagrees with the payload
	if storedChecksum != calcChecksum {
		warnings = append(warnings, types.Warning{
			Code:    types.WarnChecksumMismatch,
			Message: fmt.Sprintf("checksum mismatch: stored=0x%08x calc=0x%08x", storedChecksum, calcChecksum),
		})
	}

	// UNKNOWN_VENDOR_TAG: informational only, other engine builds may differ
	if vendorTag != expectedTag {
		warnings = append(warnings, types.Warning{
			Code:    types.WarnUnknownVendorTag,
			Message: fmt.Sprintf("unexpected extra4: got=0x%08x want=0x%08x", vendorTag, expectedTag),
		})
	}

	return warnings
}

// HasWarning reports whether warnings contain the given code
func HasWarning(warnings []types.Warning, code string) bool {
	for _, w := range warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}
