package types

// InspectOutput represents the complete JSON report for a decrypted save
type InspectOutput struct {
	OK             bool       `json:"ok"`
	ID             string     `json:"id,omitempty"`
	CipherLen      int        `json:"cipher_len"`
	Padlen         uint8      `json:"padlen"`
	PayloadLen     int        `json:"payload_len"`
	VendorTag      string     `json:"vendor_tag,omitempty"`
	ChecksumStored string     `json:"checksum_stored,omitempty"`
	ChecksumCalc   string     `json:"checksum_calc,omitempty"`
	ChecksumOK     bool       `json:"checksum_ok"`
	PayloadB64     *string    `json:"payload_b64,omitempty"`
	Warnings       []Warning  `json:"warnings"`
	Error          *ErrorInfo `json:"error,omitempty"`
}

// VerifyOutput represents the result of a decrypt/re-encrypt/decrypt cycle
type VerifyOutput struct {
	OK               bool       `json:"ok"`
	ID               string     `json:"id,omitempty"`
	PayloadLen       int        `json:"payload_len"`
	PayloadStable    bool       `json:"payload_stable"`
	ChecksumStable   bool       `json:"checksum_stable"`
	CipherIdentical  bool       `json:"cipher_identical"`
	ReencryptedLen   int        `json:"reencrypted_len"`
	OriginalWarnings []Warning  `json:"original_warnings"`
	Error            *ErrorInfo `json:"error,omitempty"`
}

// EncryptOutput reports the result of an encryption
type EncryptOutput struct {
	OK         bool       `json:"ok"`
	PayloadLen int        `json:"payload_len"`
	CipherLen  int        `json:"cipher_len"`
	Checksum   string     `json:"checksum,omitempty"`
	CipherB64  string     `json:"cipher_b64,omitempty"`
	Error      *ErrorInfo `json:"error,omitempty"`
}

// Warning represents a non-fatal integrity finding
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// ErrorInfo represents an error response
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// InspectRequest represents the JSON body accepted by the inspect endpoint.
// Exactly one of CipherB64 and CipherHex is expected.
type InspectRequest struct {
	CipherB64      string `json:"cipher_b64"`
	CipherHex      string `json:"cipher_hex"`
	Strict         bool   `json:"strict"`
	IncludePayload bool   `json:"include_payload"`
}

// Warning codes
const (
	WarnChecksumMismatch = "CHECKSUM_MISMATCH"
	WarnMisalignedCipher = "MISALIGNED_CIPHER"
	WarnUnknownVendorTag = "UNKNOWN_VENDOR_TAG"
)
