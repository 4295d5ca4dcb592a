package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"save-lens/pkg/codec"
	"save-lens/pkg/config"
	"save-lens/pkg/types"
	"save-lens/pkg/xxtea"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCipherHex = "211d3e9315de8684eb758146aed7a1ba" // "test"

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 0, MaxBodySize: 1024},
	}
	return newRouter(cfg)
}

func do(r http.Handler, method, target, contentType string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func testCipher(t *testing.T) []byte {
	t.Helper()
	b, err := hex.DecodeString(testCipherHex)
	require.NoError(t, err)
	return b
}

func TestHealth(t *testing.T) {
	w := do(testRouter(t), http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}

func TestDecryptEndpoint(t *testing.T) {
	w := do(testRouter(t), http.MethodPost, "/api/decrypt", "application/octet-stream", testCipher(t))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "test", w.Body.String())
	assert.Equal(t, "0x06583623", w.Header().Get("X-Checksum-Stored"))
	assert.Equal(t, "0x06583623", w.Header().Get("X-Checksum-Calc"))
	assert.Equal(t, "0x0169027d", w.Header().Get("X-Vendor-Tag"))
	assert.Equal(t, "3", w.Header().Get("X-Padlen"))
	assert.Empty(t, w.Header().Get("X-Warnings"))
}

func TestDecryptEndpointChecksumMismatch(t *testing.T) {
	block, err := codec.PackBlock([]byte("coins = 5"), codec.VendorTag, nil)
	require.NoError(t, err)
	block[8] = '6'
	cipher := xxtea.EncryptBytes(block, codec.EngineKey())
	r := testRouter(t)

	w := do(r, http.MethodPost, "/api/decrypt", "application/octet-stream", cipher)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "coins = 6", w.Body.String())
	assert.Equal(t, types.WarnChecksumMismatch, w.Header().Get("X-Warnings"))

	w = do(r, http.MethodPost, "/api/decrypt?strict=true", "application/octet-stream", cipher)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"CHECKSUM_MISMATCH"`)
}

func TestDecryptEndpointStructuralError(t *testing.T) {
	w := do(testRouter(t), http.MethodPost, "/api/decrypt", "application/octet-stream", []byte{1, 2, 3})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"BLOCK_TOO_SHORT"`)
}

func TestEncryptEndpoint(t *testing.T) {
	r := testRouter(t)

	w := do(r, http.MethodPost, "/api/encrypt", "application/octet-stream", []byte("test"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testCipherHex, hex.EncodeToString(w.Body.Bytes()))

	w = do(r, http.MethodPost, "/api/encrypt?format=json", "application/octet-stream", []byte("test"))
	require.Equal(t, http.StatusOK, w.Code)
	var result types.EncryptOutput
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.OK)
	assert.Equal(t, 16, result.CipherLen)
	assert.Equal(t, "0x06583623", result.Checksum)
}

func TestInspectEndpointRaw(t *testing.T) {
	w := do(testRouter(t), http.MethodPost, "/api/inspect?payload=1", "application/octet-stream", testCipher(t))
	require.Equal(t, http.StatusOK, w.Code)

	var result types.InspectOutput
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.OK)
	assert.Equal(t, 4, result.PayloadLen)
	require.NotNil(t, result.PayloadB64)
	assert.Equal(t, "dGVzdA==", *result.PayloadB64)
}

func TestInspectEndpointJSON(t *testing.T) {
	r := testRouter(t)

	body := []byte(`{"cipher_hex":"` + testCipherHex + `"}`)
	w := do(r, http.MethodPost, "/api/inspect", "application/json", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result types.InspectOutput
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "0x0169027d", result.VendorTag)
	assert.Nil(t, result.PayloadB64)

	body = []byte(`{"cipher_b64":"IR0+kxXehoTrdYFGrtehug==","include_payload":true}`)
	w = do(r, http.MethodPost, "/api/inspect", "application/json", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.NotNil(t, result.PayloadB64)
	assert.Equal(t, "dGVzdA==", *result.PayloadB64)

	w = do(r, http.MethodPost, "/api/inspect", "application/json", []byte(`{"cipher_b64":`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_JSON")

	w = do(r, http.MethodPost, "/api/inspect", "application/json", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_ENCODING")
}

func TestVerifyEndpoint(t *testing.T) {
	w := do(testRouter(t), http.MethodPost, "/api/verify", "application/octet-stream", testCipher(t))
	require.Equal(t, http.StatusOK, w.Code)

	var result types.VerifyOutput
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.OK)
	assert.True(t, result.CipherIdentical)
}

func TestBodyLimit(t *testing.T) {
	w := do(testRouter(t), http.MethodPost, "/api/encrypt", "application/octet-stream", bytes.Repeat([]byte("x"), 2048))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_REQUEST")
}

func TestInspectEndpointWritesNoReport(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	w := do(testRouter(t), http.MethodPost, "/api/inspect", "application/octet-stream", testCipher(t))
	require.Equal(t, http.StatusOK, w.Code)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFallbackPage(t *testing.T) {
	w := do(testRouter(t), http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "/api/inspect"))
}
