package main

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"save-lens/pkg/codec"
	"save-lens/pkg/config"
	"save-lens/pkg/report"
	"save-lens/pkg/types"
	"save-lens/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	gin.SetMode(gin.ReleaseMode)
	r := newRouter(cfg)

	// Print URL and start server
	fmt.Printf("http://%s\n", cfg.Addr())
	if err := r.Run(cfg.Addr()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRouter(cfg *config.Config) *gin.Engine {
	r := gin.Default()

	// Enable CORS for browser frontends
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"X-Checksum-Stored", "X-Checksum-Calc", "X-Vendor-Tag", "X-Padlen", "X-Warnings"},
	}))

	h := &handlers{cfg: cfg}

	// Health check endpoint
	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	api := r.Group("/api", limitBody(cfg.Server.MaxBodySize))
	api.POST("/decrypt", h.handleDecrypt)
	api.POST("/encrypt", h.handleEncrypt)
	api.POST("/inspect", h.handleInspect)
	api.POST("/verify", h.handleVerify)

	r.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(fallbackHTML))
	})

	return r
}

func limitBody(max int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
		c.Next()
	}
}

type handlers struct {
	cfg *config.Config
}

// strict reads the ?strict= query flag, falling back to the configured default
func (h *handlers) strict(c *gin.Context) bool {
	return queryBool(c, "strict", h.cfg.Codec.Strict)
}

func queryBool(c *gin.Context, key string, def bool) bool {
	v, ok := c.GetQuery(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func readBody(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			abortWithError(c, http.StatusRequestEntityTooLarge, "INVALID_REQUEST",
				fmt.Sprintf("Request body exceeds %d bytes", maxErr.Limit))
			return nil, false
		}
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", "Failed to read request body")
		return nil, false
	}
	return body, true
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"ok":    false,
		"error": &types.ErrorInfo{Code: code, Message: message},
	})
}

func abortWithCodecError(c *gin.Context, err error) {
	status := http.StatusUnprocessableEntity
	if report.ErrorCode(err) == "INTERNAL" {
		status = http.StatusInternalServerError
	}
	c.AbortWithStatusJSON(status, gin.H{"ok": false, "error": report.ErrorInfo(err)})
}

func warningCodes(warnings []types.Warning) string {
	codes := make([]string, 0, len(warnings))
	for _, w := range warnings {
		codes = append(codes, w.Code)
	}
	return strings.Join(codes, ",")
}

func (h *handlers) handleDecrypt(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}

	unpacked, err := codec.DecryptWithOptions(body, codec.Options{Strict: h.strict(c)})
	if err != nil {
		abortWithCodecError(c, err)
		return
	}

	c.Header("X-Checksum-Stored", utils.Hex32(unpacked.Checksum))
	c.Header("X-Checksum-Calc", utils.Hex32(unpacked.CalculatedChecksum))
	c.Header("X-Vendor-Tag", utils.Hex32(unpacked.VendorTag))
	c.Header("X-Padlen", strconv.Itoa(int(unpacked.Padlen)))
	if len(unpacked.Warnings) > 0 {
		c.Header("X-Warnings", warningCodes(unpacked.Warnings))
	}
	c.Data(http.StatusOK, "application/octet-stream", unpacked.Payload)
}

func (h *handlers) handleEncrypt(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}

	result, enc, err := report.Encrypt(body)
	if err != nil {
		abortWithCodecError(c, err)
		return
	}

	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, result)
		return
	}

	c.Header("X-Checksum-Stored", result.Checksum)
	c.Data(http.StatusOK, "application/octet-stream", enc)
}

func (h *handlers) handleInspect(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}

	opts := report.Options{
		Strict:         h.strict(c),
		IncludePayload: queryBool(c, "payload", false),
	}
	cipher := body

	// JSON requests carry the cipher base64 or hex encoded
	if strings.HasPrefix(c.ContentType(), "application/json") {
		var req types.InspectRequest
		if err := json.Unmarshal(body, &req); err != nil {
			abortWithError(c, http.StatusBadRequest, "INVALID_JSON", "Failed to parse JSON")
			return
		}

		var err error
		switch {
		case req.CipherB64 != "":
			cipher, err = base64.StdEncoding.DecodeString(req.CipherB64)
		case req.CipherHex != "":
			cipher, err = utils.HexToBytes(req.CipherHex)
		default:
			err = errors.New("cipher_b64 or cipher_hex is required")
		}
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "INVALID_ENCODING", err.Error())
			return
		}

		opts.Strict = opts.Strict || req.Strict
		opts.IncludePayload = opts.IncludePayload || req.IncludePayload
	}

	result, err := report.Inspect(cipher, opts)
	if err != nil {
		abortWithCodecError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *handlers) handleVerify(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}

	result, err := report.Verify(body, nil)
	if err != nil {
		abortWithCodecError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

const fallbackHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Save Lens - Save File Inspector</title>
    <style>
        body { font-family: Arial, sans-serif; max-width: 800px; margin: 50px auto; padding: 20px; }
        h1 { color: #7a2ab5; }
        button { background: #7a2ab5; color: white; padding: 10px 20px; border: none; cursor: pointer; }
        pre { background: #f5f5f5; padding: 15px; overflow-x: auto; }
    </style>
</head>
<body>
    <h1>Save Lens</h1>
    <p>Pick an encrypted save.bin to inspect:</p>
    <input type="file" id="input">
    <label><input type="checkbox" id="strict"> strict</label>
    <br><br>
    <button onclick="inspect()">Inspect Save</button>
    <h2>Result:</h2>
    <pre id="output">Results will appear here...</pre>

    <script>
        async function inspect() {
            const file = document.getElementById('input').files[0];
            const strict = document.getElementById('strict').checked;
            const output = document.getElementById('output');
            if (!file) {
                output.textContent = 'Error: no file selected';
                return;
            }

            try {
                const response = await fetch('/api/inspect?strict=' + strict, {
                    method: 'POST',
                    headers: {'Content-Type': 'application/octet-stream'},
                    body: await file.arrayBuffer()
                });
                const result = await response.json();
                output.textContent = JSON.stringify(result, null, 2);
            } catch (err) {
                output.textContent = 'Error: ' + err.message;
            }
        }
    </script>
</body>
</html>`
