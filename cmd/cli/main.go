package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"save-lens/pkg/codec"
	"save-lens/pkg/config"
	"save-lens/pkg/report"
	"save-lens/pkg/types"
)

const usage = `Usage:
  cli decrypt [-strict] [-quiet] <cipher> <out_plain>
  cli encrypt <plain> <out_cipher>
  cli inspect [-strict] [-payload] [-out dir] <cipher>
  cli verify <cipher>`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// cli carries the output streams shared by all commands
type cli struct {
	stdout io.Writer
	stderr io.Writer
	cfg    *config.Config
}

func run(args []string, stdout, stderr io.Writer) int {
	c := &cli{stdout: stdout, stderr: stderr, cfg: config.Load()}

	if len(args) < 1 {
		c.printError("INVALID_ARGS", usage)
		return 1
	}

	switch args[0] {
	case "decrypt":
		return c.handleDecrypt(args[1:])
	case "encrypt":
		return c.handleEncrypt(args[1:])
	case "inspect":
		return c.handleInspect(args[1:])
	case "verify":
		return c.handleVerify(args[1:])
	default:
		c.printError("INVALID_ARGS", fmt.Sprintf("Unknown command %q\n%s", args[0], usage))
		return 1
	}
}

func (c *cli) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

func (c *cli) warnFunc(quiet bool) codec.WarnFunc {
	if quiet {
		return codec.Discard
	}
	return func(w types.Warning) {
		fmt.Fprintf(c.stderr, "[warn] %s\n", w.Message)
	}
}

func (c *cli) handleDecrypt(args []string) int {
	fs := c.newFlagSet("decrypt")
	strict := fs.Bool("strict", c.cfg.Codec.Strict, "fail on checksum mismatch or misaligned input")
	quiet := fs.Bool("quiet", false, "do not print integrity warnings")
	if err := fs.Parse(args); err != nil || fs.NArg() != 2 {
		c.printError("INVALID_ARGS", "decrypt requires: <cipher> <out_plain>")
		return 1
	}
	cipherPath, outPath := fs.Arg(0), fs.Arg(1)

	// Read encrypted file
	enc, err := os.ReadFile(cipherPath)
	if err != nil {
		c.printFileError(cipherPath, err)
		return 1
	}

	fmt.Fprintf(c.stdout, "[info] len(enc)=%d\n", len(enc))

	unpacked, err := codec.DecryptWithOptions(enc, codec.Options{Strict: *strict, Warn: c.warnFunc(*quiet)})
	if err != nil {
		c.printError(report.ErrorCode(err), err.Error())
		return 1
	}

	fmt.Fprintf(c.stdout, "[info] padlen=%d  extra4=0x%08x\n", unpacked.Padlen, unpacked.VendorTag)

	status := "OK"
	if unpacked.Checksum != unpacked.CalculatedChecksum {
		status = "MISMATCH"
	}
	fmt.Fprintf(c.stdout, "[info] checksum stored=0x%08x  calc=0x%08x  -> %s\n",
		unpacked.Checksum, unpacked.CalculatedChecksum, status)

	// Write decrypted payload
	if err := os.WriteFile(outPath, unpacked.Payload, 0644); err != nil {
		c.printError("IO_ERROR", fmt.Sprintf("Failed to write plaintext file: %v", err))
		return 1
	}

	fmt.Fprintf(c.stdout, "[ok] wrote payload -> %s\n", outPath)
	return 0
}

func (c *cli) handleEncrypt(args []string) int {
	fs := c.newFlagSet("encrypt")
	if err := fs.Parse(args); err != nil || fs.NArg() != 2 {
		c.printError("INVALID_ARGS", "encrypt requires: <plain> <out_cipher>")
		return 1
	}
	plainPath, outPath := fs.Arg(0), fs.Arg(1)

	payload, err := os.ReadFile(plainPath)
	if err != nil {
		c.printFileError(plainPath, err)
		return 1
	}

	enc, err := codec.Encrypt(payload)
	if err != nil {
		c.printError(report.ErrorCode(err), err.Error())
		return 1
	}

	if err := os.WriteFile(outPath, enc, 0644); err != nil {
		c.printError("IO_ERROR", fmt.Sprintf("Failed to write cipher file: %v", err))
		return 1
	}

	fmt.Fprintf(c.stdout, "[ok] wrote encrypted block -> %s\n", outPath)
	return 0
}

func (c *cli) handleInspect(args []string) int {
	fs := c.newFlagSet("inspect")
	strict := fs.Bool("strict", c.cfg.Codec.Strict, "fail on checksum mismatch or misaligned input")
	withPayload := fs.Bool("payload", false, "include the payload as base64")
	outDir := fs.String("out", c.cfg.Output.Dir, "directory for the JSON report")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		c.printError("INVALID_ARGS", "inspect requires: <cipher>")
		return 1
	}
	cipherPath := fs.Arg(0)

	enc, err := os.ReadFile(cipherPath)
	if err != nil {
		c.printFileError(cipherPath, err)
		return 1
	}

	result, err := report.Inspect(enc, report.Options{
		Strict:         *strict,
		IncludePayload: *withPayload,
		Warn:           codec.Discard,
	})
	if err != nil {
		c.printError(report.ErrorCode(err), err.Error())
		return 1
	}

	// Create output directory
	if err := os.MkdirAll(*outDir, 0755); err != nil {
		c.printError("IO_ERROR", fmt.Sprintf("Failed to create output directory: %v", err))
		return 1
	}

	// Write to file
	outputPath := filepath.Join(*outDir, result.ID+".json")
	outputJSON, _ := json.MarshalIndent(result, "", "  ")
	if err := os.WriteFile(outputPath, outputJSON, 0644); err != nil {
		c.printError("IO_ERROR", fmt.Sprintf("Failed to write output file: %v", err))
		return 1
	}

	// Print to stdout
	fmt.Fprintln(c.stdout, string(outputJSON))
	return 0
}

func (c *cli) handleVerify(args []string) int {
	fs := c.newFlagSet("verify")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		c.printError("INVALID_ARGS", "verify requires: <cipher>")
		return 1
	}
	cipherPath := fs.Arg(0)

	enc, err := os.ReadFile(cipherPath)
	if err != nil {
		c.printFileError(cipherPath, err)
		return 1
	}

	result, err := report.Verify(enc, c.warnFunc(false))
	if err != nil {
		c.printError(report.ErrorCode(err), err.Error())
		return 1
	}

	outputJSON, _ := json.MarshalIndent(result, "", "  ")
	fmt.Fprintln(c.stdout, string(outputJSON))

	if !result.OK {
		return 1
	}
	return 0
}

func (c *cli) printFileError(path string, err error) {
	if os.IsNotExist(err) {
		c.printError("FILE_NOT_FOUND", fmt.Sprintf("File not found: %s", path))
		return
	}
	c.printError("IO_ERROR", fmt.Sprintf("Failed to read %s: %v", path, err))
}

func (c *cli) printError(code, message string) {
	type errorOutput struct {
		OK    bool             `json:"ok"`
		Error *types.ErrorInfo `json:"error"`
	}
	errOutput := errorOutput{
		OK: false,
		Error: &types.ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
	errJSON, _ := json.Marshal(errOutput)
	fmt.Fprintln(c.stdout, string(errJSON))
	fmt.Fprintf(c.stderr, "Error: %s\n", message)
}
