//go:build ignore
// +build ignore

package main

import (
	"fmt"
	"os"

	"save-lens/pkg/codec"
	"save-lens/pkg/utils"
	"save-lens/pkg/xxtea"
)

// Dumps the footer of a plaintext block. Pass -cipher to decrypt the file first.
//
//	go run inspect_trailer.go [-cipher] <file>
func main() {
	args := os.Args[1:]
	decrypt := len(args) > 0 && args[0] == "-cipher"
	if decrypt {
		args = args[1:]
	}
	if len(args) != 1 {
		fmt.Println("usage: go run inspect_trailer.go [-cipher] <file>")
		os.Exit(1)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Printf("Error reading %s: %v\n", args[0], err)
		os.Exit(1)
	}
	if decrypt {
		data = xxtea.DecryptBytes(data, codec.EngineKey())
	}
	block, err := codec.UnpackBlock(data)
	if err != nil {
		fmt.Printf("[!] %v\n", err)
		os.Exit(1)
	}
	payloadLen := len(block.Payload)

	tail := data
	if len(tail) > 16 {
		tail = tail[len(tail)-16:]
	}

	fmt.Printf("[ok] total_len=%d padlen=%d payload_len=%d\n", len(data), block.Padlen, payloadLen)
	fmt.Printf("[ok] checksum_stored=0x%08x  checksum_calc=0x%08x\n", block.Checksum, codec.Checksum(block.Payload))
	fmt.Printf("[info] extra4=0x%08x\n", block.VendorTag)
	fmt.Printf("[tail] last 16 bytes: %s\n", utils.HexSpaced(tail))
	fmt.Printf("[tail] footer raw   : %s\n", utils.HexSpaced(data[payloadLen:payloadLen+codec.FooterLen]))
}
