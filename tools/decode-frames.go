//go:build ignore

// Decode-frames is a development helper for captured G6 HID traffic.
//
// It reads hex-encoded 64-byte frames (one per line, whitespace ignored,
// from a file or stdin) and prints the decoded message for each. Useful when
// diffing a USB capture against what the parser makes of it.
//
// Usage:
//
//	go run tools/decode-frames.go capture.txt
//	cat capture.txt | go run tools/decode-frames.go
package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/g6audio/g6ctl/internal/protocol"
)

func main() {
	in := os.Stdin
	if len(os.Args) > 1 {
		f, err := os.Open(os.Args[1])
		if err != nil {
			fmt.Printf("Error opening file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	lineNum := 0
	decoded := 0
	unrecognized := 0

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Allow "5a 12 07 ..." and "5a1207..." alike
		cleaned := strings.NewReplacer(" ", "", "\t", "", ":", "").Replace(line)
		frame, err := hex.DecodeString(cleaned)
		if err != nil {
			fmt.Printf("line %d: bad hex: %v\n", lineNum, err)
			continue
		}

		// Short captures are common; pad to a full report so the parser
		// sees the same layout the transport delivers.
		if len(frame) < protocol.FrameSize {
			padded := make([]byte, protocol.FrameSize)
			copy(padded, frame)
			frame = padded
		}

		msg := protocol.Decode(frame)
		if _, ok := msg.(*protocol.Unrecognized); ok {
			unrecognized++
		} else {
			decoded++
		}

		fmt.Printf("line %3d  %-14s  %s\n", lineNum, msg.Family(), msg)
	}
	if err := scanner.Err(); err != nil {
		fmt.Printf("Error reading input: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Printf("Summary: %d decoded, %d unrecognized\n", decoded, unrecognized)
}
