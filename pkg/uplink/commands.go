// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

package uplink

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// MaxArgumentsLength is the longest argument string (without parens) the
// firmware accepts.
const MaxArgumentsLength = 254

// reservedCharacters cannot appear inside an argument.
const reservedCharacters = "(),!"

// ArgumentError describes why an argument list would be rejected by the
// firmware parser.
type ArgumentError struct {
	Command string
	Index   int // -1 when the problem is the list as a whole
	Reason  string
}

func (e *ArgumentError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s", e.Command, e.Reason)
	}
	return fmt.Sprintf("%s: argument %d: %s", e.Command, e.Index, e.Reason)
}

// CheckArgument reports whether a single argument value can be sent as-is.
func CheckArgument(value string) error {
	if value == "" {
		return errors.New("argument is empty")
	}
	if i := strings.IndexAny(value, reservedCharacters); i >= 0 {
		return fmt.Errorf("argument contains reserved character %q", value[i])
	}
	return nil
}

// CheckArguments checks an argument list against a command's declared count
// using the same rule as the firmware: a zero-argument command takes an empty
// list, otherwise the joined list must hold exactly count-1 commas.
func CheckArguments(command string, count int, args []string) error {
	if len(args) != count {
		return &ArgumentError{
			Command: command,
			Index:   -1,
			Reason:  fmt.Sprintf("accepts %d argument(s), got %d", count, len(args)),
		}
	}

	for i, arg := range args {
		if err := CheckArgument(arg); err != nil {
			return &ArgumentError{Command: command, Index: i, Reason: err.Error()}
		}
	}

	if n := len(strings.Join(args, string(argsSeparator))); n > MaxArgumentsLength {
		return &ArgumentError{
			Command: command,
			Index:   -1,
			Reason:  fmt.Sprintf("arguments are %d characters long, limit is %d", n, MaxArgumentsLength),
		}
	}

	return nil
}

// Bulk uplink commands
const (
	CommandBulkUplinkChunk = "bulkup64"
	CommandBulkUplinkOpen  = "comms_bulk_uplink_open_file"
	CommandBulkUplinkClose = "comms_bulk_uplink_close_file"
	CommandReadFileSHA256  = "fs_read_file_sha256_hash_json"

	// DefaultChunkSize is the number of file bytes per bulkup64 command,
	// before base64 encoding.
	DefaultChunkSize = 64
)

// BulkUplinkPlan is the command sequence that writes a file to the
// satellite filesystem.
type BulkUplinkPlan struct {
	Destination string
	Size        int

	// Setup closes any half-finished transfer and opens the destination.
	Setup []string
	// Chunks hold the file contents, in order.
	Chunks []string
	// ChunkSizes holds the number of file bytes in each chunk.
	ChunkSizes []int
	// Teardown closes the file and asks the satellite for its hash.
	Teardown []string

	// SHA256 is the hex digest of the file, to compare with the satellite's.
	SHA256 string
}

// PlanBulkUplink splits data into bulkup64 commands.
func PlanBulkUplink(data []byte, destination string, chunkSize int) (BulkUplinkPlan, error) {
	if err := CheckArgument(destination); err != nil {
		return BulkUplinkPlan{}, fmt.Errorf("invalid destination path: %w", err)
	}
	if chunkSize <= 0 {
		return BulkUplinkPlan{}, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if encoded := base64.StdEncoding.EncodedLen(chunkSize); encoded > MaxArgumentsLength {
		return BulkUplinkPlan{}, fmt.Errorf("chunk size %d encodes to %d characters, limit is %d",
			chunkSize, encoded, MaxArgumentsLength)
	}

	sum := sha256.Sum256(data)
	plan := BulkUplinkPlan{
		Destination: destination,
		Size:        len(data),
		Setup: []string{
			Encode(CommandBulkUplinkClose, nil, Options{}),
			Encode(CommandBulkUplinkOpen, []string{destination, "truncate"}, Options{}),
		},
		Teardown: []string{
			Encode(CommandBulkUplinkClose, nil, Options{}),
			Encode(CommandReadFileSHA256, []string{destination, "0", "0"}, Options{}),
		},
		SHA256: hex.EncodeToString(sum[:]),
	}

	for start := 0; start < len(data); start += chunkSize {
		end := min(start+chunkSize, len(data))
		chunk := base64.StdEncoding.EncodeToString(data[start:end])
		plan.Chunks = append(plan.Chunks, Encode(CommandBulkUplinkChunk, []string{chunk}, Options{}))
		plan.ChunkSizes = append(plan.ChunkSizes, end-start)
	}

	return plan, nil
}

// Commands returns every command of the plan in transmit order.
func (p BulkUplinkPlan) Commands() []string {
	out := make([]string, 0, len(p.Setup)+len(p.Chunks)+len(p.Teardown))
	out = append(out, p.Setup...)
	out = append(out, p.Chunks...)
	return append(out, p.Teardown...)
}

// BulkUplinkCommands returns the full command sequence for uploading data.
func BulkUplinkCommands(data []byte, destination string, chunkSize int) ([]string, error) {
	plan, err := PlanBulkUplink(data, destination, chunkSize)
	if err != nil {
		return nil, err
	}
	return plan.Commands(), nil
}

// ChunkAcknowledged reports whether response contains the firmware's
// acknowledgement of a chunk of n bytes.
func ChunkAcknowledged(response []byte, n int) bool {
	const rule = "=========================="
	want := fmt.Sprintf("%s\n%d\n%s", rule, n, rule)
	return strings.Count(string(response), want) == 1
}

// HashConfirmed reports whether response contains the expected hex digest.
func HashConfirmed(response []byte, sha256Hex string) bool {
	return sha256Hex != "" && strings.Contains(strings.ToLower(string(response)), strings.ToLower(sha256Hex))
}
