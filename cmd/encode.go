// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/CTS-SAT-1/ground-support/pkg/telecommand"
	"github.com/CTS-SAT-1/ground-support/pkg/uplink"
	"github.com/spf13/cobra"
)

// Encoding flags shared by preview and send
var (
	encodeSent      bool
	encodeNoSent    bool
	encodeExec      string
	encodeExecIn    time.Duration
	encodeSHA256    bool
	encodeTags      []string
	encodePrefix    string
	encodeUnchecked bool
)

func addEncodeFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&encodeSent, "tssent", false, "Add @tssent with the current Unix time in milliseconds")
	cmd.Flags().BoolVar(&encodeNoSent, "no-tssent", false, "Omit @tssent even when the config enables it")
	cmd.Flags().StringVar(&encodeExec, "tsexec", "", "Add @tsexec with this value (0 executes immediately)")
	cmd.Flags().DurationVar(&encodeExecIn, "tsexec-in", 0, "Add @tsexec this long after now")
	cmd.Flags().BoolVar(&encodeSHA256, "sha256", false, "Add @sha256 of the command body")
	cmd.Flags().StringArrayVar(&encodeTags, "tag", nil, "Extra suffix tag as key=value (repeatable)")
	cmd.Flags().StringVar(&encodePrefix, "prefix", uplink.Prefix, "Command prefix")
	cmd.Flags().BoolVar(&encodeUnchecked, "unchecked", false, "Skip validation against the firmware catalog")
	cmd.MarkFlagsMutuallyExclusive("tssent", "no-tssent")
	cmd.MarkFlagsMutuallyExclusive("tsexec", "tsexec-in")
}

// encodeOptions combines the encoder config with the encoding flags.
func encodeOptions(now time.Time) (uplink.Options, error) {
	opts := uplink.Options{
		SentTimestamp: (cfg.Encoder.SentTimestamp || encodeSent) && !encodeNoSent,
		ExecuteAt:     encodeExec,
		SHA256:        cfg.Encoder.SHA256 || encodeSHA256,
	}
	if encodeExecIn > 0 {
		opts.ExecuteAt = uplink.ExecuteAtTime(now.Add(encodeExecIn))
	}
	if err := checkExecuteAt(opts.ExecuteAt); err != nil {
		return uplink.Options{}, err
	}

	for _, raw := range encodeTags {
		key, value, ok := strings.Cut(raw, "=")
		if !ok || key == "" {
			return uplink.Options{}, fmt.Errorf("invalid tag %q (expected key=value)", raw)
		}
		if strings.ContainsAny(key+value, "@!") {
			return uplink.Options{}, fmt.Errorf("invalid tag %q: '@' and '!' are reserved", raw)
		}
		opts.Extra = append(opts.Extra, uplink.Tag{Key: key, Value: value})
	}
	return opts, nil
}

// checkExecuteAt rejects @tsexec values the firmware can't parse as a uint64
// millisecond timestamp. Empty means no tag.
func checkExecuteAt(value string) error {
	if value == "" {
		return nil
	}
	if _, err := strconv.ParseUint(value, 10, 64); err != nil {
		return fmt.Errorf("@tsexec must be a Unix time in milliseconds, got %q", value)
	}
	return nil
}

// checkCommand validates a command name and its arguments against the catalog.
func checkCommand(cat *telecommand.Catalog, name string, args []string) error {
	d, ok := cat.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown telecommand %q", name)
	}
	if !d.Complete() {
		return fmt.Errorf("telecommand %q is missing required fields: %s", name, strings.Join(d.MissingFields(), ", "))
	}
	return uplink.CheckArguments(name, d.ArgumentCount, args)
}

// buildCommand validates (unless --unchecked) and encodes one telecommand.
func buildCommand(name string, args []string) (uplink.Message, error) {
	if !encodeUnchecked {
		cat, err := loadCatalog()
		if err != nil {
			return uplink.Message{}, fmt.Errorf("%w (use --unchecked to skip validation)", err)
		}
		if err := checkCommand(cat, name, args); err != nil {
			return uplink.Message{}, err
		}
	}

	now := time.Now()
	opts, err := encodeOptions(now)
	if err != nil {
		return uplink.Message{}, err
	}

	enc := uplink.Encoder{
		Prefix: encodePrefix,
		Now:    func() time.Time { return now },
	}
	return enc.Message(name, args, opts), nil
}
