// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors
//
// cts1 - CTS-SAT-1 ground support tooling
//
// Telecommand catalog, wire encoder, release-gate audits and an interactive
// telecommand terminal for the CTS-SAT-1 on-board computer.

package main

import (
	"errors"
	"os"

	"github.com/CTS-SAT-1/ground-support/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		var exitErr *cmd.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
