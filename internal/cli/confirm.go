// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// confirm.go - Confirmation for destructive CLI actions.
//
//  1. With --confirm, proceed without prompting
//  2. In --json mode, --confirm is required
//  3. When stdin is not a TTY, --confirm is required
//  4. Otherwise, ask on the terminal
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ConfirmationOptions controls RequireConfirmation.
type ConfirmationOptions struct {
	// ConfirmFlag indicates --confirm was passed
	ConfirmFlag bool
	// JSONMode indicates --json was passed
	JSONMode bool

	// In and Out default to the process stdin and stdout.
	In  io.Reader
	Out io.Writer
	// Interactive overrides TTY detection when non-nil.
	Interactive *bool
}

// RequireConfirmation asks the user to confirm action. It returns false
// without error when the user declines.
func RequireConfirmation(action string, opts ConfirmationOptions) (bool, error) {
	if opts.ConfirmFlag {
		return true, nil
	}
	if opts.JSONMode {
		return false, NewValidationErrorWithExample("confirmation", "",
			"--confirm is required in JSON mode", "guru sessions delete 2 --confirm --json")
	}

	interactive := IsTTY()
	if opts.Interactive != nil {
		interactive = *opts.Interactive
	}
	if !interactive {
		return false, NewValidationError("confirmation", "",
			"stdin is not a terminal; use --confirm")
	}

	in := opts.In
	if in == nil {
		in = os.Stdin
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	fmt.Fprintf(out, "Are you sure you want to %s? [y/N]: ", action)
	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && input == "" {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	response := strings.ToLower(strings.TrimSpace(input))
	return response == "y" || response == "yes", nil
}
