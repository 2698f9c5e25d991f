// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package color

import (
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/term"
)

const (
	// NoColor is the environment variable that disables color output.
	NoColor = "NO_COLOR"
	// ForceColor is the environment variable that forces color output.
	ForceColor = "FORCE_COLOR"

	csi   = "\033["
	reset = "\033[0m"
)

// Code is an SGR parameter.
type Code int

// Attributes.
const (
	Reset Code = 0
	Bold  Code = 1
	Faint Code = 2
)

// Foreground colours.
const (
	FgRed     Code = 31
	FgGreen   Code = 32
	FgYellow  Code = 33
	FgBlue    Code = 34
	FgMagenta Code = 35
	FgCyan    Code = 36
	FgWhite   Code = 37

	FgHiBlack   Code = 90
	FgHiRed     Code = 91
	FgHiGreen   Code = 92
	FgHiMagenta Code = 95
	FgHiWhite   Code = 97
)

var enabled atomic.Bool

func init() {
	enabled.Store(isColorCapable())
}

// Enabled reports whether Colorize emits escape codes.
// NO_COLOR wins over FORCE_COLOR; otherwise stdout must be a terminal.
func Enabled() bool {
	return enabled.Load()
}

// SetEnabled overrides terminal detection and returns the previous value.
func SetEnabled(v bool) bool {
	return enabled.Swap(v)
}

// Colorize wraps s in the given codes followed by a reset.
func Colorize(s string, codes ...Code) string {
	if !Enabled() || len(codes) == 0 {
		return s
	}

	sb := strings.Builder{}
	sb.Grow(len(s) + len(csi) + len(reset) + 4*len(codes))
	sb.WriteString(csi)

	for i, c := range codes {
		if i > 0 {
			sb.WriteByte(';')
		}

		sb.WriteString(strconv.Itoa(int(c)))
	}

	sb.WriteByte('m')
	sb.WriteString(s)
	sb.WriteString(reset)

	return sb.String()
}

// Success colours s green.
func Success(s string) string { return Colorize(s, FgGreen) }

// Failure colours s red.
func Failure(s string) string { return Colorize(s, FgRed, Bold) }

// Warning colours s yellow.
func Warning(s string) string { return Colorize(s, FgYellow) }

// Muted renders s faint.
func Muted(s string) string { return Colorize(s, FgHiBlack) }

func isColorCapable() bool {
	if os.Getenv(NoColor) != "" {
		return false
	}

	if os.Getenv(ForceColor) != "" {
		return true
	}

	return term.IsTerminal(int(os.Stdout.Fd()))
}
