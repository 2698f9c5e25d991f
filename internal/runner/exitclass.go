// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runner

// ExitClass is the meaning of a finished run.
type ExitClass uint8

// Exit classes.
const (
	ExitOK ExitClass = iota
	ExitTimeout
	ExitSupervisorKilled
	ExitNoLicense
	ExitUnexpected
	ExitFailedToStart
)

func (c ExitClass) String() string {
	switch c {
	case ExitOK:
		return "ok"
	case ExitTimeout:
		return "timeout"
	case ExitSupervisorKilled:
		return "killed"
	case ExitNoLicense:
		return "no-license"
	case ExitUnexpected:
		return "unexpected"
	case ExitFailedToStart:
		return "failed-to-start"
	default:
		return "unknown"
	}
}

// Transient reports whether a later attempt may succeed without any change to the task.
func (c ExitClass) Transient() bool {
	return c == ExitSupervisorKilled || c == ExitNoLicense
}

// matchesCode compares an exit status with a sentinel. POSIX truncates exit
// statuses to 8 bits, so -22 is observed as 234.
func matchesCode(code, sentinel int) bool {
	return code == sentinel || code == sentinel&0xff
}
