// Package detector chooses between the interactive dashboard and plain output.
package detector

import (
	"io"
	"os"

	"golang.org/x/term"
)

// OutputMode represents how watch mode presents batches.
type OutputMode int

const (
	// ModeAuto picks a mode from the environment.
	ModeAuto OutputMode = iota
	// ModeTUI forces the interactive dashboard.
	ModeTUI
	// ModeLinear forces one printed summary per batch.
	ModeLinear
)

// DetectEnvironment returns the recommended output mode for w.
// It checks whether w is a TTY and whether CI is set.
func DetectEnvironment(w io.Writer) OutputMode {
	f, ok := w.(*os.File)
	isTTY := ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int

	ci := os.Getenv("CI")
	isCI := ci == "true" || ci == "1"

	if !isTTY || isCI {
		return ModeLinear
	}
	return ModeTUI
}

// ResolveMode applies the user's flag to the detected mode.
// userFlag should be one of "auto", "tui", "linear", "ci" or empty.
func ResolveMode(autoDetected OutputMode, userFlag string) OutputMode {
	switch userFlag {
	case "tui":
		return ModeTUI
	case "linear", "ci":
		return ModeLinear
	default:
		return autoDetected
	}
}
