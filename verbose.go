// Completion: 100% - Diagnostics complete
//go:build linux

package vdsotime

import (
	"fmt"
	"os"

	"github.com/xyproto/env/v2"
)

// VerboseMode enables diagnostic prints to stderr. Controlled by the
// VDSOTIME_VERBOSE environment variable; may also be set directly.
var VerboseMode = env.Bool("VDSOTIME_VERBOSE")

func debugf(format string, args ...any) {
	if VerboseMode {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
