// Completion: 100% - Process map diagnostics complete
//go:build linux

package vdsotime

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// MemoryRange is one mapping of the process address space, [Start, End),
// with the writable flag as observed at scan time.
type MemoryRange struct {
	Start    uintptr
	End      uintptr
	Writable bool
}

// Len returns the mapping length in bytes.
func (r *MemoryRange) Len() int {
	return int(r.End - r.Start)
}

// FindMemoryRange scans /proc/self/maps for the vDSO mapping. This is a
// diagnostic: the patching core locates the vDSO through the auxiliary
// vector and never opens a file. A Writable result means a patch window
// is open (or a previous patch sequence died before restoring RX).
func FindMemoryRange() (*MemoryRange, error) {
	f, err := os.Open("/proc/self/maps")
	if err != nil {
		return nil, fmt.Errorf("opening process map: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, "[vdso]") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		startStr, endStr, ok := strings.Cut(fields[0], "-")
		if !ok {
			continue
		}
		start, err := strconv.ParseUint(startStr, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing map range %q: %w", fields[0], err)
		}
		end, err := strconv.ParseUint(endStr, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing map range %q: %w", fields[0], err)
		}
		return &MemoryRange{
			Start:    uintptr(start),
			End:      uintptr(end),
			Writable: strings.Contains(fields[1], "w"),
		}, nil
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading process map: %w", err)
	}
	return nil, ErrNoVDSORange
}
