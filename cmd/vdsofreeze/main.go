// Completion: 100% - Demo complete
//go:build linux

// vdsofreeze freezes the process clock through the vDSO for a moment and
// shows the effect. With -dump it also writes the original, overwritten
// and restored images for inspection with readelf.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xyproto/env/v2"
	"github.com/xyproto/vdsotime"
)

const versionString = "vdsofreeze 1.0.0"

func run() error {
	seconds := flag.Int64("seconds", int64(env.Int("VDSOFREEZE_SECONDS", 111)), "frozen clock value, in seconds since the epoch")
	nanos := flag.Int64("nanos", 333, "frozen clock value, nanosecond part")
	dumpDir := flag.String("dump", "", "directory for vDSO image dumps (empty disables)")
	verbose := flag.Bool("verbose", false, "diagnostic output")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println(versionString)
		return nil
	}
	if *verbose {
		vdsotime.VerboseMode = true
	}

	fmt.Printf("Now: %v\n", time.Now())

	v, err := vdsotime.Read()
	if err != nil {
		return fmt.Errorf("reading vdso: %w", err)
	}
	dump := func(name string) error {
		if *dumpDir == "" {
			return nil
		}
		fresh, err := vdsotime.Read()
		if err != nil {
			return err
		}
		return fresh.Dump(filepath.Join(*dumpDir, name))
	}
	if err := dump("original_vdso.elf"); err != nil {
		return err
	}

	hook := v.Entry(vdsotime.GetTime)
	if hook == nil {
		return fmt.Errorf("no clock_gettime entry in this vdso")
	}
	handle, err := hook.Overwrite(func(clockID int32) vdsotime.TimeSpec {
		return vdsotime.TimeSpec{Seconds: *seconds, Nanos: *nanos}
	})
	if err != nil {
		return fmt.Errorf("overwriting %s: %w", hook.Name(), err)
	}
	if err := dump("overwritten_vdso.elf"); err != nil {
		return err
	}

	// No sleeping here: the hook freezes the monotonic clock too, so a
	// sleep would never see its deadline arrive. Two consecutive reads
	// show the frozen clock just as well.
	fmt.Printf("Frozen: %v\n", time.Now())
	fmt.Printf("Frozen: %v (still)\n", time.Now())

	handle.Restore()
	if err := dump("restored_vdso.elf"); err != nil {
		return err
	}

	fmt.Printf("Now: %v\n", time.Now())
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
