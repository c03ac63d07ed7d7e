// Completion: 100% - Integration tests complete
//go:build linux

package vdsotime

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"
)

// The tests below patch the live vDSO of the test process. While a
// constant clock_gettime hook is installed the monotonic clock is frozen
// too, so nothing may sleep during a freeze window; sleeps happen only
// while the real clock is live.

func frozenClock(clockID int32) TimeSpec {
	return TimeSpec{Seconds: 111, Nanos: 333}
}

// TestRegularClockTicks checks the unpatched baseline
func TestRegularClockTicks(t *testing.T) {
	a := time.Now()
	time.Sleep(time.Millisecond) // clocks can be coarse
	b := time.Now()
	if a.Equal(b) {
		t.Error("Expected distinct timestamps from the live clock")
	}
}

// TestRead checks discovery against the live vDSO
func TestRead(t *testing.T) {
	v, err := Read()
	if err != nil {
		t.Fatalf("Failed to read vdso: %v", err)
	}
	if v.Base() == 0 {
		t.Error("Expected a non-zero base address")
	}
	if len(v.data) == 0 {
		t.Error("Expected a non-empty snapshot")
	}
	syms := v.Symbols()
	if len(syms) == 0 {
		t.Fatal("Expected dynamic symbols in the vdso")
	}
	for _, s := range syms {
		if s.Name == "" {
			t.Error("Expected every symbol to have a name")
		}
		if int(s.Offset+s.Size) > len(v.data) {
			t.Errorf("%s: slot [%#x, %#x) extends past the image", s.Name, s.Offset, s.Offset+s.Size)
		}
	}
}

// TestFreezeSystemClock freezes the clock, observes it, restores it
func TestFreezeSystemClock(t *testing.T) {
	v, err := Read()
	if err != nil {
		t.Fatalf("Failed to read vdso: %v", err)
	}
	hook := v.Entry(GetTime)
	if hook == nil {
		t.Fatal("Could not find clock")
	}
	handle, err := hook.Overwrite(frozenClock)
	if err != nil {
		t.Fatalf("Failed to overwrite %s: %v", hook.Name(), err)
	}
	a := time.Now()
	b := time.Now()
	handle.Restore()
	if !a.Equal(b) {
		t.Errorf("Expected identical frozen timestamps, got %v and %v", a, b)
	}
	if a.Unix() != 111 {
		t.Errorf("Expected frozen seconds 111, got %d", a.Unix())
	}

	c := time.Now()
	time.Sleep(time.Millisecond)
	d := time.Now()
	if c.Equal(d) {
		t.Error("Expected distinct timestamps after restore")
	}
}

// TestRestorationRoundTrip checks that restore puts the original bytes back
func TestRestorationRoundTrip(t *testing.T) {
	v, err := Read()
	if err != nil {
		t.Fatalf("Failed to read vdso: %v", err)
	}
	hook := v.Entry(GetTime)
	if hook == nil {
		t.Fatal("Could not find clock")
	}
	original := append([]byte(nil), v.snapshot(hook.sym)...)

	handle, err := hook.Overwrite(frozenClock)
	if err != nil {
		t.Fatalf("Failed to overwrite %s: %v", hook.Name(), err)
	}
	patched, err := Read()
	if err != nil {
		handle.Restore()
		t.Fatalf("Failed to re-read patched vdso: %v", err)
	}
	handle.Restore()

	live := patched.data[hook.sym.Offset : hook.sym.Offset+hook.sym.Size]
	if bytes.Equal(live, original) {
		t.Error("Expected the patched slot to differ from the original bytes")
	}

	restored, err := Read()
	if err != nil {
		t.Fatalf("Failed to re-read restored vdso: %v", err)
	}
	live = restored.data[hook.sym.Offset : hook.sym.Offset+hook.sym.Size]
	if !bytes.Equal(live, original) {
		t.Errorf("Restored slot differs from the original bytes:\n% x\nvs\n% x", live, original)
	}
}

// TestManyThreads hammers the frozen clock from ten goroutines
func TestManyThreads(t *testing.T) {
	v, err := Read()
	if err != nil {
		t.Fatalf("Failed to read vdso: %v", err)
	}
	hook := v.Entry(GetTime)
	if hook == nil {
		t.Fatal("Could not find clock")
	}
	handle, err := hook.Overwrite(frozenClock)
	if err != nil {
		t.Fatalf("Failed to overwrite %s: %v", hook.Name(), err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var wrong []time.Time
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				now := time.Now()
				if now.Unix() != 111 || now.Nanosecond() != 333 {
					mu.Lock()
					wrong = append(wrong, now)
					mu.Unlock()
				}
				runtime.Gosched()
			}
		}()
	}
	wg.Wait()
	handle.Restore()

	if len(wrong) > 0 {
		t.Errorf("%d reads did not observe the frozen clock, first: %v", len(wrong), wrong[0])
	}
	time.Sleep(time.Millisecond)
	if now := time.Now(); now.Unix() == 111 {
		t.Errorf("Expected a fresh value after restore, got %v", now)
	}
}

// TestReadAfterSetenv checks that discovery survives environment mutation
func TestReadAfterSetenv(t *testing.T) {
	os.Setenv("SOMETHING", "VALUE")
	defer os.Unsetenv("SOMETHING")
	v, err := Read()
	if err != nil {
		t.Fatalf("Failed to read vdso after setenv: %v", err)
	}
	if len(v.Symbols()) == 0 {
		t.Error("Expected dynamic symbols after setenv")
	}
}

// TestAbsentKind checks that aarch64 yields no time entry (elsewhere a
// missing one is only logged) and that clock_gettime stays available
func TestAbsentKind(t *testing.T) {
	v, err := Read()
	if err != nil {
		t.Fatalf("Failed to read vdso: %v", err)
	}
	hook := v.Entry(TimeFunc)
	if HostArch() == ArchARM64 {
		if hook != nil {
			t.Errorf("Expected no time entry on aarch64, got %s", hook.Name())
		}
	} else if hook == nil {
		t.Logf("No %s entry in this vdso", TimeFunc)
	}
	// The system stays operable either way.
	if v.Entry(GetTime) == nil {
		t.Error("Expected a clock_gettime entry")
	}
}

// TestOverwriteRejectsWrongCallback checks the type check before any patch
func TestOverwriteRejectsWrongCallback(t *testing.T) {
	v, err := Read()
	if err != nil {
		t.Fatalf("Failed to read vdso: %v", err)
	}
	hook := v.Entry(GetTime)
	if hook == nil {
		t.Fatal("Could not find clock")
	}
	if _, err := hook.Overwrite(func() Time { return 0 }); err == nil {
		t.Error("Expected a type mismatch error")
	}
	// The clock must still be live.
	a := time.Now()
	time.Sleep(time.Millisecond)
	if a.Equal(time.Now()) {
		t.Error("Expected the clock to keep ticking after a rejected overwrite")
	}
}

// TestDump writes the snapshot and checks its size
func TestDump(t *testing.T) {
	v, err := Read()
	if err != nil {
		t.Fatalf("Failed to read vdso: %v", err)
	}
	path := filepath.Join(t.TempDir(), "vdso.elf")
	if err := v.Dump(path); err != nil {
		t.Fatalf("Failed to dump: %v", err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat dump: %v", err)
	}
	if fi.Size() != int64(len(v.data)) {
		t.Errorf("Expected %d dumped bytes, got %d", len(v.data), fi.Size())
	}
}
