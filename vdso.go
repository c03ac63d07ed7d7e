// Completion: 100% - Patcher façade complete
//go:build linux

// Package vdsotime redirects the time functions exported by the kernel
// vDSO to user-supplied Go functions, for the current process only.
//
// The entry point of a chosen symbol (clock_gettime, gettimeofday,
// clock_getres or time) is overwritten with an absolute jump stub that
// lands in a C-ABI trampoline, which routes the call through a
// process-wide callback slot. Code that bypasses the vDSO and issues the
// raw syscall is unaffected. The patch sequence is not atomic with
// respect to other threads executing the symbol; callers must quiesce
// them or tolerate racy reads during the window.
package vdsotime

import (
	"fmt"
	"os"
	"sync"
	"unsafe"

	"github.com/xyproto/env/v2"
)

// VDSO is a snapshot of the kernel-mapped vDSO plus the location of the
// live mapping. The snapshot is taken once at discovery and never changes;
// it is both the parse input for symbol enumeration and the authoritative
// original for restoration. The live mapping changes through Overwrite
// and Restore.
type VDSO struct {
	base uintptr
	data []byte
	aux  *AuxValues
	syms []DynSym

	mu sync.Mutex // serializes patch sequences on the live mapping
}

// Read locates the vDSO through the auxiliary vector, snapshots the whole
// image into a fresh buffer and enumerates its dynamic symbols. Discovery
// failures come back as typed errors and mutate nothing.
func Read() (*VDSO, error) {
	aux, err := readAuxValues()
	if err != nil {
		return nil, err
	}
	// Copy the header to a private buffer before sizing the image; the
	// live mapping is shared with every other thread.
	var ehdr [ehdrSize]byte
	copy(ehdr[:], unsafe.Slice((*byte)(unsafe.Pointer(aux.Base)), ehdrSize))
	total, err := imageSize(ehdr[:])
	if err != nil {
		return nil, err
	}
	data := make([]byte, total)
	copy(data, unsafe.Slice((*byte)(unsafe.Pointer(aux.Base)), total))
	syms, err := dynamicSymbols(data)
	if err != nil {
		return nil, err
	}
	debugf("vdsotime: vdso at %#x, %d bytes, %d dynamic symbols\n", aux.Base, total, len(syms))
	return &VDSO{base: aux.Base, data: data, aux: aux, syms: syms}, nil
}

// Base returns the address of the live vDSO mapping.
func (v *VDSO) Base() uintptr {
	return v.base
}

// Symbols returns a copy of the enumerated dynamic symbol table.
func (v *VDSO) Symbols() []DynSym {
	out := make([]DynSym, len(v.syms))
	copy(out, v.syms)
	return out
}

// Entry returns a hook for the given kind, or nil when the host
// architecture's vDSO does not export it (aarch64 has no time entry).
// Only the __vdso_ / __kernel_ prefixed names are considered.
func (v *VDSO) Entry(kind Kind) *SymbolHook {
	name := kind.symbolName(HostArch())
	if name == "" {
		return nil
	}
	for _, s := range v.syms {
		if s.Name == name {
			return &SymbolHook{v: v, kind: kind, sym: s}
		}
	}
	return nil
}

// Dump writes the discovery-time snapshot to path, for offline inspection
// with readelf and friends. An empty path falls back to VDSOTIME_DUMP.
func (v *VDSO) Dump(path string) error {
	if path == "" {
		path = env.Str("VDSOTIME_DUMP", "vdso.bin")
	}
	return os.WriteFile(path, v.data, 0o644)
}

// SymbolHook is one hookable vDSO entry.
type SymbolHook struct {
	v    *VDSO
	kind Kind
	sym  DynSym
}

// Name returns the vDSO export name of the hooked symbol.
func (h *SymbolHook) Name() string {
	return h.sym.Name
}

// Overwrite installs cb in the registry slot for this symbol's kind, then
// replaces the symbol body with a jump stub into the matching trampoline.
// The returned Handle captures the pre-patch bytes and restores them.
func (h *SymbolHook) Overwrite(cb Callback) (*Handle, error) {
	if err := installCallback(h.kind, cb); err != nil {
		return nil, err
	}
	target, err := trampolineAddr(h.kind)
	if err != nil {
		return nil, err
	}
	code, err := GenerateOpcodes(HostArch(), target, int(h.sym.Size))
	if err != nil {
		return nil, err
	}
	if uint64(len(code)) != h.sym.Size {
		// NOP padding overshot the slot; writing it would clobber the
		// next symbol.
		return nil, fmt.Errorf("%w: %d byte stub for a %d byte slot", ErrStubTooSmall, len(code), h.sym.Size)
	}
	backup := h.v.snapshot(h.sym)
	if err := h.v.overwrite(h.sym.Offset, code); err != nil {
		return nil, err
	}
	debugf("vdsotime: %s patched at offset %#x (%d bytes) -> trampoline %#x\n", h.sym.Name, h.sym.Offset, h.sym.Size, target)
	return &Handle{v: h.v, name: h.sym.Name, offset: h.sym.Offset, data: backup}, nil
}

// Handle captures the pre-patch bytes of one symbol. Dropping a Handle
// without calling Restore leaves the hook in place.
type Handle struct {
	v      *VDSO
	name   string
	offset uint64
	data   []byte
}

// Restore writes the captured bytes back over the jump stub. The callback
// slot stays populated, which is harmless: the trampoline is no longer
// reachable from the vDSO. Restore panics if the protection change is
// rejected, since the same pages were writable moments earlier.
func (h *Handle) Restore() {
	if err := h.v.overwrite(h.offset, h.data); err != nil {
		panic(fmt.Sprintf("vdsotime: restore of %s failed: %v", h.name, err))
	}
	debugf("vdsotime: %s restored at offset %#x\n", h.name, h.offset)
}
