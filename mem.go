// Completion: 100% - Memory patcher complete
//go:build linux

package vdsotime

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// changeMode flips the protection of the live vDSO mapping between RX and
// RWX. mprotect wants whole pages, so the image length is rounded up to
// the page size from the auxiliary vector.
func (v *VDSO) changeMode(writable bool) error {
	prot := unix.PROT_READ | unix.PROT_EXEC
	if writable {
		prot |= unix.PROT_WRITE
	}
	mapping := unsafe.Slice((*byte)(unsafe.Pointer(v.base)), align(len(v.data), v.aux.PageSize))
	if err := unix.Mprotect(mapping, prot); err != nil {
		return fmt.Errorf("%w: %v", ErrProtectFailed, err)
	}
	return nil
}

// overwrite copies b over the live mapping at off. The mapping is writable
// only for the duration of the copy and goes back to RX on every normal
// exit. The sequence is not atomic with respect to other threads executing
// the region; callers must quiesce them or tolerate the window.
func (v *VDSO) overwrite(off uint64, b []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.changeMode(true); err != nil {
		return err
	}
	dst := unsafe.Slice((*byte)(unsafe.Pointer(v.base+uintptr(off))), len(b))
	copy(dst, b)
	return v.changeMode(false)
}

// snapshot returns the bytes of sym as captured at discovery time. Reads
// come from the cached image, not the live mapping, so later patches do
// not affect the result.
func (v *VDSO) snapshot(sym DynSym) []byte {
	return v.data[sym.Offset : sym.Offset+sym.Size]
}
