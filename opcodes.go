// Completion: 100% - Jump stub emission complete for all three architectures
//go:build linux

package vdsotime

import (
	"encoding/binary"
	"fmt"
)

// Minimum jump stub sizes per architecture. A patched symbol slot must be
// at least this large or the stub cannot be placed.
const (
	minStubX86_64  = 12 // mov rax, imm64; jmp rax
	minStubARM64   = 16 // ldr x0, .+8; br x0; .dword target
	minStubRiscv64 = 20 // auipc t0; ld t1, 12(t0); jr t1; .dword target
)

// MinStubSize returns the smallest jump stub the architecture supports.
func MinStubSize(a Arch) int {
	switch a {
	case ArchX86_64:
		return minStubX86_64
	case ArchARM64:
		return minStubARM64
	case ArchRiscv64:
		return minStubRiscv64
	default:
		return 0
	}
}

// GenerateOpcodes emits an unconditional absolute jump to target, padded
// with NOP instructions while shorter than length. The result is at least
// length bytes; trailing bytes past the stub are whole NOPs. A length
// below the architecture minimum is rejected: restoration depends on the
// stub matching the padded symbol size exactly.
func GenerateOpcodes(a Arch, target uint64, length int) ([]byte, error) {
	switch a {
	case ArchX86_64:
		return generateOpcodesX86_64(target, length)
	case ArchARM64:
		return generateOpcodesARM64(target, length)
	case ArchRiscv64:
		return generateOpcodesRiscv64(target, length)
	default:
		return nil, fmt.Errorf("unsupported architecture: %s", a)
	}
}

// mov rax, target; jmp rax. Padded with single-byte NOPs.
func generateOpcodesX86_64(target uint64, length int) ([]byte, error) {
	if length < minStubX86_64 {
		return nil, fmt.Errorf("%w: x86_64 needs %d bytes, got %d", ErrStubTooSmall, minStubX86_64, length)
	}
	code := make([]byte, 0, length)
	code = append(code, 0x48, 0xB8) // mov rax, imm64
	code = binary.LittleEndian.AppendUint64(code, target)
	code = append(code, 0xFF, 0xE0) // jmp rax
	for len(code) < length {
		code = append(code, 0x90) // nop
	}
	return code, nil
}

// ldr x0, .+8; br x0; .dword target. Padded with 4-byte NOPs.
func generateOpcodesARM64(target uint64, length int) ([]byte, error) {
	if length < minStubARM64 {
		return nil, fmt.Errorf("%w: aarch64 needs %d bytes, got %d", ErrStubTooSmall, minStubARM64, length)
	}
	code := make([]byte, 0, length)
	code = append(code, 0x40, 0x00, 0x00, 0x58) // ldr x0, .+8
	code = append(code, 0x00, 0x00, 0x1F, 0xD6) // br x0
	code = binary.LittleEndian.AppendUint64(code, target)
	for len(code) < length {
		code = append(code, 0x1F, 0x20, 0x03, 0xD5) // nop
	}
	return code, nil
}

// auipc t0, 0; ld t1, 12(t0); jr t1; .dword target. Padded with 4-byte NOPs.
func generateOpcodesRiscv64(target uint64, length int) ([]byte, error) {
	if length < minStubRiscv64 {
		return nil, fmt.Errorf("%w: riscv64 needs %d bytes, got %d", ErrStubTooSmall, minStubRiscv64, length)
	}
	code := make([]byte, 0, length)
	code = append(code, 0x97, 0x02, 0x00, 0x00) // auipc t0, 0
	code = append(code, 0x03, 0xB3, 0xC2, 0x00) // ld t1, 12(t0)
	code = append(code, 0x67, 0x00, 0x03, 0x00) // jr t1
	code = binary.LittleEndian.AppendUint64(code, target)
	for len(code) < length {
		code = append(code, 0x13, 0x00, 0x00, 0x00) // nop (addi x0, x0, 0)
	}
	return code, nil
}
