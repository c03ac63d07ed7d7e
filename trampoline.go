// Completion: 100% - C-ABI trampolines complete
//go:build linux

package vdsotime

/*
#include <stdint.h>
#include <time.h>
#include <sys/time.h>

// Go dispatchers, exported from callbacks.go.
extern void vdsotimeGoClockGetTime(int32_t clockid, int64_t *sec, int64_t *nsec);
extern void vdsotimeGoClockGetRes(int32_t clockid, int64_t *sec, int64_t *nsec);
extern void vdsotimeGoGetTimeOfDay(int64_t *sec, int64_t *usec);
extern int64_t vdsotimeGoTime(void);

// The C-ABI trampolines. Their addresses are the jump targets written into
// patched vDSO symbols, so each signature must match what the kernel
// exports for that entry. Null out-pointers skip the store.

static int vdsotimeClockGetTime(clockid_t clockid, struct timespec *ts) {
	int64_t sec, nsec;
	vdsotimeGoClockGetTime((int32_t)clockid, &sec, &nsec);
	if (ts != NULL) {
		ts->tv_sec = (time_t)sec;
		ts->tv_nsec = (long)nsec;
	}
	return 0;
}

static int vdsotimeClockGetRes(clockid_t clockid, struct timespec *ts) {
	int64_t sec, nsec;
	vdsotimeGoClockGetRes((int32_t)clockid, &sec, &nsec);
	if (ts != NULL) {
		ts->tv_sec = (time_t)sec;
		ts->tv_nsec = (long)nsec;
	}
	return 0;
}

static void vdsotimeGetTimeOfDay(struct timeval *tv, void *tz) {
	(void)tz; // time zones are not modelled
	int64_t sec, usec;
	vdsotimeGoGetTimeOfDay(&sec, &usec);
	if (tv != NULL) {
		tv->tv_sec = (time_t)sec;
		tv->tv_usec = (suseconds_t)usec;
	}
}

static time_t vdsotimeTime(time_t *t) {
	time_t res = (time_t)vdsotimeGoTime();
	if (t != NULL) {
		*t = res;
	}
	return res;
}

// Keep the cases in sync with the Kind constants in types.go.
static uintptr_t vdsotimeTrampolineAddr(int kind) {
	switch (kind) {
	case 0: return (uintptr_t)vdsotimeClockGetTime;
	case 1: return (uintptr_t)vdsotimeClockGetRes;
	case 2: return (uintptr_t)vdsotimeGetTimeOfDay;
	case 3: return (uintptr_t)vdsotimeTime;
	}
	return 0;
}
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// trampolineAddr returns the C entry point for kind, the only valid jump
// target for a patched symbol of that kind.
func trampolineAddr(k Kind) (uint64, error) {
	addr := uint64(C.vdsotimeTrampolineAddr(C.int(k)))
	if addr == 0 {
		return 0, fmt.Errorf("no trampoline for kind %s", k)
	}
	return addr, nil
}

// The invoke helpers call the real C trampolines directly. Tests use them
// to exercise the ABI marshalling without patching the live vDSO.

func invokeClockGetTime(clockid int32, ts unsafe.Pointer) int32 {
	return int32(C.vdsotimeClockGetTime(C.clockid_t(clockid), (*C.struct_timespec)(ts)))
}

func invokeClockGetRes(clockid int32, ts unsafe.Pointer) int32 {
	return int32(C.vdsotimeClockGetRes(C.clockid_t(clockid), (*C.struct_timespec)(ts)))
}

func invokeGetTimeOfDay(tv, tz unsafe.Pointer) {
	C.vdsotimeGetTimeOfDay((*C.struct_timeval)(tv), tz)
}

func invokeTime(t unsafe.Pointer) Time {
	return Time(C.vdsotimeTime((*C.time_t)(t)))
}
