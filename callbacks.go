// Completion: 100% - Trampoline dispatchers complete
//go:build linux

package vdsotime

// The //export rule forbids definitions in this file's preamble, so the C
// trampoline bodies live in trampoline.go and only declarations appear
// here.

/*
#include <stdint.h>
*/
import "C"

// The dispatchers below run on whatever thread called the patched vDSO
// entry. Each reads its callback slot under the shared lock and runs the
// callback with no lock held.

//export vdsotimeGoClockGetTime
func vdsotimeGoClockGetTime(clockid C.int32_t, sec, nsec *C.int64_t) {
	res := currentGetTime()(int32(clockid))
	*sec = C.int64_t(res.Seconds)
	*nsec = C.int64_t(res.Nanos)
}

//export vdsotimeGoClockGetRes
func vdsotimeGoClockGetRes(clockid C.int32_t, sec, nsec *C.int64_t) {
	res := currentGetRes()(int32(clockid))
	*sec = C.int64_t(res.Seconds)
	*nsec = C.int64_t(res.Nanos)
}

//export vdsotimeGoGetTimeOfDay
func vdsotimeGoGetTimeOfDay(sec, usec *C.int64_t) {
	res := currentGetTimeOfDay()()
	*sec = C.int64_t(res.Seconds)
	*usec = C.int64_t(res.Micros)
}

//export vdsotimeGoTime
func vdsotimeGoTime() C.int64_t {
	return C.int64_t(currentTime()())
}
