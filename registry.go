// Completion: 100% - Callback registry complete
//go:build linux

package vdsotime

import (
	"fmt"
	"sync"
)

// The patched jump stubs reach the trampolines through the C ABI and
// cannot carry closure state, so the user callbacks live in four
// process-wide slots, one per symbol kind. Trampolines read a slot under
// the shared lock; installation takes the exclusive lock. The callback
// itself always runs with no lock held, so a callback may call time
// functions without deadlocking.

var (
	getTimeMu sync.RWMutex
	getTimeCb GetTimeCallback

	getResMu sync.RWMutex
	getResCb GetResCallback

	getTimeOfDayMu sync.RWMutex
	getTimeOfDayCb GetTimeOfDayCallback

	timeMu sync.RWMutex
	timeCb TimeCallback
)

// installCallback places cb in the slot for kind. The callback value must
// match the kind's signature; a mismatch is ErrCallbackType.
func installCallback(kind Kind, cb Callback) error {
	switch kind {
	case GetTime:
		fn, ok := asClockCallback(cb)
		if !ok {
			return fmt.Errorf("%w: %s wants func(int32) TimeSpec, got %T", ErrCallbackType, kind, cb)
		}
		getTimeMu.Lock()
		getTimeCb = GetTimeCallback(fn)
		getTimeMu.Unlock()
	case ClockGetRes:
		fn, ok := asClockCallback(cb)
		if !ok {
			return fmt.Errorf("%w: %s wants func(int32) TimeSpec, got %T", ErrCallbackType, kind, cb)
		}
		getResMu.Lock()
		getResCb = GetResCallback(fn)
		getResMu.Unlock()
	case GetTimeOfDay:
		fn, ok := asTimeValCallback(cb)
		if !ok {
			return fmt.Errorf("%w: %s wants func() TimeVal, got %T", ErrCallbackType, kind, cb)
		}
		getTimeOfDayMu.Lock()
		getTimeOfDayCb = fn
		getTimeOfDayMu.Unlock()
	case TimeFunc:
		fn, ok := asTimeCallback(cb)
		if !ok {
			return fmt.Errorf("%w: %s wants func() Time, got %T", ErrCallbackType, kind, cb)
		}
		timeMu.Lock()
		timeCb = fn
		timeMu.Unlock()
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrCallbackType, int(kind))
	}
	return nil
}

// asClockCallback accepts the named callback types and the bare signature.
// GetTimeCallback and GetResCallback share a signature, so both install
// paths funnel through here.
func asClockCallback(cb Callback) (func(int32) TimeSpec, bool) {
	switch fn := cb.(type) {
	case GetTimeCallback:
		return fn, true
	case GetResCallback:
		return fn, true
	case func(int32) TimeSpec:
		return fn, true
	}
	return nil, false
}

func asTimeValCallback(cb Callback) (GetTimeOfDayCallback, bool) {
	switch fn := cb.(type) {
	case GetTimeOfDayCallback:
		return fn, true
	case func() TimeVal:
		return fn, true
	}
	return nil, false
}

func asTimeCallback(cb Callback) (TimeCallback, bool) {
	switch fn := cb.(type) {
	case TimeCallback:
		return fn, true
	case func() Time:
		return fn, true
	}
	return nil, false
}

// The current* accessors are called by the trampoline dispatchers. A
// populated mapping with an empty slot is a programming error: silently
// returning zero would forge time values nobody asked for, so this aborts.

func currentGetTime() GetTimeCallback {
	getTimeMu.RLock()
	cb := getTimeCb
	getTimeMu.RUnlock()
	if cb == nil {
		panic("vdsotime: clock_gettime trampoline fired with no callback installed")
	}
	return cb
}

func currentGetRes() GetResCallback {
	getResMu.RLock()
	cb := getResCb
	getResMu.RUnlock()
	if cb == nil {
		panic("vdsotime: clock_getres trampoline fired with no callback installed")
	}
	return cb
}

func currentGetTimeOfDay() GetTimeOfDayCallback {
	getTimeOfDayMu.RLock()
	cb := getTimeOfDayCb
	getTimeOfDayMu.RUnlock()
	if cb == nil {
		panic("vdsotime: gettimeofday trampoline fired with no callback installed")
	}
	return cb
}

func currentTime() TimeCallback {
	timeMu.RLock()
	cb := timeCb
	timeMu.RUnlock()
	if cb == nil {
		panic("vdsotime: time trampoline fired with no callback installed")
	}
	return cb
}
