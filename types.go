// Completion: 100% - Core types complete
//go:build linux

package vdsotime

// Time is a second count since the epoch, as returned by time(2).
type Time = int64

// TimeSpec is the value produced by clock_gettime and clock_getres
// callbacks. Seconds and nanoseconds, like struct timespec.
type TimeSpec struct {
	Seconds int64
	Nanos   int64
}

// TimeVal is the value produced by gettimeofday callbacks.
// Seconds and microseconds, like struct timeval.
type TimeVal struct {
	Seconds int64
	Micros  int64
}

// GetTimeCallback supplies the result for clock_gettime.
// Considered infallible.
type GetTimeCallback func(clockID int32) TimeSpec

// GetResCallback supplies the result for clock_getres.
// Considered infallible.
type GetResCallback func(clockID int32) TimeSpec

// GetTimeOfDayCallback supplies the result for gettimeofday.
// The time-zone argument of the original call is ignored.
type GetTimeOfDayCallback func() TimeVal

// TimeCallback supplies the result for time.
type TimeCallback func() Time

// Callback is one of GetTimeCallback, GetResCallback, GetTimeOfDayCallback
// or TimeCallback (named or unnamed signature). SymbolHook.Overwrite checks
// that the value matches the hooked symbol kind.
type Callback any

// Kind identifies one of the time functions exported by the vDSO.
type Kind int

const (
	GetTime Kind = iota
	ClockGetRes
	GetTimeOfDay
	TimeFunc
)

func (k Kind) String() string {
	switch k {
	case GetTime:
		return "clock_gettime"
	case ClockGetRes:
		return "clock_getres"
	case GetTimeOfDay:
		return "gettimeofday"
	case TimeFunc:
		return "time"
	default:
		return "unknown"
	}
}
