package ddk

import "time"

// hpetFrequencyHz is the fixed HPET tick rate this emulation reports; real
// firmware reports whatever the HPET table's COUNTER_CLK_PERIOD says, but a
// fixed rate is sufficient for the uptime/delay math every export in this
// group is built from.
const hpetFrequencyHz uint64 = 14_318_180

// tscFrequencyHz is the fixed TSC rate this emulation reports.
const tscFrequencyHz uint64 = 2_000_000_000

// Clock is the timer export group's dependency on wall-clock time, made an
// interface so tests can supply a deterministic source instead of the real
// monotonic clock.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// TimerExports implements the Kernel_* timer and delay group: HPET and TSC
// counter reads, uptime in varying units, and busy-wait delays.
type TimerExports struct {
	clock Clock
	boot  time.Time
}

// NewTimerExports returns a timer export group anchored at the current
// time (treated as the boot instant) using the real wall clock.
func NewTimerExports() *TimerExports {
	return NewTimerExportsWithClock(realClock{})
}

// NewTimerExportsWithClock is the injectable-clock constructor used by
// tests.
func NewTimerExportsWithClock(clock Clock) *TimerExports {
	return &TimerExports{clock: clock, boot: clock.Now()}
}

func (t *TimerExports) uptime() time.Duration {
	return t.clock.Now().Sub(t.boot)
}

// ReadHPETCounter returns the free-running HPET tick count since boot.
func (t *TimerExports) ReadHPETCounter() uint64 {
	return uint64(t.uptime().Seconds() * float64(hpetFrequencyHz))
}

func (t *TimerExports) HPETFrequency() uint64 { return hpetFrequencyHz }

func (t *TimerExports) UptimeNanos() uint64  { return uint64(t.uptime().Nanoseconds()) }
func (t *TimerExports) UptimeMillis() uint64 { return uint64(t.uptime().Milliseconds()) }
func (t *TimerExports) UptimeSeconds() uint64 { return uint64(t.uptime().Seconds()) }

// ReadTSC returns the free-running cycle count since boot at the fixed TSC
// rate this emulation reports.
func (t *TimerExports) ReadTSC() uint64 {
	return uint64(t.uptime().Seconds() * float64(tscFrequencyHz))
}

func (t *TimerExports) TSCFrequency() uint64 { return tscFrequencyHz }

// DelayMicroseconds and DelayMilliseconds busy-wait for the given duration,
// matching the spec's microsecond/millisecond busy-wait exports: a real
// kernel spins on the TSC rather than yielding, so this does too rather
// than sleeping the goroutine.
func (t *TimerExports) DelayMicroseconds(us uint64) {
	deadline := t.clock.Now().Add(time.Duration(us) * time.Microsecond)
	for t.clock.Now().Before(deadline) {
	}
}

func (t *TimerExports) DelayMilliseconds(ms uint64) {
	t.DelayMicroseconds(ms * 1000)
}
