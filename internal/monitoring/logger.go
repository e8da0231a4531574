package monitoring

import (
	"log"
	"sync"
	"time"

	"github.com/banshee-data/opticflow/internal/timeutil"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

var (
	clockMu sync.RWMutex
	clock   timeutil.Clock = timeutil.RealClock{}
)

// SetClock replaces the clock used by Time. Passing nil restores the real
// clock.
func SetClock(c timeutil.Clock) {
	clockMu.Lock()
	defer clockMu.Unlock()
	if c == nil {
		c = timeutil.RealClock{}
	}
	clock = c
}

func currentClock() timeutil.Clock {
	clockMu.RLock()
	defer clockMu.RUnlock()
	return clock
}

// Time starts timing a named stage. The returned func logs
// "[stage] <name> took <elapsed>" through Logf and returns the elapsed time.
//
//	done := monitoring.Time("horn-schunck")
//	field, err := flow.Estimate(...)
//	elapsed := done()
func Time(stage string) func() time.Duration {
	c := currentClock()
	start := c.Now()
	return func() time.Duration {
		elapsed := c.Now().Sub(start)
		Logf("[stage] %s took %v", stage, elapsed)
		return elapsed
	}
}
