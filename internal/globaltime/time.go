// Package globaltime is the process-wide clock. Production code reads the
// real time; tests pin it with SetMockTime so the archive's month/year
// fallback derivation is deterministic.
package globaltime

import (
	"sync"
	"time"
)

var (
	mu      sync.RWMutex
	nowFunc = time.Now
)

func Now() time.Time {
	mu.RLock()
	defer mu.RUnlock()
	return nowFunc()
}

func UTC() time.Time {
	return Now().UTC()
}

// ISO returns the current time in the format archive records store timestamps.
func ISO() string {
	return Now().Format(time.RFC3339)
}

func SetMockTime(t time.Time) {
	mu.Lock()
	defer mu.Unlock()
	nowFunc = func() time.Time { return t }
}

func ResetTime() {
	mu.Lock()
	defer mu.Unlock()
	nowFunc = time.Now
}
