package orchestrator

import (
	"os"
	"strconv"
	"testing"
	"time"
)

// Lookup limits. Each can be overridden through the environment; test
// binaries fall back to short values so retries stay fast.
var (
	// DefaultLookupTimeout bounds a whole batch of package lookups
	DefaultLookupTimeout = envOrDefault("TGIT_LOOKUP_TIMEOUT", time.ParseDuration, 30*time.Minute, 5*time.Second)
	// DefaultRetryCount is the number of retries after an external host failure
	DefaultRetryCount = envOrDefault("TGIT_RETRY_COUNT", parseCount, 3, 1)
	// DefaultRetryDelay is the first backoff interval
	DefaultRetryDelay = envOrDefault("TGIT_RETRY_DELAY", time.ParseDuration, time.Second, 10*time.Millisecond)
)

func envOrDefault[T any](envVar string, parse func(string) (T, error), prodDefault, testDefault T) T {
	if raw := os.Getenv(envVar); raw != "" {
		if v, err := parse(raw); err == nil {
			return v
		}
	}
	if testing.Testing() || os.Getenv("TGIT_TEST_MODE") == "true" {
		return testDefault
	}
	return prodDefault
}

func parseCount(raw string) (uint64, error) {
	return strconv.ParseUint(raw, 10, 64)
}
