package config

import (
	"fmt"
	"strings"
	"time"
)

// LockDurations resolves the store lock timeout and retry interval.
func (s StoreConfig) LockDurations() (timeout time.Duration, retry time.Duration, err error) {
	timeout, err = parseDuration(s.LockTimeout, DefaultStoreLockTimeout)
	if err != nil {
		return 0, 0, fmt.Errorf("store.lock_timeout: %w", err)
	}
	retry, err = parseDuration(s.LockRetry, DefaultStoreLockRetry)
	if err != nil {
		return 0, 0, fmt.Errorf("store.lock_retry: %w", err)
	}
	return timeout, retry, nil
}

// Timeout returns the per-request timeout for a registry entry.
func (m ModelRegistry) Timeout() (time.Duration, error) {
	d, err := parseDuration(m.RequestTimeout, DefaultModelRequestTimeout)
	if err != nil {
		return 0, fmt.Errorf("model %s request_timeout: %w", m.Name, err)
	}
	return d, nil
}

func parseDuration(value string, fallback string) (time.Duration, error) {
	candidate := strings.TrimSpace(value)
	if candidate == "" {
		candidate = fallback
	}

	d, err := time.ParseDuration(candidate)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", candidate, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", candidate)
	}
	return d, nil
}
