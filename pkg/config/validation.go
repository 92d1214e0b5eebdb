package config

import (
	"fmt"
	"net/url"
	"time"
)

// MaxLookback bounds the look-back window of a single scan.
const MaxLookback = 30 * 24 * time.Hour

// ValidateURL validates that a string is a valid URL.
func ValidateURL(urlStr string, fieldName string) error {
	if urlStr == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}

	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", fieldName, err)
	}

	if parsed.Scheme == "" {
		return fmt.Errorf("%s must include a scheme (http/https)", fieldName)
	}

	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host", fieldName)
	}

	return nil
}

// ValidateThreadCount validates that the thread count is within acceptable bounds.
func ValidateThreadCount(threads int) error {
	if threads < 1 {
		return fmt.Errorf("thread count must be at least 1, got %d", threads)
	}
	if threads > 100 {
		return fmt.Errorf("thread count too high (max 100), got %d", threads)
	}
	return nil
}

// ValidateLookback validates the look-back window.
func ValidateLookback(lookback time.Duration) error {
	if lookback <= 0 {
		return fmt.Errorf("lookback must be positive, got %s", lookback)
	}
	if lookback > MaxLookback {
		return fmt.Errorf("lookback too long (max %s), got %s", MaxLookback, lookback)
	}
	return nil
}

// ValidateRateLimit validates the per-region request rate.
func ValidateRateLimit(rps float64) error {
	if rps <= 0 {
		return fmt.Errorf("rate limit must be positive, got %v", rps)
	}
	return nil
}
