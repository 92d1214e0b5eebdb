// Package scanner is the entry point to the detection engine used by the log processors.
package scanner

import (
	"context"
	"time"

	"github.com/CompassSecurity/logleek/pkg/scanner/engine"
	"github.com/CompassSecurity/logleek/pkg/scanner/types"
)

var DetectHits = engine.Scan

// DetectTruffleHogWithTimeout runs the TruffleHog detectors and gives up after timeout.
func DetectTruffleHogWithTimeout(ctx context.Context, events []types.LogEvent, maxThreads int, verify bool, timeout time.Duration) ([]types.Finding, error) {
	return engine.WithTimeout(timeout, func() types.DetectionResult {
		findings, err := engine.DetectTruffleHog(ctx, events, maxThreads, verify)
		return types.DetectionResult{Findings: findings, Error: err}
	})
}
