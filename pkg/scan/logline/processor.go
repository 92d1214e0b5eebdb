// Package logline runs secret detection over the events of one log source.
package logline

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/CompassSecurity/logleek/pkg/scanner"
	"github.com/CompassSecurity/logleek/pkg/scanner/types"
)

type ProcessOptions struct {
	Patterns          *types.PatternSet
	MaxGoRoutines     int
	TruffleHog        bool
	VerifyCredentials bool
	HitTimeout        time.Duration
}

type LogProcessingResult struct {
	Findings      []types.Finding
	EventsScanned int
	BytesScanned  int
	Error         error
}

// ProcessEvents matches the configured patterns against every event and, if enabled, runs the TruffleHog detectors.
// Pattern findings come first in event order. A failing detector run keeps the pattern findings and sets Error.
func ProcessEvents(ctx context.Context, events []types.LogEvent, opts ProcessOptions) (*LogProcessingResult, error) {
	result := &LogProcessingResult{
		EventsScanned: len(events),
	}
	for _, e := range events {
		result.BytesScanned += len(e.Message)
	}

	result.Findings = scanner.DetectHits(events, opts.Patterns)

	if !opts.TruffleHog || len(events) == 0 {
		return result, nil
	}

	detected, err := scanner.DetectTruffleHogWithTimeout(ctx, events, opts.MaxGoRoutines, opts.VerifyCredentials, opts.HitTimeout)
	if err != nil {
		log.Debug().Err(err).Int("events", len(events)).Msg("TruffleHog detection failed")
		result.Error = err
		return result, err
	}

	result.Findings = append(result.Findings, detected...)
	return result, nil
}
