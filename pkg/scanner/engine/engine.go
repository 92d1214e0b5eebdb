package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/CompassSecurity/logleek/pkg/scanner/types"
	"github.com/rs/zerolog/log"
	"github.com/trufflesecurity/trufflehog/v3/pkg/detectors"
	"github.com/trufflesecurity/trufflehog/v3/pkg/engine/defaults"
	"github.com/wandb/parallel"
)

// Confidence values of TruffleHog findings.
const (
	ConfidenceVerified   = "high-verified"
	ConfidenceUnverified = "trufflehog-unverified"
)

// TruffleHogRulePrefix starts the rule name of every TruffleHog finding.
const TruffleHogRulePrefix = "TruffleHog "

// Scan matches every event against every pattern.
// Findings are ordered by event, then pattern declaration order, then match position.
// It has no hidden state: the same input always yields the same findings.
func Scan(events []types.LogEvent, patterns *types.PatternSet) []types.Finding {
	findings := []types.Finding{}
	for _, event := range events {
		findings = append(findings, ScanEvent(event, patterns)...)
	}
	return findings
}

// ScanEvent matches a single event against every pattern.
func ScanEvent(event types.LogEvent, patterns *types.PatternSet) []types.Finding {
	matches := patterns.MatchAll(event.Message)
	findings := make([]types.Finding, 0, len(matches))
	for _, m := range matches {
		findings = append(findings, types.Finding{
			Source:      event.Source,
			Rule:        m.Pattern.Name,
			Description: m.Pattern.Description,
			Confidence:  m.Pattern.Confidence,
			Text:        m.Text,
			Timestamp:   event.Timestamp,
		})
	}
	return findings
}

// DetectTruffleHog runs the TruffleHog default detectors over each event message.
// Detectors are only invoked for messages containing one of their keywords.
func DetectTruffleHog(ctx context.Context, events []types.LogEvent, maxThreads int, verify bool) ([]types.Finding, error) {
	if maxThreads < 1 {
		maxThreads = 1
	}

	detectorList := defaults.DefaultDetectors()
	group := parallel.Collect[[]types.Finding](parallel.Limited(ctx, maxThreads))

	for _, event := range events {
		lower := strings.ToLower(event.Message)
		for _, detector := range detectorList {
			if !hasKeyword(lower, detector) {
				continue
			}
			group.Go(func(ctx context.Context) ([]types.Finding, error) {
				return detectEvent(ctx, detector, event, verify), nil
			})
		}
	}

	results, err := group.Wait()
	if err != nil {
		return nil, err
	}

	findings := slices.Concat(results...)
	// collected in completion order
	slices.SortStableFunc(findings, func(a, b types.Finding) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return strings.Compare(a.Rule, b.Rule)
	})
	return findings, nil
}

func hasKeyword(lowerMessage string, detector detectors.Detector) bool {
	for _, kw := range detector.Keywords() {
		if strings.Contains(lowerMessage, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func detectEvent(ctx context.Context, detector detectors.Detector, event types.LogEvent, verify bool) []types.Finding {
	findings := []types.Finding{}
	results, err := detector.FromData(ctx, verify, []byte(event.Message))
	if err != nil {
		log.Debug().Err(err).Str("source", event.Source.String()).Msg("TruffleHog detector failed")
		return findings
	}

	for _, result := range results {
		secret := result.Raw
		if len(result.RawV2) > 0 {
			secret = result.RawV2
		}

		finding := types.Finding{
			Source:      event.Source,
			Rule:        TruffleHogRulePrefix + result.DetectorType.String(),
			Description: TruffleHogRulePrefix + result.DetectorType.String() + " detector",
			Confidence:  ConfidenceVerified,
			Text:        string(secret),
			Timestamp:   event.Timestamp,
		}

		if result.Verified {
			findings = append(findings, finding)
			continue
		}

		if !verify {
			finding.Confidence = ConfidenceUnverified
			findings = append(findings, finding)
		}
	}
	return findings
}

// WithTimeout runs detect and gives up after timeout.
func WithTimeout(timeout time.Duration, detect func() types.DetectionResult) ([]types.Finding, error) {
	if timeout <= 0 {
		result := detect()
		return result.Findings, result.Error
	}

	result := make(chan types.DetectionResult, 1)
	go func() {
		result <- detect()
	}()
	select {
	case <-time.After(timeout):
		return nil, errors.New("hit detection timed out (" + timeout.String() + ")")
	case r := <-result:
		return r.Findings, r.Error
	}
}

// Safely runs fn and converts a panic into an error.
func Safely[T any](fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovered panic: %v", r)
		}
	}()
	return fn()
}
