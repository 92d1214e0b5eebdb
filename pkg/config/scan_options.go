// Package config provides shared configuration types and validation helpers for logleek.
package config

import (
	"time"

	"github.com/CompassSecurity/logleek/pkg/scanner/rules"
	"github.com/CompassSecurity/logleek/pkg/scanner/types"
)

// CommonScanOptions contains configuration fields that control detection.
type CommonScanOptions struct {
	// ConfidenceFilter filters rules by confidence level
	ConfidenceFilter []string
	// MaxScanGoRoutines controls the number of concurrent fetch workers
	MaxScanGoRoutines int
	// TruffleHog enables the TruffleHog detectors in addition to the pattern file
	TruffleHog bool
	// TruffleHogVerification enables/disables TruffleHog credential verification
	TruffleHogVerification bool
	// HitTimeout is the maximum time to wait for hit detection per log source
	HitTimeout time.Duration
}

// DefaultCommonScanOptions returns sensible default values for common scan options.
func DefaultCommonScanOptions() CommonScanOptions {
	return CommonScanOptions{
		ConfidenceFilter:       []string{},
		MaxScanGoRoutines:      8,
		TruffleHog:             false,
		TruffleHogVerification: true,
		HitTimeout:             60 * time.Second,
	}
}

// CloudWatchScanOptions configures a CloudWatch Logs scan.
type CloudWatchScanOptions struct {
	CommonScanOptions
	// PatternsFile is the pattern file with the detection rules
	PatternsFile string
	// Lookback is how far back from now events are fetched
	Lookback time.Duration
	// Profile is the shared config profile, empty for the default chain
	Profile string
	// HomeRegion is used for preflight and region discovery
	HomeRegion string
	// Regions restricts the scan to these regions instead of discovering them
	Regions []string
	// GroupPrefix restricts enumeration to log groups with this name prefix
	GroupPrefix string
	// EndpointURL overrides the service endpoint, e.g. for LocalStack
	EndpointURL string
	// RateLimit is the maximum number of API requests per second per region
	RateLimit float64
	// Timeout bounds the whole scan, zero disables it
	Timeout time.Duration
	// MaxPagesPerSource bounds GetLogEvents pagination per log source
	MaxPagesPerSource int
	// ReportFile receives a JSON report when set
	ReportFile string
	// Headers are added to every AWS request, "Name=Value" or "Name: Value"
	Headers []string
	// Insecure skips TLS verification of the endpoint
	Insecure bool
}

// DefaultCloudWatchScanOptions returns the defaults of a CloudWatch Logs scan.
func DefaultCloudWatchScanOptions() CloudWatchScanOptions {
	return CloudWatchScanOptions{
		CommonScanOptions: DefaultCommonScanOptions(),
		PatternsFile:      rules.DefaultPatternFile,
		Lookback:          types.DefaultLookback,
		HomeRegion:        "us-east-1",
		RateLimit:         5,
		MaxPagesPerSource: 10000,
	}
}
