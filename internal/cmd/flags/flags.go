// Package flags registers the scan flags shared by the logleek commands.
package flags

import (
	"github.com/spf13/cobra"

	"github.com/CompassSecurity/logleek/pkg/config"
)

// AddCommonScanFlags adds the detection flags to cmd, inherited by its subcommands.
func AddCommonScanFlags(cmd *cobra.Command, opts *config.CommonScanOptions) {
	cmd.PersistentFlags().StringSliceVarP(&opts.ConfidenceFilter, config.KeyConfidence, "", opts.ConfidenceFilter, "Filter rules by confidence level, separate by comma if multiple")
	cmd.PersistentFlags().IntVarP(&opts.MaxScanGoRoutines, config.KeyThreads, "", opts.MaxScanGoRoutines, "Nr of log sources fetched concurrently")
	cmd.PersistentFlags().BoolVarP(&opts.TruffleHog, config.KeyTruffleHog, "", opts.TruffleHog, "Also run the TruffleHog detectors over every log event")
	cmd.PersistentFlags().BoolVarP(&opts.TruffleHogVerification, config.KeyVerifyTruffle, "", opts.TruffleHogVerification, "Enable the TruffleHog credential verification, will actively test the found credentials and only report those. Disable with --truffle-hog-verification=false")
	cmd.PersistentFlags().DurationVarP(&opts.HitTimeout, config.KeyHitTimeout, "", opts.HitTimeout, "Maximum time to wait for TruffleHog detection per log source")
}

// AddPatternFlags adds the pattern file flag to cmd.
func AddPatternFlags(cmd *cobra.Command, opts *config.CloudWatchScanOptions) {
	cmd.PersistentFlags().StringVarP(&opts.PatternsFile, config.KeyPatterns, "p", opts.PatternsFile, "Pattern file with the detection rules (JSON or YAML)")
}

// AddAWSFlags adds the flags selecting account, regions and endpoint.
func AddAWSFlags(cmd *cobra.Command, opts *config.CloudWatchScanOptions) {
	cmd.PersistentFlags().StringVarP(&opts.Profile, config.KeyProfile, "", opts.Profile, "AWS shared config profile, defaults to the standard credential chain")
	cmd.PersistentFlags().StringVarP(&opts.HomeRegion, config.KeyRegion, "r", opts.HomeRegion, "Home region used for the preflight and region discovery, empty uses AWS_REGION, the profile or EC2 IMDS")
	cmd.PersistentFlags().StringSliceVarP(&opts.Regions, config.KeyRegions, "", opts.Regions, "Scan only these regions instead of all enabled ones, separate by comma if multiple")
	cmd.PersistentFlags().StringVarP(&opts.GroupPrefix, config.KeyGroupPrefix, "g", opts.GroupPrefix, "Only scan log groups whose name starts with this prefix")
	cmd.PersistentFlags().StringVarP(&opts.EndpointURL, config.KeyEndpointURL, "", opts.EndpointURL, "Override the AWS endpoint, e.g. http://localhost:4566 for LocalStack")
	cmd.PersistentFlags().Float64VarP(&opts.RateLimit, config.KeyRateLimit, "", opts.RateLimit, "Maximum CloudWatch Logs requests per second and region")
	cmd.PersistentFlags().StringSliceVarP(&opts.Headers, config.KeyHeader, "H", opts.Headers, "Extra HTTP header sent with every AWS request, e.g. 'X-Trace=1'. Can be repeated")
	cmd.PersistentFlags().BoolVarP(&opts.Insecure, config.KeyInsecure, "", opts.Insecure, "Skip TLS certificate verification, only for mock endpoints")
}

// AddCloudWatchScanFlags adds every flag of a full scan.
func AddCloudWatchScanFlags(cmd *cobra.Command, opts *config.CloudWatchScanOptions) {
	AddCommonScanFlags(cmd, &opts.CommonScanOptions)
	AddPatternFlags(cmd, opts)
	AddAWSFlags(cmd, opts)
	cmd.PersistentFlags().DurationVarP(&opts.Lookback, config.KeyLookback, "", opts.Lookback, "How far back from now log events are scanned")
	cmd.PersistentFlags().DurationVarP(&opts.Timeout, config.KeyTimeout, "", opts.Timeout, "Stop the scan after this duration and report what was found, 0 disables it")
	cmd.PersistentFlags().IntVarP(&opts.MaxPagesPerSource, config.KeyMaxPages, "", opts.MaxPagesPerSource, "Maximum number of event pages fetched per log stream")
	cmd.PersistentFlags().StringVarP(&opts.ReportFile, config.KeyReportFile, "o", opts.ReportFile, "Write a JSON report to this file")
}
