package cloudwatch

import (
	"context"
	"io"

	"github.com/CompassSecurity/logleek/pkg/config"
	"github.com/CompassSecurity/logleek/pkg/scan/result"
	"github.com/CompassSecurity/logleek/pkg/scanner/rules"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newPatternsCmd(options *config.CloudWatchScanOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "patterns",
		Short: "Validate the pattern file and list its rules",
		Long:  "Load the pattern file, report every invalid entry and print the rules a scan would apply after the confidence filter.",
		Example: `
logleek patterns -p rules.yaml --confidence high,medium
		`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			runOrFatal(cmd, options, runPatterns)
		},
	}
}

func runPatterns(ctx context.Context, opts config.CloudWatchScanOptions, out io.Writer) error {
	set, err := rules.Load(opts.PatternsFile)
	if err != nil {
		return err
	}

	filtered := rules.FilterByConfidence(set, opts.ConfidenceFilter)
	log.Info().Str("file", opts.PatternsFile).Int("total", set.Len()).Int("selected", filtered.Len()).Msg("Pattern file is valid")
	return result.PrintPatterns(out, filtered)
}
