package cloudwatch

import (
	"context"
	"io"

	"github.com/CompassSecurity/logleek/pkg/cloudwatch/client"
	"github.com/CompassSecurity/logleek/pkg/cloudwatch/preflight"
	"github.com/CompassSecurity/logleek/pkg/cloudwatch/scan"
	"github.com/CompassSecurity/logleek/pkg/config"
	"github.com/CompassSecurity/logleek/pkg/logging"
	"github.com/CompassSecurity/logleek/pkg/scanerr"
	"github.com/CompassSecurity/logleek/pkg/scanner/rules"
	"github.com/CompassSecurity/logleek/pkg/system"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// runOrFatal resolves the options, runs fn until done or interrupted and exits non-zero on a fatal error.
func runOrFatal(cmd *cobra.Command, opts *config.CloudWatchScanOptions, fn runFunc) {
	if err := resolveOptions(cmd, opts); err != nil {
		log.Fatal().Err(err).Msg("Invalid options")
	}

	ctx, cancel := system.ContextWithShutdown(cmd.Context())
	defer cancel()
	logging.RegisterInterruptHook(cancel)
	defer logging.RegisterInterruptHook(nil)

	if err := fn(ctx, *opts, cmd.OutOrStdout()); err != nil {
		log.Fatal().Stack().Err(err).Str("kind", string(scanerr.KindOf(err))).Str("reason", scanerr.ReasonOf(err)).Msg("Scan failed")
	}
}

func loadClients(ctx context.Context, opts config.CloudWatchScanOptions) (client.Provider, error) {
	clients, err := newClients(ctx, opts)
	if err != nil {
		return nil, scanerr.New(scanerr.AuthError, "LoadConfig", opts.Profile, err).WithReason(preflight.ReasonMissing)
	}
	return clients, nil
}

// runScan runs a full scan. Findings and partial failures still end with a nil error.
// The pattern file is loaded before any AWS client is built.
func runScan(ctx context.Context, opts config.CloudWatchScanOptions, out io.Writer) error {
	patterns, err := rules.Load(opts.PatternsFile)
	if err != nil {
		return err
	}

	clients, err := loadClients(ctx, opts)
	if err != nil {
		return err
	}

	scanner := scan.NewScanner(scan.ScanOptions{
		CloudWatchScanOptions: opts,
		Patterns:              patterns,
		Clients:               clients,
		Output:                out,
	})
	logging.RegisterStatusHook(scanner.GetStatus)
	defer logging.RegisterStatusHook(nil)

	res, err := scanner.Scan(ctx)
	if err != nil {
		return err
	}
	if res.Partial {
		log.Warn().Int("errors", len(res.Errors)).Msg("Scan finished with partial coverage")
	}
	return nil
}

// runSources prints the log source catalog without fetching events.
func runSources(ctx context.Context, opts config.CloudWatchScanOptions, out io.Writer) error {
	clients, err := loadClients(ctx, opts)
	if err != nil {
		return err
	}

	inv, err := scan.ListSources(ctx, scan.ScanOptions{
		CloudWatchScanOptions: opts,
		Clients:               clients,
		Output:                out,
	})
	if err != nil {
		return err
	}
	for _, e := range inv.Errors {
		log.Warn().Err(e).Str("reason", e.Reason).Msg("Region or log group could not be enumerated")
	}
	return nil
}
