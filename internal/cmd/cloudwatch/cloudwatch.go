// Package cloudwatch wires the CloudWatch Logs scan into the logleek command line.
package cloudwatch

import (
	"context"
	"io"

	"github.com/CompassSecurity/logleek/internal/cmd/common"
	"github.com/CompassSecurity/logleek/internal/cmd/flags"
	"github.com/CompassSecurity/logleek/pkg/cloudwatch/client"
	"github.com/CompassSecurity/logleek/pkg/config"
	"github.com/CompassSecurity/logleek/pkg/httpclient"
	"github.com/spf13/cobra"
)

// newClients builds the SDK clients of a run, replaced in tests.
var newClients = func(ctx context.Context, opts config.CloudWatchScanOptions) (client.Provider, error) {
	headers, err := httpclient.ParseHeaders(opts.Headers)
	if err != nil {
		return nil, err
	}
	httpClient, err := httpclient.NewStandardClient(httpclient.Options{Headers: headers, Insecure: opts.Insecure})
	if err != nil {
		return nil, err
	}

	clientOpts := client.Options{
		Profile:     opts.Profile,
		Region:      opts.HomeRegion,
		EndpointURL: opts.EndpointURL,
		RateLimit:   opts.RateLimit,
		HTTPClient:  httpClient,
	}
	cfg, err := client.LoadConfig(ctx, clientOpts)
	if err != nil {
		return nil, err
	}
	return client.NewFactory(cfg, clientOpts), nil
}

// NewCloudWatchRootCmd returns the root command. Without a subcommand it runs a full scan.
func NewCloudWatchRootCmd() *cobra.Command {
	options := config.DefaultCloudWatchScanOptions()

	rootCmd := &cobra.Command{
		Use:   "logleek",
		Short: "Scan AWS CloudWatch Logs for leaked secrets",
		Long: `Scan the log events of every CloudWatch Logs group and stream of an AWS account for secrets.

### Authentication
Credentials and the home region are resolved like the AWS CLI does: flags, AWS_* environment variables,
the shared config and credentials files, then EC2 instance metadata.
The identity needs sts:GetCallerIdentity, ec2:DescribeRegions, logs:DescribeLogGroups,
logs:DescribeLogStreams and logs:GetLogEvents.

### Configuration
Every flag can also be set in a config file (--config, ./logleek.yaml by default) or
as LOGLEEK_<FLAG> environment variable, e.g. LOGLEEK_GROUP_PREFIX=/aws/lambda.
		`,
		Example: `
# Scan the last hour of all enabled regions with patterns.json from the working directory
logleek

# Scan the last day of Lambda logs in two regions and write a JSON report
logleek --lookback 24h --group-prefix /aws/lambda --regions eu-west-1,eu-central-1 -o report.json

# Scan a LocalStack instance
logleek --endpoint-url http://localhost:4566 --region us-east-1

# List all log sources without fetching events
logleek sources --profile audit
		`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			runOrFatal(cmd, &options, runScan)
		},
	}
	flags.AddCloudWatchScanFlags(rootCmd, &options)

	rootCmd.AddCommand(newSourcesCmd(&options))
	rootCmd.AddCommand(newPatternsCmd(&options))

	return rootCmd
}

// resolveOptions layers the config file and environment under the flags and validates the result.
func resolveOptions(cmd *cobra.Command, opts *config.CloudWatchScanOptions) error {
	v, err := config.NewViper(common.ConfigFile)
	if err != nil {
		return err
	}
	if err := config.Apply(v, cmd.Flags(), opts); err != nil {
		return err
	}
	return opts.Validate()
}

type runFunc func(ctx context.Context, opts config.CloudWatchScanOptions, out io.Writer) error
