package cloudwatch

import (
	"github.com/CompassSecurity/logleek/pkg/config"
	"github.com/spf13/cobra"
)

func newSourcesCmd(options *config.CloudWatchScanOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List all log groups and streams without scanning them",
		Long:  "Run the credential preflight, resolve the regions and print every log group and stream that a scan would fetch.",
		Example: `
logleek sources --regions eu-west-1 --group-prefix /aws/lambda
		`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			runOrFatal(cmd, options, runSources)
		},
	}
}
