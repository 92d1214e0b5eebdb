package main

import (
	"github.com/CompassSecurity/logleek/internal/cmd/cloudwatch"
	"github.com/CompassSecurity/logleek/internal/cmd/common"
	"github.com/spf13/cobra"
)

func main() {
	common.Run(newRootCmd())
}

func newRootCmd() *cobra.Command {
	rootCmd := cloudwatch.NewCloudWatchRootCmd()
	rootCmd.Version = common.Version
	rootCmd.SilenceUsage = true

	common.SetupPersistentPreRun(rootCmd)
	common.AddCommonFlags(rootCmd)

	rootCmd.SetVersionTemplate(`{{.Version}}
`)

	return rootCmd
}
