package flags

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CompassSecurity/logleek/pkg/config"
)

func TestAddCloudWatchScanFlags(t *testing.T) {
	opts := config.DefaultCloudWatchScanOptions()
	cmd := &cobra.Command{Use: "test"}
	AddCloudWatchScanFlags(cmd, &opts)

	for _, name := range []string{
		config.KeyPatterns, config.KeyLookback, config.KeyProfile, config.KeyRegion, config.KeyRegions,
		config.KeyGroupPrefix, config.KeyEndpointURL, config.KeyRateLimit, config.KeyTimeout, config.KeyMaxPages,
		config.KeyReportFile, config.KeyThreads, config.KeyConfidence, config.KeyTruffleHog, config.KeyVerifyTruffle,
		config.KeyHitTimeout, config.KeyHeader, config.KeyInsecure,
	} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "flag %s", name)
	}

	assert.Equal(t, "8", cmd.PersistentFlags().Lookup(config.KeyThreads).DefValue)
	assert.Equal(t, "1h0m0s", cmd.PersistentFlags().Lookup(config.KeyLookback).DefValue)
	assert.Equal(t, "patterns.json", cmd.PersistentFlags().Lookup(config.KeyPatterns).DefValue)

	require.NoError(t, cmd.PersistentFlags().Parse([]string{"--threads", "2", "--lookback", "15m", "--regions", "eu-west-1,us-east-1", "-H", "X-Trace=1"}))
	assert.Equal(t, 2, opts.MaxScanGoRoutines)
	assert.Equal(t, 15*time.Minute, opts.Lookback)
	assert.Equal(t, []string{"eu-west-1", "us-east-1"}, opts.Regions)
	assert.Equal(t, []string{"X-Trace=1"}, opts.Headers)
}
