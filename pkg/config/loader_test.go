package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFlags(t *testing.T) *pflag.FlagSet {
	t.Helper()
	defaults := DefaultCloudWatchScanOptions()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String(KeyPatterns, defaults.PatternsFile, "")
	flags.Duration(KeyLookback, defaults.Lookback, "")
	flags.String(KeyProfile, "", "")
	flags.String(KeyRegion, defaults.HomeRegion, "")
	flags.StringSlice(KeyRegions, nil, "")
	flags.String(KeyGroupPrefix, "", "")
	flags.String(KeyEndpointURL, "", "")
	flags.Float64(KeyRateLimit, defaults.RateLimit, "")
	flags.Duration(KeyTimeout, 0, "")
	flags.Int(KeyMaxPages, defaults.MaxPagesPerSource, "")
	flags.String(KeyReportFile, "", "")
	flags.Int(KeyThreads, defaults.MaxScanGoRoutines, "")
	flags.StringSlice(KeyConfidence, nil, "")
	flags.Bool(KeyTruffleHog, false, "")
	flags.Bool(KeyVerifyTruffle, true, "")
	flags.Duration(KeyHitTimeout, defaults.HitTimeout, "")
	flags.StringSlice(KeyHeader, nil, "")
	flags.Bool(KeyInsecure, false, "")
	return flags
}

func TestNewViper_MissingDefaultConfigIsOptional(t *testing.T) {
	t.Chdir(t.TempDir())

	v, err := NewViper("")
	require.NoError(t, err)
	assert.Empty(t, v.ConfigFileUsed())
}

func TestNewViper_MissingExplicitConfig(t *testing.T) {
	_, err := NewViper(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestApply_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	v, err := NewViper("")
	require.NoError(t, err)

	opts := DefaultCloudWatchScanOptions()
	require.NoError(t, Apply(v, testFlags(t), &opts))

	assert.Equal(t, DefaultCloudWatchScanOptions().PatternsFile, opts.PatternsFile)
	assert.Equal(t, time.Hour, opts.Lookback)
	assert.Equal(t, 8, opts.MaxScanGoRoutines)
	assert.Equal(t, "us-east-1", opts.HomeRegion)
	assert.True(t, opts.TruffleHogVerification)
	assert.NoError(t, opts.Validate())
}

func TestApply_Precedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "logleek.yaml")
	content := []byte("threads: 3\nlookback: 2h\nregion: eu-west-1\nregions:\n  - eu-west-1\n  - eu-central-1\n")
	require.NoError(t, os.WriteFile(file, content, 0600))

	t.Setenv("LOGLEEK_LOOKBACK", "30m")
	t.Setenv("LOGLEEK_GROUP_PREFIX", "/aws/lambda")

	v, err := NewViper(file)
	require.NoError(t, err)

	flags := testFlags(t)
	require.NoError(t, flags.Parse([]string{"--region", "us-west-2"}))

	opts := DefaultCloudWatchScanOptions()
	require.NoError(t, Apply(v, flags, &opts))

	assert.Equal(t, 3, opts.MaxScanGoRoutines, "config file overrides flag default")
	assert.Equal(t, 30*time.Minute, opts.Lookback, "environment overrides config file")
	assert.Equal(t, "/aws/lambda", opts.GroupPrefix)
	assert.Equal(t, "us-west-2", opts.HomeRegion, "explicit flag wins")
	assert.Equal(t, []string{"eu-west-1", "eu-central-1"}, opts.Regions)
}
