package config

import (
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables overriding flags, e.g. LOGLEEK_THREADS.
const EnvPrefix = "LOGLEEK"

// DefaultConfigName is searched for in the working directory when no config file is given.
const DefaultConfigName = "logleek"

// Flag names shared between the CLI and the config file keys.
const (
	KeyPatterns      = "patterns"
	KeyLookback      = "lookback"
	KeyProfile       = "profile"
	KeyRegion        = "region"
	KeyRegions       = "regions"
	KeyGroupPrefix   = "group-prefix"
	KeyEndpointURL   = "endpoint-url"
	KeyRateLimit     = "rate-limit"
	KeyTimeout       = "timeout"
	KeyMaxPages      = "max-pages"
	KeyReportFile    = "report-file"
	KeyThreads       = "threads"
	KeyConfidence    = "confidence"
	KeyTruffleHog    = "trufflehog"
	KeyVerifyTruffle = "truffle-hog-verification"
	KeyHitTimeout    = "hit-timeout"
	KeyHeader        = "header"
	KeyInsecure      = "insecure"
)

// NewViper returns a viper instance reading LOGLEEK_* variables and an optional config file.
// An explicitly given config file must exist, the default one is optional.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			return v, nil
		}
		return nil, err
	}

	log.Debug().Str("file", v.ConfigFileUsed()).Msg("Loaded config file")
	return v, nil
}

// Apply binds flags to v and copies the resolved values into opts.
// Precedence is flag, environment, config file, flag default.
func Apply(v *viper.Viper, flags *pflag.FlagSet, opts *CloudWatchScanOptions) error {
	if err := v.BindPFlags(flags); err != nil {
		return err
	}

	opts.PatternsFile = v.GetString(KeyPatterns)
	opts.Lookback = v.GetDuration(KeyLookback)
	opts.Profile = v.GetString(KeyProfile)
	opts.HomeRegion = v.GetString(KeyRegion)
	opts.Regions = v.GetStringSlice(KeyRegions)
	opts.GroupPrefix = v.GetString(KeyGroupPrefix)
	opts.EndpointURL = v.GetString(KeyEndpointURL)
	opts.RateLimit = v.GetFloat64(KeyRateLimit)
	opts.Timeout = v.GetDuration(KeyTimeout)
	opts.MaxPagesPerSource = v.GetInt(KeyMaxPages)
	opts.ReportFile = v.GetString(KeyReportFile)
	opts.MaxScanGoRoutines = v.GetInt(KeyThreads)
	opts.ConfidenceFilter = v.GetStringSlice(KeyConfidence)
	opts.TruffleHog = v.GetBool(KeyTruffleHog)
	opts.TruffleHogVerification = v.GetBool(KeyVerifyTruffle)
	opts.HitTimeout = v.GetDuration(KeyHitTimeout)
	opts.Headers = v.GetStringSlice(KeyHeader)
	opts.Insecure = v.GetBool(KeyInsecure)
	return nil
}
