package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		fieldName string
		wantError bool
		errMsg    string
	}{
		{
			name:      "valid https url",
			url:       "https://logs.eu-central-1.amazonaws.com",
			fieldName: "endpoint URL",
			wantError: false,
		},
		{
			name:      "valid http url",
			url:       "http://localhost:4566",
			fieldName: "endpoint URL",
			wantError: false,
		},
		{
			name:      "empty url",
			url:       "",
			fieldName: "endpoint URL",
			wantError: true,
			errMsg:    "cannot be empty",
		},
		{
			name:      "no scheme",
			url:       "localhost.localstack.cloud:4566",
			fieldName: "endpoint URL",
			wantError: true,
			errMsg:    "must include a scheme",
		},
		{
			name:      "invalid url",
			url:       "ht!tp://invalid",
			fieldName: "URL",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url, tt.fieldName)
			if tt.wantError {
				if err == nil {
					t.Errorf("ValidateURL() expected error but got none")
				} else if tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("ValidateURL() error = %v, want error containing %v", err, tt.errMsg)
				}
			} else {
				if err != nil {
					t.Errorf("ValidateURL() unexpected error = %v", err)
				}
			}
		})
	}
}

func TestValidateThreadCount(t *testing.T) {
	tests := []struct {
		name      string
		threads   int
		wantError bool
	}{
		{
			name:      "valid thread count",
			threads:   4,
			wantError: false,
		},
		{
			name:      "max threads",
			threads:   100,
			wantError: false,
		},
		{
			name:      "min threads",
			threads:   1,
			wantError: false,
		},
		{
			name:      "zero threads",
			threads:   0,
			wantError: true,
		},
		{
			name:      "negative threads",
			threads:   -1,
			wantError: true,
		},
		{
			name:      "too many threads",
			threads:   101,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateThreadCount(tt.threads)
			if tt.wantError && err == nil {
				t.Errorf("ValidateThreadCount() expected error but got none")
			}
			if !tt.wantError && err != nil {
				t.Errorf("ValidateThreadCount() unexpected error = %v", err)
			}
		})
	}
}

func TestValidateLookback(t *testing.T) {
	tests := []struct {
		name      string
		lookback  time.Duration
		wantError bool
	}{
		{name: "default hour", lookback: time.Hour},
		{name: "maximum", lookback: MaxLookback},
		{name: "zero", lookback: 0, wantError: true},
		{name: "negative", lookback: -time.Minute, wantError: true},
		{name: "too long", lookback: MaxLookback + time.Hour, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLookback(tt.lookback)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateRateLimit(t *testing.T) {
	assert.NoError(t, ValidateRateLimit(0.5))
	assert.Error(t, ValidateRateLimit(0))
	assert.Error(t, ValidateRateLimit(-1))
}

func TestCloudWatchScanOptions_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(o *CloudWatchScanOptions)
		wantError string
	}{
		{name: "defaults", mutate: func(o *CloudWatchScanOptions) {}},
		{name: "threads", mutate: func(o *CloudWatchScanOptions) { o.MaxScanGoRoutines = 0 }, wantError: "thread count"},
		{name: "lookback", mutate: func(o *CloudWatchScanOptions) { o.Lookback = 0 }, wantError: "lookback"},
		{name: "rate limit", mutate: func(o *CloudWatchScanOptions) { o.RateLimit = 0 }, wantError: "rate limit"},
		{name: "endpoint", mutate: func(o *CloudWatchScanOptions) { o.EndpointURL = "localhost" }, wantError: "scheme"},
		{name: "pages", mutate: func(o *CloudWatchScanOptions) { o.MaxPagesPerSource = 0 }, wantError: "max pages"},
		{name: "timeout", mutate: func(o *CloudWatchScanOptions) { o.Timeout = -time.Second }, wantError: "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultCloudWatchScanOptions()
			tt.mutate(&opts)
			err := opts.Validate()
			if tt.wantError == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantError)
		})
	}
}
