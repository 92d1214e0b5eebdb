// Package client builds the AWS SDK clients used by a CloudWatch Logs scan.
// CloudWatch Logs clients are created once per region and shared by all workers.
package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/jellydator/ttlcache/v3"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// LogsAPI is the part of the CloudWatch Logs API a scan calls.
// *cloudwatchlogs.Client implements it, tests provide fakes.
type LogsAPI interface {
	DescribeLogGroups(ctx context.Context, params *cloudwatchlogs.DescribeLogGroupsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogGroupsOutput, error)
	DescribeLogStreams(ctx context.Context, params *cloudwatchlogs.DescribeLogStreamsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogStreamsOutput, error)
	GetLogEvents(ctx context.Context, params *cloudwatchlogs.GetLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.GetLogEventsOutput, error)
}

// STSAPI is the part of the STS API used by the preflight.
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// EC2API is the part of the EC2 API used for region discovery.
type EC2API interface {
	DescribeRegions(ctx context.Context, params *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error)
}

// Provider hands out the clients of a scan.
type Provider interface {
	Config() aws.Config
	Logs(region string) LogsAPI
	STS() STSAPI
	EC2() EC2API
}

// Options configure LoadConfig and NewFactory.
type Options struct {
	// Profile selects a shared config profile, empty uses the default chain
	Profile string
	// Region is the home region, empty falls back to env, profile and EC2 IMDS
	Region string
	// EndpointURL overrides the endpoint of every service, e.g. LocalStack
	EndpointURL string
	// RateLimit is the number of requests per second per region, zero disables limiting
	RateLimit float64
	// HTTPClient sends all SDK requests
	HTTPClient *http.Client
}

// LoadConfig resolves region and credentials the way the AWS CLI does.
// SDK retries are disabled, callers decide what to retry.
func LoadConfig(ctx context.Context, opts Options) (aws.Config, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRetryMaxAttempts(1),
		config.WithEC2IMDSRegion(func(o *config.UseEC2IMDSRegion) {
			o.Client = imds.New(imds.Options{})
		}),
	}

	if opts.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(opts.Profile))
	}
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.EndpointURL != "" {
		log.Debug().Str("endpoint", opts.EndpointURL).Msg("Using custom AWS endpoint")
		loadOpts = append(loadOpts, config.WithBaseEndpoint(opts.EndpointURL))
	}
	if opts.HTTPClient != nil {
		loadOpts = append(loadOpts, config.WithHTTPClient(opts.HTTPClient))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS config: %w", err)
	}
	return cfg, nil
}

// Factory creates SDK clients from one aws.Config.
type Factory struct {
	cfg       aws.Config
	rateLimit float64
	logs      *ttlcache.Cache[string, LogsAPI]
	newLogs   func(cfg aws.Config, region string) LogsAPI
}

// NewFactory returns a Factory for cfg.
func NewFactory(cfg aws.Config, opts Options) *Factory {
	return &Factory{
		cfg:       cfg,
		rateLimit: opts.RateLimit,
		logs: ttlcache.New[string, LogsAPI](
			ttlcache.WithDisableTouchOnHit[string, LogsAPI](),
		),
		newLogs: func(cfg aws.Config, region string) LogsAPI {
			return cloudwatchlogs.NewFromConfig(cfg, func(o *cloudwatchlogs.Options) {
				o.Region = region
			})
		},
	}
}

// Config returns the resolved AWS config.
func (f *Factory) Config() aws.Config {
	return f.cfg
}

// Logs returns the rate limited CloudWatch Logs client of region.
// Concurrent calls for the same region share one client.
func (f *Factory) Logs(region string) LogsAPI {
	loader := ttlcache.LoaderFunc[string, LogsAPI](
		func(c *ttlcache.Cache[string, LogsAPI], key string) *ttlcache.Item[string, LogsAPI] {
			log.Trace().Str("region", key).Msg("Creating CloudWatch Logs client")
			return c.Set(key, f.limited(key, f.newLogs(f.cfg, key)), ttlcache.NoTTL)
		},
	)

	item := f.logs.Get(region, ttlcache.WithLoader[string, LogsAPI](ttlcache.NewSuppressedLoader[string, LogsAPI](loader, nil)))
	return item.Value()
}

// STS returns an STS client for the home region.
func (f *Factory) STS() STSAPI {
	return sts.NewFromConfig(f.cfg)
}

// EC2 returns an EC2 client for the home region.
func (f *Factory) EC2() EC2API {
	return ec2.NewFromConfig(f.cfg)
}

func (f *Factory) limited(region string, next LogsAPI) LogsAPI {
	if f.rateLimit <= 0 {
		return next
	}
	burst := int(f.rateLimit)
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{
		Next:    next,
		Region:  region,
		Limiter: rate.NewLimiter(rate.Limit(f.rateLimit), burst),
	}
}
