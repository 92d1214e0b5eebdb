package client

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"golang.org/x/time/rate"
)

// RateLimited throttles every call to Next through Limiter.
// A cancelled context ends the wait with the context error, and a wait that
// would outlast the context deadline fails with context.DeadlineExceeded.
type RateLimited struct {
	Next    LogsAPI
	Region  string
	Limiter *rate.Limiter
}

func (r *RateLimited) DescribeLogGroups(ctx context.Context, params *cloudwatchlogs.DescribeLogGroupsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogGroupsOutput, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.Next.DescribeLogGroups(ctx, params, optFns...)
}

func (r *RateLimited) DescribeLogStreams(ctx context.Context, params *cloudwatchlogs.DescribeLogStreamsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogStreamsOutput, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.Next.DescribeLogStreams(ctx, params, optFns...)
}

func (r *RateLimited) GetLogEvents(ctx context.Context, params *cloudwatchlogs.GetLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.GetLogEventsOutput, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.Next.GetLogEvents(ctx, params, optFns...)
}

func (r *RateLimited) wait(ctx context.Context) error {
	err := r.Limiter.Wait(ctx)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if _, ok := ctx.Deadline(); ok && r.Limiter.Burst() > 0 {
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return err
}
