package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type countingLogs struct {
	LogsAPI
	region string
	calls  int
}

func (c *countingLogs) DescribeLogGroups(ctx context.Context, params *cloudwatchlogs.DescribeLogGroupsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogGroupsOutput, error) {
	c.calls++
	return &cloudwatchlogs.DescribeLogGroupsOutput{}, nil
}

func newTestFactory(rateLimit float64) (*Factory, *int) {
	created := 0
	var mu sync.Mutex
	f := NewFactory(aws.Config{Region: "us-east-1"}, Options{RateLimit: rateLimit})
	f.newLogs = func(cfg aws.Config, region string) LogsAPI {
		mu.Lock()
		created++
		mu.Unlock()
		return &countingLogs{region: region}
	}
	return f, &created
}

func TestFactory_LogsIsCachedPerRegion(t *testing.T) {
	f, created := newTestFactory(0)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.Logs("eu-west-1")
		}()
	}
	wg.Wait()

	a := f.Logs("eu-west-1")
	b := f.Logs("eu-central-1")

	assert.Equal(t, 2, *created)
	assert.Equal(t, "eu-west-1", a.(*countingLogs).region)
	assert.Equal(t, "eu-central-1", b.(*countingLogs).region)
	assert.Equal(t, 2, f.logs.Len())
}

func TestFactory_LogsIsRateLimited(t *testing.T) {
	f, _ := newTestFactory(5)

	logs := f.Logs("eu-west-1")
	limited, ok := logs.(*RateLimited)
	require.True(t, ok)
	assert.Equal(t, "eu-west-1", limited.Region)
	assert.Equal(t, rate.Limit(5), limited.Limiter.Limit())
	assert.Equal(t, 5, limited.Limiter.Burst())

	_, err := logs.DescribeLogGroups(context.Background(), &cloudwatchlogs.DescribeLogGroupsInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, limited.Next.(*countingLogs).calls)
}

func TestRateLimited_CancelledContext(t *testing.T) {
	next := &countingLogs{}
	limited := &RateLimited{Next: next, Limiter: rate.NewLimiter(rate.Limit(0.001), 1)}

	_, err := limited.DescribeLogGroups(context.Background(), &cloudwatchlogs.DescribeLogGroupsInput{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = limited.DescribeLogGroups(ctx, &cloudwatchlogs.DescribeLogGroupsInput{})
	assert.Error(t, err)
	assert.Equal(t, 1, next.calls)
}

func TestRateLimited_DeadlineShorterThanWait(t *testing.T) {
	next := &countingLogs{}
	limited := &RateLimited{Next: next, Limiter: rate.NewLimiter(rate.Limit(0.001), 1)}

	_, err := limited.DescribeLogGroups(context.Background(), &cloudwatchlogs.DescribeLogGroupsInput{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = limited.DescribeLogGroups(ctx, &cloudwatchlogs.DescribeLogGroupsInput{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, IsCanceled(err))
	assert.Equal(t, "canceled", Reason(err))
	assert.Equal(t, 1, next.calls)
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		reason string
	}{
		{name: "throttling", err: &smithy.GenericAPIError{Code: "ThrottlingException"}, reason: "throttled"},
		{name: "access denied", err: &smithy.GenericAPIError{Code: "AccessDeniedException"}, reason: "access-denied"},
		{name: "expired", err: &smithy.GenericAPIError{Code: "ExpiredTokenException"}, reason: "expired"},
		{name: "other api error", err: &smithy.GenericAPIError{Code: "ResourceNotFoundException"}, reason: "ResourceNotFoundException"},
		{name: "transport", err: &smithyhttp.RequestSendError{Err: errors.New("dial tcp: connection refused")}, reason: "transport"},
		{name: "wrapped", err: fmt.Errorf("op: %w", &smithy.GenericAPIError{Code: "Throttling"}), reason: "throttled"},
		{name: "canceled", err: context.Canceled, reason: "canceled"},
		{name: "plain", err: errors.New("boom"), reason: "unknown"},
		{name: "nil", err: nil, reason: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.reason, Reason(tt.err))
		})
	}

	assert.True(t, IsThrottle(&smithy.GenericAPIError{Code: "ThrottlingException"}))
	assert.False(t, IsThrottle(errors.New("ThrottlingException")))
	assert.True(t, IsTransport(&smithyhttp.RequestSendError{Err: errors.New("eof")}))
	assert.Equal(t, "", ErrorCode(errors.New("boom")))
}
