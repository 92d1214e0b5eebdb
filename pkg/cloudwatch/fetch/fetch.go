// Package fetch retrieves the log events of a single log source within a scan window.
package fetch

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"github.com/CompassSecurity/logleek/pkg/cloudwatch/client"
	"github.com/CompassSecurity/logleek/pkg/format"
	"github.com/CompassSecurity/logleek/pkg/scanerr"
	"github.com/CompassSecurity/logleek/pkg/scanner/types"
)

const (
	// DefaultMaxPages caps GetLogEvents pagination of one source.
	DefaultMaxPages = 10000
	// DefaultRetryInterval is the wait before retrying a throttled call.
	DefaultRetryInterval = 500 * time.Millisecond
	// maxThrottleRetries makes two attempts in total.
	maxThrottleRetries = 1
	// ReasonPageLimit marks a source cut off by the page cap.
	ReasonPageLimit = "page-limit"
)

// ErrPageLimit is wrapped by the FetchError returned together with the events of a truncated source.
var ErrPageLimit = errors.New("page limit reached before the end of the stream")

// LogsClients returns the CloudWatch Logs client of a region.
type LogsClients interface {
	Logs(region string) client.LogsAPI
}

// Fetcher reads events oldest first, following the forward token.
type Fetcher struct {
	Clients       LogsClients
	MaxPages      int
	RetryInterval time.Duration
}

// Fetch returns the events of source with window.Start <= timestamp <= window.End in provider order.
// Events outside the window are dropped even when the provider returns them.
// When the page cap is hit the events read so far are returned with a FetchError wrapping ErrPageLimit.
func (f *Fetcher) Fetch(ctx context.Context, source types.LogSource, window types.ScanWindow) ([]types.LogEvent, error) {
	api := f.Clients.Logs(source.Region)
	maxPages := f.MaxPages
	if maxPages < 1 {
		maxPages = DefaultMaxPages
	}

	// the API end bound is exclusive
	end := format.ToMillis(window.End) + 1
	input := &cloudwatchlogs.GetLogEventsInput{
		LogGroupName:  aws.String(source.Group),
		LogStreamName: aws.String(source.Stream),
		StartTime:     aws.Int64(format.ToMillis(window.Start)),
		EndTime:       aws.Int64(end),
		StartFromHead: aws.Bool(true),
	}

	events := []types.LogEvent{}
	for page := 0; ; page++ {
		if page >= maxPages {
			log.Warn().Str("region", source.Region).Str("group", source.Group).Str("stream", source.Stream).
				Int("pages", page).Int("events", len(events)).Msg("Page limit reached, remaining events of this source are not scanned")
			return events, scanerr.New(scanerr.FetchError, "GetLogEvents", source.String(), ErrPageLimit).WithReason(ReasonPageLimit)
		}

		out, err := f.getPage(ctx, api, input)
		if err != nil {
			return events, scanerr.New(scanerr.FetchError, "GetLogEvents", source.String(), err).WithReason(client.Reason(err))
		}

		for _, e := range out.Events {
			if event, ok := convert(source, e); ok && window.Contains(event.Timestamp) {
				events = append(events, event)
			}
		}

		next := aws.ToString(out.NextForwardToken)
		if next == "" || next == aws.ToString(input.NextToken) {
			break
		}
		input.NextToken = aws.String(next)
	}

	log.Trace().Str("source", source.String()).Int("events", len(events)).Msg("Fetched log events")
	return events, nil
}

func (f *Fetcher) getPage(ctx context.Context, api client.LogsAPI, input *cloudwatchlogs.GetLogEventsInput) (*cloudwatchlogs.GetLogEventsOutput, error) {
	interval := f.RetryInterval
	if interval <= 0 {
		interval = DefaultRetryInterval
	}
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = interval
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, maxThrottleRetries), ctx)

	return backoff.RetryWithData(func() (*cloudwatchlogs.GetLogEventsOutput, error) {
		out, err := api.GetLogEvents(ctx, input)
		if err == nil {
			return out, nil
		}
		if client.IsThrottle(err) {
			log.Debug().Str("group", aws.ToString(input.LogGroupName)).Str("stream", aws.ToString(input.LogStreamName)).Msg("Throttled, retrying")
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}, policy)
}

func convert(source types.LogSource, e cwtypes.OutputLogEvent) (types.LogEvent, bool) {
	if e.Timestamp == nil {
		return types.LogEvent{}, false
	}
	return types.LogEvent{
		Source:    source,
		Timestamp: format.FormatMillis(*e.Timestamp),
		Message:   aws.ToString(e.Message),
	}, true
}
