// Package enum builds the catalog of log sources (region, group, stream) of a scan.
package enum

import (
	"context"
	"slices"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/rs/zerolog/log"
	"github.com/wandb/parallel"

	"github.com/CompassSecurity/logleek/pkg/cloudwatch/client"
	"github.com/CompassSecurity/logleek/pkg/scanerr"
	"github.com/CompassSecurity/logleek/pkg/scanner/engine"
	"github.com/CompassSecurity/logleek/pkg/scanner/types"
)

// LogsClients returns the CloudWatch Logs client of a region.
type LogsClients interface {
	Logs(region string) client.LogsAPI
}

// Enumerator lists every log stream of every log group in the given regions.
type Enumerator struct {
	Clients LogsClients
	// GroupPrefix restricts enumeration to log groups starting with it
	GroupPrefix string
	// Workers bounds the number of regions listed concurrently
	Workers int
}

type regionResult struct {
	index   int
	sources []types.LogSource
	errs    []*scanerr.Error
}

// Enumerate returns the catalog in region order, then provider listing order.
// Failures of a region or a single group are returned alongside the catalog and never stop other regions.
func (e *Enumerator) Enumerate(ctx context.Context, regions []types.Region) ([]types.LogSource, []*scanerr.Error) {
	workers := e.Workers
	if workers < 1 {
		workers = 1
	}

	group := parallel.Collect[regionResult](parallel.Limited(ctx, workers))
	for i, region := range regions {
		group.Go(func(ctx context.Context) (regionResult, error) {
			res, err := engine.Safely(func() (regionResult, error) {
				return e.enumerateRegion(ctx, i, region), nil
			})
			if err != nil {
				res = regionResult{index: i, errs: []*scanerr.Error{
					scanerr.New(scanerr.SourceError, "enumerate", string(region), err).WithReason("panic"),
				}}
			}
			return res, nil
		})
	}

	results, _ := group.Wait()
	slices.SortFunc(results, func(a, b regionResult) int { return a.index - b.index })

	sources := []types.LogSource{}
	errs := []*scanerr.Error{}
	for _, r := range results {
		sources = append(sources, r.sources...)
		errs = append(errs, r.errs...)
	}
	return sources, errs
}

func (e *Enumerator) enumerateRegion(ctx context.Context, index int, region types.Region) regionResult {
	res := regionResult{index: index}
	if err := ctx.Err(); err != nil {
		res.errs = append(res.errs, sourceError("DescribeLogGroups", string(region), err))
		return res
	}

	api := e.Clients.Logs(string(region))
	groups, err := e.listGroups(ctx, api)
	if err != nil {
		log.Warn().Err(err).Str("region", string(region)).Str("reason", client.Reason(err)).Msg("Listing log groups failed, skipping region")
		res.errs = append(res.errs, sourceError("DescribeLogGroups", string(region), err))
		return res
	}
	log.Debug().Str("region", string(region)).Int("count", len(groups)).Msg("Listed log groups")

	for _, g := range groups {
		streams, err := listStreams(ctx, api, g)
		if err != nil {
			subject := string(region) + ":" + g
			log.Warn().Err(err).Str("region", string(region)).Str("group", g).Str("reason", client.Reason(err)).Msg("Listing log streams failed, skipping group")
			res.errs = append(res.errs, sourceError("DescribeLogStreams", subject, err))
			if client.IsCanceled(err) {
				return res
			}
			continue
		}
		for _, s := range streams {
			res.sources = append(res.sources, types.LogSource{Region: string(region), Group: g, Stream: s})
		}
	}
	return res
}

func (e *Enumerator) listGroups(ctx context.Context, api client.LogsAPI) ([]string, error) {
	input := &cloudwatchlogs.DescribeLogGroupsInput{}
	if e.GroupPrefix != "" {
		input.LogGroupNamePrefix = aws.String(e.GroupPrefix)
	}

	names := []string{}
	paginator := cloudwatchlogs.NewDescribeLogGroupsPaginator(api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, g := range page.LogGroups {
			if name := aws.ToString(g.LogGroupName); name != "" {
				names = append(names, name)
			}
		}
	}
	return names, nil
}

func listStreams(ctx context.Context, api client.LogsAPI, group string) ([]string, error) {
	names := []string{}
	paginator := cloudwatchlogs.NewDescribeLogStreamsPaginator(api, &cloudwatchlogs.DescribeLogStreamsInput{
		LogGroupName: aws.String(group),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, s := range page.LogStreams {
			if name := aws.ToString(s.LogStreamName); name != "" {
				names = append(names, name)
			}
		}
	}
	return names, nil
}

func sourceError(op, subject string, err error) *scanerr.Error {
	return scanerr.New(scanerr.SourceError, op, subject, err).WithReason(client.Reason(err))
}
