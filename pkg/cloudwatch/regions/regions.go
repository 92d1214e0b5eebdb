// Package regions resolves the set of regions a scan covers.
package regions

import (
	"context"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/rs/zerolog/log"

	"github.com/CompassSecurity/logleek/pkg/cloudwatch/client"
	"github.com/CompassSecurity/logleek/pkg/scanerr"
	"github.com/CompassSecurity/logleek/pkg/scanner/types"
)

// ServiceLogs is the service name of CloudWatch Logs.
const ServiceLogs = "logs"

// DefaultRegions are the commercial regions offering CloudWatch Logs.
// Opt-in regions are included, enumeration reports them as failed when they are not enabled.
var DefaultRegions = []types.Region{
	"af-south-1",
	"ap-east-1",
	"ap-northeast-1",
	"ap-northeast-2",
	"ap-northeast-3",
	"ap-south-1",
	"ap-south-2",
	"ap-southeast-1",
	"ap-southeast-2",
	"ap-southeast-3",
	"ap-southeast-4",
	"ca-central-1",
	"ca-west-1",
	"eu-central-1",
	"eu-central-2",
	"eu-north-1",
	"eu-south-1",
	"eu-south-2",
	"eu-west-1",
	"eu-west-2",
	"eu-west-3",
	"il-central-1",
	"me-central-1",
	"me-south-1",
	"sa-east-1",
	"us-east-1",
	"us-east-2",
	"us-west-1",
	"us-west-2",
}

// Catalog lists the regions in which a service is offered.
// Callers must not depend on the order, an empty list is valid.
type Catalog interface {
	ListAvailableRegions(ctx context.Context, service string) ([]types.Region, error)
}

// StaticCatalog returns a fixed list of regions.
type StaticCatalog struct {
	Regions []types.Region
}

// NewStaticCatalog returns a StaticCatalog of the given region names.
func NewStaticCatalog(names []string) *StaticCatalog {
	regions := make([]types.Region, 0, len(names))
	for _, name := range names {
		if name != "" {
			regions = append(regions, types.Region(name))
		}
	}
	return &StaticCatalog{Regions: regions}
}

func (c *StaticCatalog) ListAvailableRegions(ctx context.Context, service string) ([]types.Region, error) {
	out := make([]types.Region, len(c.Regions))
	copy(out, c.Regions)
	return out, nil
}

// EC2Catalog lists the regions enabled for the account with ec2:DescribeRegions.
// Every CloudWatch Logs region is an EC2 region, so service only shows up in logs.
type EC2Catalog struct {
	Client client.EC2API
	// Fallback serves when DescribeRegions is rejected, DefaultRegions when nil
	Fallback Catalog
}

func (c *EC2Catalog) ListAvailableRegions(ctx context.Context, service string) ([]types.Region, error) {
	out, err := c.Client.DescribeRegions(ctx, &ec2.DescribeRegionsInput{AllRegions: aws.Bool(false)})
	if err != nil {
		if client.IsTransport(err) || client.IsCanceled(err) {
			return nil, scanerr.New(scanerr.RegionCatalogError, "DescribeRegions", service, err).WithReason(client.Reason(err))
		}

		log.Warn().Err(err).Str("service", service).Msg("Listing enabled regions failed, falling back to the default region list")
		fallback := c.Fallback
		if fallback == nil {
			fallback = &StaticCatalog{Regions: DefaultRegions}
		}
		return fallback.ListAvailableRegions(ctx, service)
	}

	regions := make([]types.Region, 0, len(out.Regions))
	for _, r := range out.Regions {
		if aws.ToString(r.OptInStatus) == "not-opted-in" {
			log.Debug().Str("region", aws.ToString(r.RegionName)).Msg("Skipping region that is not opted in")
			continue
		}
		if name := aws.ToString(r.RegionName); name != "" {
			regions = append(regions, types.Region(name))
		}
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i] < regions[j] })

	log.Debug().Int("count", len(regions)).Str("service", service).Msg("Resolved enabled regions")
	return regions, nil
}
