package scan

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/CompassSecurity/logleek/pkg/cloudwatch/enum"
	"github.com/CompassSecurity/logleek/pkg/cloudwatch/preflight"
	"github.com/CompassSecurity/logleek/pkg/scan/result"
	"github.com/CompassSecurity/logleek/pkg/scanerr"
	"github.com/CompassSecurity/logleek/pkg/scanner/types"
)

// Inventory is the log source catalog of an account without fetching any events.
type Inventory struct {
	Identity preflight.Identity
	Regions  []types.Region
	Sources  []types.LogSource
	Errors   []*scanerr.Error
}

// ListSources runs the preflight, resolves the regions and enumerates every log source.
// The catalog is printed to opts.Output when set.
func ListSources(ctx context.Context, opts ScanOptions) (*Inventory, error) {
	if opts.Clients == nil {
		return nil, scanerr.New(scanerr.AuthError, "preflight", "clients", errNoClients).WithReason(preflight.ReasonMissing)
	}

	s := &cloudWatchScanner{options: opts, states: newStateMachine()}
	inv := &Inventory{Sources: []types.LogSource{}}

	var err error
	inv.Identity, err = preflight.Check(ctx, opts.Clients)
	if err != nil {
		return inv, err
	}

	inv.Regions, err = s.resolveRegions(ctx)
	if err != nil {
		return inv, err
	}

	enumerator := &enum.Enumerator{
		Clients:     opts.Clients,
		GroupPrefix: opts.GroupPrefix,
		Workers:     opts.MaxScanGoRoutines,
	}
	inv.Sources, inv.Errors = enumerator.Enumerate(ctx, inv.Regions)
	log.Info().Int("regions", len(inv.Regions)).Int("sources", len(inv.Sources)).Int("errors", len(inv.Errors)).Msg("Enumerated log sources")

	if opts.Output != nil {
		if err := result.PrintCatalog(opts.Output, inv.Sources); err != nil {
			return inv, err
		}
	}
	return inv, nil
}
