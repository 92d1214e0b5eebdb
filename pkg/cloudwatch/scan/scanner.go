// Package scan runs a CloudWatch Logs secret scan from pattern loading to the final report.
package scan

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/wandb/parallel"

	"github.com/CompassSecurity/logleek/pkg/cloudwatch/client"
	"github.com/CompassSecurity/logleek/pkg/cloudwatch/enum"
	"github.com/CompassSecurity/logleek/pkg/cloudwatch/fetch"
	"github.com/CompassSecurity/logleek/pkg/cloudwatch/preflight"
	"github.com/CompassSecurity/logleek/pkg/cloudwatch/regions"
	"github.com/CompassSecurity/logleek/pkg/config"
	"github.com/CompassSecurity/logleek/pkg/format"
	"github.com/CompassSecurity/logleek/pkg/logging"
	"github.com/CompassSecurity/logleek/pkg/scan/logline"
	"github.com/CompassSecurity/logleek/pkg/scan/result"
	pkgscanner "github.com/CompassSecurity/logleek/pkg/scanner"
	"github.com/CompassSecurity/logleek/pkg/scanner/engine"
	"github.com/CompassSecurity/logleek/pkg/scanner/rules"
	"github.com/CompassSecurity/logleek/pkg/scanner/types"
	"github.com/CompassSecurity/logleek/pkg/scanerr"
)

// ScanOptions contains configuration options for CloudWatch Logs scanning operations.
type ScanOptions struct {
	config.CloudWatchScanOptions

	// Clients provides the SDK clients, required
	Clients client.Provider
	// Catalog overrides region discovery, derived from Regions when nil
	Catalog regions.Catalog
	// Patterns overrides loading PatternsFile
	Patterns *types.PatternSet
	// Output receives the catalog table, nothing is printed when nil
	Output io.Writer
	// Now is the end of the scan window, time.Now when nil
	Now func() time.Time
	// RetryInterval is the wait before retrying a throttled fetch
	RetryInterval time.Duration
}

// Result is the outcome of a scan. Partial tells "no secrets found" apart from "scan partially failed".
type Result struct {
	Window   types.ScanWindow
	Identity preflight.Identity
	Regions  []types.Region
	Sources  []types.LogSource
	Findings []types.Finding
	Errors   []error
	Stats    result.Stats
	Partial  bool
	State    State
}

type Scanner interface {
	pkgscanner.ScannerWithStatus[*Result]
	// State returns the current stage of the run.
	State() State
}

type cloudWatchScanner struct {
	options ScanOptions
	states  *stateMachine

	sourcesTotal atomic.Int64
	sourcesDone  atomic.Int64
	findings     atomic.Int64
}

var _ Scanner = (*cloudWatchScanner)(nil)

func NewScanner(opts ScanOptions) Scanner {
	return &cloudWatchScanner{
		options: opts,
		states:  newStateMachine(),
	}
}

func (s *cloudWatchScanner) State() State {
	return s.states.get()
}

// GetStatus returns the progress of the run for the status shortcut.
func (s *cloudWatchScanner) GetStatus() *zerolog.Event {
	return log.Info().
		Str("state", string(s.State())).
		Int64("sourcesDone", s.sourcesDone.Load()).
		Int64("sourcesTotal", s.sourcesTotal.Load()).
		Int64("findings", s.findings.Load())
}

// Scan runs the whole pipeline. Only a pattern ConfigError, a preflight AuthError or a
// RegionCatalogError abort it, all other failures shrink the working set and mark the result partial.
func (s *cloudWatchScanner) Scan(ctx context.Context) (*Result, error) {
	started := time.Now()
	if s.options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.options.Timeout)
		defer cancel()
	}

	now := time.Now
	if s.options.Now != nil {
		now = s.options.Now
	}
	res := &Result{
		Window:   types.NewScanWindow(now().UTC(), s.options.Lookback),
		Sources:  []types.LogSource{},
		Findings: []types.Finding{},
	}
	log.Info().Str("window", format.Window(res.Window.Start, res.Window.End)).Msg("Starting CloudWatch Logs scan")

	patterns, err := s.loadPatterns()
	if err != nil {
		return s.abort(res, err)
	}
	s.states.to(StatePatternsLoaded)

	if s.options.Clients == nil {
		return s.abort(res, scanerr.New(scanerr.AuthError, "preflight", "clients", errNoClients).WithReason(preflight.ReasonMissing))
	}

	res.Identity, err = preflight.Check(ctx, s.options.Clients)
	if err != nil {
		return s.abort(res, err)
	}

	res.Regions, err = s.resolveRegions(ctx)
	if err != nil {
		return s.abort(res, err)
	}
	res.Stats.Regions = len(res.Regions)
	s.states.to(StateRegionsResolved)

	enumerator := &enum.Enumerator{
		Clients:     s.options.Clients,
		GroupPrefix: s.options.GroupPrefix,
		Workers:     s.options.MaxScanGoRoutines,
	}
	sources, enumErrs := enumerator.Enumerate(ctx, res.Regions)
	res.Sources = sources
	res.Stats.Sources = len(sources)
	res.Stats.EnumerationErrors = len(enumErrs)
	for _, e := range enumErrs {
		res.Errors = append(res.Errors, e)
	}
	s.sourcesTotal.Store(int64(len(sources)))
	log.Info().Int("regions", len(res.Regions)).Int("sources", len(sources)).Int("errors", len(enumErrs)).Msg("Enumerated log sources")
	if s.options.Output != nil {
		if err := result.PrintCatalog(s.options.Output, sources); err != nil {
			log.Error().Err(err).Msg("Failed printing log source catalog")
		}
	}
	s.states.to(StateSourcesEnumerated)

	outcomes := s.scanSources(ctx, sources, res.Window, patterns)
	s.states.to(StateEventsFetched)

	for _, o := range outcomes {
		switch {
		case o.skipped:
			res.Stats.SourcesSkipped++
		case o.truncated:
			res.Stats.SourcesTruncated++
			res.Errors = append(res.Errors, o.err)
		case o.err != nil:
			res.Stats.SourcesFailed++
			res.Errors = append(res.Errors, o.err)
		default:
			res.Stats.SourcesScanned++
		}
		res.Stats.Events += o.events
		res.Stats.BytesScanned += o.bytes
		res.Findings = append(res.Findings, o.findings...)
	}
	res.Stats.Findings = len(res.Findings)
	s.states.to(StateMatched)

	res.Partial = ctx.Err() != nil || res.Stats.SourcesFailed > 0 || res.Stats.SourcesSkipped > 0 ||
		res.Stats.SourcesTruncated > 0 || res.Stats.EnumerationErrors > 0
	s.report(res, time.Since(started))
	s.states.to(StateReported)
	res.State = s.State()
	return res, nil
}

func (s *cloudWatchScanner) loadPatterns() (*types.PatternSet, error) {
	patterns := s.options.Patterns
	if patterns == nil {
		path := s.options.PatternsFile
		if path == "" {
			path = rules.DefaultPatternFile
		}
		loaded, err := rules.Load(path)
		if err != nil {
			return nil, err
		}
		patterns = loaded
	}

	filtered := rules.FilterByConfidence(patterns, s.options.ConfidenceFilter)
	log.Info().Int("count", filtered.Len()).Msg("Loaded detection patterns")
	return filtered, nil
}

func (s *cloudWatchScanner) resolveRegions(ctx context.Context) ([]types.Region, error) {
	catalog := s.options.Catalog
	if catalog == nil {
		if len(s.options.Regions) > 0 {
			catalog = regions.NewStaticCatalog(s.options.Regions)
		} else {
			catalog = &regions.EC2Catalog{Client: s.options.Clients.EC2()}
		}
	}

	list, err := catalog.ListAvailableRegions(ctx, regions.ServiceLogs)
	if err != nil {
		if scanerr.KindOf(err) == "" {
			err = scanerr.New(scanerr.RegionCatalogError, "ListAvailableRegions", regions.ServiceLogs, err).WithReason(client.Reason(err))
		}
		return nil, err
	}
	if len(list) == 0 {
		log.Warn().Msg("No regions available, nothing to scan")
	}
	return list, nil
}

type sourceOutcome struct {
	index     int
	findings  []types.Finding
	events    int
	bytes     int
	err       error
	skipped   bool
	truncated bool
}

// scanSources fetches and matches every source in a bounded worker pool.
// Tasks never fail the group, so one source cannot cancel its siblings. Outcomes are in catalog order.
func (s *cloudWatchScanner) scanSources(ctx context.Context, sources []types.LogSource, window types.ScanWindow, patterns *types.PatternSet) []sourceOutcome {
	workers := s.options.MaxScanGoRoutines
	if workers < 1 {
		workers = 1
	}

	fetcher := &fetch.Fetcher{
		Clients:       s.options.Clients,
		MaxPages:      s.options.MaxPagesPerSource,
		RetryInterval: s.options.RetryInterval,
	}

	group := parallel.Collect[sourceOutcome](parallel.Limited(ctx, workers))
	for i, source := range sources {
		group.Go(func(ctx context.Context) (sourceOutcome, error) {
			outcome, err := engine.Safely(func() (sourceOutcome, error) {
				return s.scanSource(ctx, fetcher, i, source, window, patterns), nil
			})
			if err != nil {
				log.Error().Err(err).Str("source", source.String()).Msg("Scanning log source panicked")
				outcome = sourceOutcome{
					index: i,
					err:   scanerr.New(scanerr.FetchError, "scan", source.String(), err).WithReason("panic"),
				}
			}
			s.sourcesDone.Add(1)
			return outcome, nil
		})
	}

	collected, _ := group.Wait()

	outcomes := make([]sourceOutcome, len(sources))
	for i := range outcomes {
		outcomes[i] = sourceOutcome{index: i, skipped: true}
	}
	for _, o := range collected {
		outcomes[o.index] = o
	}
	return outcomes
}

func (s *cloudWatchScanner) scanSource(ctx context.Context, fetcher *fetch.Fetcher, index int, source types.LogSource, window types.ScanWindow, patterns *types.PatternSet) sourceOutcome {
	outcome := sourceOutcome{index: index}
	if ctx.Err() != nil {
		outcome.skipped = true
		return outcome
	}

	events, err := fetcher.Fetch(ctx, source, window)
	if errors.Is(err, fetch.ErrPageLimit) {
		outcome.truncated = true
		outcome.err = err
		err = nil
	}
	if err != nil {
		if ctx.Err() != nil && client.IsCanceled(err) {
			outcome.skipped = true
			return outcome
		}
		log.Warn().Err(err).Str("region", source.Region).Str("group", source.Group).Str("stream", source.Stream).
			Str("reason", scanerr.ReasonOf(err)).Msg("Fetching log events failed, skipping source")
		outcome.err = err
		return outcome
	}

	processed, err := logline.ProcessEvents(ctx, events, logline.ProcessOptions{
		Patterns:          patterns,
		MaxGoRoutines:     s.options.MaxScanGoRoutines,
		TruffleHog:        s.options.TruffleHog,
		VerifyCredentials: s.options.TruffleHogVerification,
		HitTimeout:        s.options.HitTimeout,
	})
	if err != nil {
		log.Warn().Err(err).Str("source", source.String()).Msg("TruffleHog detection failed, keeping pattern findings")
	}

	outcome.findings = processed.Findings
	outcome.events = processed.EventsScanned
	outcome.bytes = processed.BytesScanned
	s.findings.Add(int64(len(processed.Findings)))
	log.Debug().Str("source", source.String()).Int("events", outcome.events).Int("findings", len(outcome.findings)).Msg("Scanned log source")
	return outcome
}

func (s *cloudWatchScanner) report(res *Result, elapsed time.Duration) {
	for _, f := range res.Findings {
		secretType := logging.SecretTypeLogEvent
		if strings.HasPrefix(f.Rule, engine.TruffleHogRulePrefix) {
			secretType = logging.SecretTypeDetector
		}
		result.ReportFinding(f, result.ReportOptions{Type: secretType})
	}

	result.LogSummary(res.Window, res.Stats, res.Partial, elapsed)

	if s.options.ReportFile == "" {
		return
	}
	report := result.NewReport(res.Window, res.Findings, res.Stats, res.Partial, res.Errors)
	report.Account = res.Identity.Account
	if err := result.WriteReport(s.options.ReportFile, report); err != nil {
		log.Error().Err(err).Str("file", s.options.ReportFile).Msg("Failed writing report file")
		return
	}
	log.Info().Str("file", s.options.ReportFile).Msg("Wrote report file")
}

func (s *cloudWatchScanner) abort(res *Result, err error) (*Result, error) {
	s.states.to(StateAborted)
	res.State = s.State()
	res.Errors = append(res.Errors, err)
	log.Error().Err(err).Str("reason", scanerr.ReasonOf(err)).Msg("Scan aborted")
	return res, err
}

var errNoClients = errors.New("no AWS clients configured")
