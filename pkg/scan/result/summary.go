package result

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rxwycdh/rxhash"

	"github.com/CompassSecurity/logleek/pkg/format"
	"github.com/CompassSecurity/logleek/pkg/scanner/types"
)

// Stats counts what a scan covered.
type Stats struct {
	Regions           int `json:"regions"`
	Sources           int `json:"sources"`
	SourcesScanned    int `json:"sourcesScanned"`
	SourcesFailed     int `json:"sourcesFailed"`
	SourcesSkipped    int `json:"sourcesSkipped"`
	SourcesTruncated  int `json:"sourcesTruncated"`
	EnumerationErrors int `json:"enumerationErrors"`
	Events            int `json:"events"`
	BytesScanned      int `json:"bytesScanned"`
	Findings          int `json:"findings"`
}

// Report is the outcome of a scan as written to the report file.
type Report struct {
	GeneratedAt time.Time         `json:"generatedAt"`
	Account     string            `json:"account,omitempty"`
	WindowStart time.Time         `json:"windowStart"`
	WindowEnd   time.Time         `json:"windowEnd"`
	Partial     bool              `json:"partial"`
	Stats       Stats             `json:"stats"`
	Findings    []ReportedFinding `json:"findings"`
	Errors      []string          `json:"errors,omitempty"`
}

// ReportedFinding is a finding with a fingerprint that is stable across runs.
type ReportedFinding struct {
	types.Finding
	Fingerprint string `json:"fingerprint"`
}

// NewReport builds a report and fingerprints every finding.
func NewReport(window types.ScanWindow, findings []types.Finding, stats Stats, partial bool, errs []error) Report {
	report := Report{
		GeneratedAt: time.Now().UTC(),
		WindowStart: window.Start.UTC(),
		WindowEnd:   window.End.UTC(),
		Partial:     partial,
		Stats:       stats,
		Findings:    make([]ReportedFinding, 0, len(findings)),
	}

	for _, f := range findings {
		report.Findings = append(report.Findings, ReportedFinding{Finding: f, Fingerprint: Fingerprint(f)})
	}
	for _, err := range errs {
		report.Errors = append(report.Errors, err.Error())
	}
	return report
}

// Fingerprint hashes the provenance, rule and matched text of a finding.
func Fingerprint(f types.Finding) string {
	hash, err := rxhash.HashStruct(struct {
		Source types.LogSource
		Rule   string
		Text   string
		Millis int64
	}{f.Source, f.Rule, f.Text, f.Timestamp.UnixMilli()})
	if err != nil {
		log.Debug().Err(err).Msg("Failed hashing finding")
		return ""
	}
	return hash
}

// WriteReport writes report as indented JSON to path, readable only by the current user.
func WriteReport(path string, report Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), format.FileUserReadWrite)
}

// LogSummary logs the scan statistics. A partial scan is logged as a warning.
func LogSummary(window types.ScanWindow, stats Stats, partial bool, elapsed time.Duration) {
	var event *zerolog.Event
	if partial {
		event = log.Warn()
	} else {
		event = log.Info()
	}

	event.
		Str("window", format.Window(window.Start, window.End)).
		Str("lookback", format.HumanDuration(window.Duration())).
		Int("regions", stats.Regions).
		Int("sources", stats.Sources).
		Int("sourcesScanned", stats.SourcesScanned).
		Int("sourcesFailed", stats.SourcesFailed).
		Int("sourcesSkipped", stats.SourcesSkipped).
		Int("sourcesTruncated", stats.SourcesTruncated).
		Int("enumerationErrors", stats.EnumerationErrors).
		Int("events", stats.Events).
		Int("findings", stats.Findings).
		Str("elapsed", format.HumanDuration(elapsed)).
		Bool("partial", partial)

	switch {
	case partial:
		event.Msg("Scan finished partially, some sources were not scanned")
	case stats.Findings == 0:
		event.Msg("Scan finished, no secrets found")
	default:
		event.Msg("Scan finished")
	}
}
