package result

import (
	"strings"
	"time"

	"github.com/acarl005/stripansi"

	"github.com/CompassSecurity/logleek/pkg/logging"
	"github.com/CompassSecurity/logleek/pkg/scanner/types"
)

type ReportOptions struct {
	Type logging.SecretType
}

func ReportFindings(findings []types.Finding, opts ReportOptions) {
	for _, finding := range findings {
		ReportFinding(finding, opts)
	}
}

// ReportFinding logs a finding at the hit level with its provenance.
func ReportFinding(finding types.Finding, opts ReportOptions) {
	secretType := opts.Type
	if secretType == "" {
		secretType = logging.SecretTypeLogEvent
	}

	event := logging.Hit().
		Str("type", string(secretType)).
		Str("confidence", finding.Confidence).
		Str("ruleName", finding.Rule).
		Str("value", CleanText(finding.Text)).
		Str("region", finding.Source.Region).
		Str("group", finding.Source.Group).
		Str("stream", finding.Source.Stream)

	if !finding.Timestamp.IsZero() {
		event = event.Time("eventTime", finding.Timestamp.UTC().Truncate(time.Millisecond))
	}

	event.Msg("SECRET")
}

// CleanText makes logged text safe for terminals: one line, no escape sequences.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\r", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	return stripansi.Strip(text)
}
