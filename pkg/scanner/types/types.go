package types

import (
	"regexp"
	"time"
)

// DefaultLookback is the look-back of a scan window when none is configured.
const DefaultLookback = time.Hour

// PatternFile is the on-disk layout of a pattern file.
type PatternFile struct {
	Patterns []PatternRecord `json:"patterns" yaml:"patterns"`
}

// PatternRecord is a single rule as written in the pattern file.
type PatternRecord struct {
	Name        string `json:"name" yaml:"name" validate:"required"`
	Description string `json:"description" yaml:"description" validate:"required"`
	Regex       string `json:"regexx" yaml:"regexx" validate:"required"`
	Confidence  string `json:"confidence,omitempty" yaml:"confidence,omitempty"`
}

// Pattern is a compiled detection rule.
type Pattern struct {
	Name        string
	Description string
	Regex       string
	Confidence  string

	re *regexp.Regexp
}

// NewPattern compiles regex into a Pattern.
func NewPattern(name, description, regex, confidence string) (Pattern, error) {
	re, err := regexp.Compile(regex)
	if err != nil {
		return Pattern{}, err
	}
	return Pattern{Name: name, Description: description, Regex: regex, Confidence: confidence, re: re}, nil
}

// Regexp returns the compiled expression.
func (p Pattern) Regexp() *regexp.Regexp {
	return p.re
}

// PatternSet holds compiled patterns in declaration order.
type PatternSet struct {
	Patterns []Pattern
}

// Match is a single regex match of one pattern.
type Match struct {
	Pattern Pattern
	Text    string
	Start   int
	End     int
}

// MatchAll applies every pattern in declaration order and returns all
// non-overlapping leftmost matches of each pattern.
func (ps *PatternSet) MatchAll(text string) []Match {
	matches := []Match{}
	if ps == nil {
		return matches
	}
	for _, p := range ps.Patterns {
		if p.re == nil {
			continue
		}
		for _, idx := range p.re.FindAllStringIndex(text, -1) {
			matches = append(matches, Match{Pattern: p, Text: text[idx[0]:idx[1]], Start: idx[0], End: idx[1]})
		}
	}
	return matches
}

// Len returns the number of patterns.
func (ps *PatternSet) Len() int {
	if ps == nil {
		return 0
	}
	return len(ps.Patterns)
}

// Region identifies a service endpoint such as "eu-central-1".
type Region string

// LogSource is one scannable (region, log group, log stream) triple.
type LogSource struct {
	Region string `json:"region"`
	Group  string `json:"logGroup"`
	Stream string `json:"logStream"`
}

func (s LogSource) String() string {
	return s.Region + ":" + s.Group + "/" + s.Stream
}

// LogEvent is a single event fetched from a log source.
type LogEvent struct {
	Source    LogSource
	Timestamp time.Time
	Message   string
}

// Finding is one detected occurrence of a pattern in one log event.
type Finding struct {
	Source      LogSource `json:"source"`
	Rule        string    `json:"rule"`
	Description string    `json:"description"`
	Confidence  string    `json:"confidence"`
	Text        string    `json:"matchedText"`
	Timestamp   time.Time `json:"timestamp"`
}

// ScanWindow is the time range shared by all fetches of a scan.
type ScanWindow struct {
	Start time.Time
	End   time.Time
}

// NewScanWindow returns the window ending at end and reaching lookback into the past.
func NewScanWindow(end time.Time, lookback time.Duration) ScanWindow {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	return ScanWindow{Start: end.Add(-lookback), End: end}
}

// Contains reports whether t lies within the window, both bounds inclusive.
func (w ScanWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Duration returns the length of the window.
func (w ScanWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// DetectionResult is the outcome of a time-bounded detection run.
type DetectionResult struct {
	Findings []Finding
	Error    error
}
