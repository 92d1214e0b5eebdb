package logging

import (
	"bytes"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// SecretType defines how a secret was detected.
type SecretType string

const (
	// SecretTypeLogEvent indicates a secret matched by a configured pattern in a log event.
	SecretTypeLogEvent SecretType = "log-event"
	// SecretTypeDetector indicates a secret found by a TruffleHog detector.
	SecretTypeDetector SecretType = "detector"
)

// HitLevel defines a custom log level for security finding hits.
// Implemented as WarnLevel but transformed to "hit" in output.
const HitLevel zerolog.Level = zerolog.WarnLevel

const hitMarker = "_hit"

var hitMarkerJSON = []byte(`"` + hitMarker + `":true`)

// HitLevelWriter wraps an io.Writer and rewrites the level of hit events to "hit".
// Hit events are recognized by their marker field, so concurrent writers cannot mix them up.
type HitLevelWriter struct {
	out io.Writer
	mu  sync.Mutex
}

func (w *HitLevelWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	out := w.out
	w.mu.Unlock()

	if bytes.Contains(p, hitMarkerJSON) && gjson.ValidBytes(p) && gjson.GetBytes(p, hitMarker).Bool() {
		rewritten, err := rewriteHit(p)
		if err == nil {
			if _, err := out.Write(rewritten); err != nil {
				return 0, err
			}
			return len(p), nil
		}
	}

	return out.Write(p)
}

func rewriteHit(p []byte) ([]byte, error) {
	level := gjson.GetBytes(p, zerolog.LevelFieldName).String()
	out := p
	var err error
	if level == "warn" || level == "error" {
		out, err = sjson.SetBytes(out, zerolog.LevelFieldName, "hit")
		if err != nil {
			return nil, err
		}
	}
	return sjson.DeleteBytes(out, hitMarker)
}

func (w *HitLevelWriter) SetOutput(out io.Writer) {
	w.mu.Lock()
	w.out = out
	w.mu.Unlock()
}

// NewHitLevelWriter creates a new HitLevelWriter wrapping the given io.Writer.
func NewHitLevelWriter(out io.Writer) *HitLevelWriter {
	return &HitLevelWriter{out: out}
}

// HitEvent wraps a zerolog.Event for hit-level logging with "level":"hit" output.
type HitEvent struct {
	event *zerolog.Event
}

func (h *HitEvent) Str(key, val string) *HitEvent {
	h.event.Str(key, val)
	return h
}

func (h *HitEvent) Int(key string, val int) *HitEvent {
	h.event.Int(key, val)
	return h
}

func (h *HitEvent) Bool(key string, val bool) *HitEvent {
	h.event.Bool(key, val)
	return h
}

func (h *HitEvent) Err(err error) *HitEvent {
	h.event.Err(err)
	return h
}

func (h *HitEvent) Time(key string, val time.Time) *HitEvent {
	h.event.Time(key, val)
	return h
}

func (h *HitEvent) Msg(msg string) {
	h.event.Bool(hitMarker, true).Msg(msg)
}

var (
	globalHitWriterMu sync.RWMutex
	globalHitWriter   *HitLevelWriter
)

func currentHitWriter() *HitLevelWriter {
	globalHitWriterMu.RLock()
	w := globalHitWriter
	globalHitWriterMu.RUnlock()
	if w != nil {
		return w
	}

	globalHitWriterMu.Lock()
	defer globalHitWriterMu.Unlock()
	if globalHitWriter == nil {
		globalHitWriter = &HitLevelWriter{out: os.Stderr}
		log.Logger = zerolog.New(globalHitWriter).With().Timestamp().Logger()
	}
	return globalHitWriter
}

// Hit creates a hit-level log event for security findings.
// Always emitted regardless of global log level.
// Example: logging.Hit().Str("ruleName", "AWS Key").Msg("SECRET")
func Hit() *HitEvent {
	currentHitWriter()
	return &HitEvent{event: log.WithLevel(zerolog.ErrorLevel)}
}

// ParseLevel extends zerolog's ParseLevel to support "hit" level.
func ParseLevel(levelStr string) (zerolog.Level, error) {
	if levelStr == "hit" {
		return HitLevel, nil
	}
	return zerolog.ParseLevel(levelStr)
}

// SetGlobalHitWriter sets the HitLevelWriter used by Hit.
func SetGlobalHitWriter(writer *HitLevelWriter) {
	globalHitWriterMu.Lock()
	globalHitWriter = writer
	globalHitWriterMu.Unlock()
}
