package scanner

import (
	"context"

	"github.com/rs/zerolog"
)

// BaseScanner defines the minimal interface a log source scanner implements.
type BaseScanner[R any] interface {
	// Scan runs a full scan until done or ctx is cancelled.
	Scan(ctx context.Context) (R, error)
}

// ScannerWithStatus extends BaseScanner with progress reporting for the status shortcut.
type ScannerWithStatus[R any] interface {
	BaseScanner[R]

	// GetStatus returns a log event describing the current scan state.
	GetStatus() *zerolog.Event
}
