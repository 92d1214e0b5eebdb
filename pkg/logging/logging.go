package logging

import (
	"sync"

	"atomicgo.dev/keyboard"
	"atomicgo.dev/keyboard/keys"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func SetLogLevel(verbose bool) {
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Debug().Msg("Verbose log output enabled")
	}
}

type ShortcutStatusFN func() *zerolog.Event

var (
	hookMutex     sync.RWMutex
	statusHook    ShortcutStatusFN
	interruptHook func()
)

// RegisterStatusHook allows commands to register a custom status function
func RegisterStatusHook(hook ShortcutStatusFN) {
	hookMutex.Lock()
	defer hookMutex.Unlock()
	statusHook = hook
}

// GetStatusHook returns the registered status hook or a default one
func GetStatusHook() ShortcutStatusFN {
	hookMutex.RLock()
	defer hookMutex.RUnlock()
	if statusHook != nil {
		return statusHook
	}
	return defaultStatusHook
}

// RegisterInterruptHook registers the function called on Ctrl+C or Escape.
// The keyboard listener puts the terminal into raw mode, so no SIGINT is delivered then.
func RegisterInterruptHook(hook func()) {
	hookMutex.Lock()
	defer hookMutex.Unlock()
	interruptHook = hook
}

func interrupt() {
	hookMutex.RLock()
	hook := interruptHook
	hookMutex.RUnlock()
	if hook != nil {
		hook()
	}
}

func defaultStatusHook() *zerolog.Event {
	return log.Info().Str("status", "nothing to show")
}

var shortcutLevels = map[string]zerolog.Level{
	"t": zerolog.TraceLevel,
	"d": zerolog.DebugLevel,
	"i": zerolog.InfoLevel,
	"w": zerolog.WarnLevel,
	"e": zerolog.ErrorLevel,
}

// HandleShortcut applies a single key press. It returns true when listening should stop.
func HandleShortcut(key keys.Key) bool {
	switch key.Code {
	case keys.CtrlC, keys.Escape:
		log.Info().Msg("Interrupt requested, finishing in-flight work")
		interrupt()
		return true
	case keys.RuneKey:
		if level, ok := shortcutLevels[key.String()]; ok {
			zerolog.SetGlobalLevel(level)
			log.Info().Str("logLevel", level.String()).Msg("New Log level")
		}

		if key.String() == "s" {
			GetStatusHook()().Msg("Status")
		}
	}
	return false
}

func ShortcutListeners(status ShortcutStatusFN) {
	if status != nil {
		RegisterStatusHook(status)
	}

	err := keyboard.Listen(func(key keys.Key) (stop bool, err error) {
		return HandleShortcut(key), nil
	})

	if err != nil {
		log.Error().Err(err).Msg("Failed hooking keyboard bindings")
	}
}
