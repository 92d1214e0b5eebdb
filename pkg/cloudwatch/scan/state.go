package scan

import (
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// State is a stage of a scan run.
type State string

const (
	StateInit              State = "Init"
	StatePatternsLoaded    State = "PatternsLoaded"
	StateRegionsResolved   State = "RegionsResolved"
	StateSourcesEnumerated State = "SourcesEnumerated"
	StateEventsFetched     State = "EventsFetched"
	StateMatched           State = "Matched"
	StateReported          State = "Reported"
	StateAborted           State = "Aborted"
)

var stateOrder = map[State]int{
	StateInit:              0,
	StatePatternsLoaded:    1,
	StateRegionsResolved:   2,
	StateSourcesEnumerated: 3,
	StateEventsFetched:     4,
	StateMatched:           5,
	StateReported:          6,
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateReported || s == StateAborted
}

// stateMachine only moves forward one state at a time, or to Aborted from any non terminal state.
type stateMachine struct {
	current atomic.Value
	history []State
}

func newStateMachine() *stateMachine {
	m := &stateMachine{}
	m.current.Store(StateInit)
	m.history = []State{StateInit}
	return m
}

func (m *stateMachine) get() State {
	return m.current.Load().(State)
}

func (m *stateMachine) to(next State) {
	prev := m.get()
	if prev.Terminal() {
		log.Debug().Str("from", string(prev)).Str("to", string(next)).Msg("Ignoring transition out of terminal state")
		return
	}
	if next != StateAborted && stateOrder[next] != stateOrder[prev]+1 {
		log.Debug().Str("from", string(prev)).Str("to", string(next)).Msg("Ignoring out of order transition")
		return
	}

	m.current.Store(next)
	m.history = append(m.history, next)
	log.Debug().Str("from", string(prev)).Str("to", string(next)).Msg("Scan state changed")
}
