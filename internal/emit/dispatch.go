package emit

import (
	"github.com/netflowd/netflowd/internal/flowstore"
	"github.com/netflowd/netflowd/internal/logger"
)

// Sink is anything that can consume an evicted summary as a side effect.
// The Dispatcher logs a Sink's errors rather than passing them on — per the
// emitter contract, the core releases the summary the instant Emit returns,
// successfully or not.
type Sink interface {
	Emit(*flowstore.Summary) error
}

// Dispatcher fans one evicted summary out to every configured Sink,
// running each synchronously in registration order. It satisfies the
// flowstore.Janitor's `func(*Summary)` emit signature via its Emit method.
type Dispatcher struct {
	sinks []Sink
	log   *logger.Logger
}

// NewDispatcher builds a Dispatcher over sinks, logging failures with log
// (which may be nil to discard them).
func NewDispatcher(log *logger.Logger, sinks ...Sink) *Dispatcher {
	return &Dispatcher{sinks: sinks, log: log}
}

// Emit hands s to every sink in turn.
func (d *Dispatcher) Emit(s *flowstore.Summary) {
	for _, sink := range d.sinks {
		if err := sink.Emit(s); err != nil && d.log != nil {
			d.log.Warn("emit sink failed", "error", err)
		}
	}
}
