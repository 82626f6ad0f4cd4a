// Package strategy derives chart annotations from OHLC bar sequences.
//
// A Strategy is a pure function over an ordered bar slice: same input,
// same output, no I/O and no state carried between calls. The runner
// treats the implementation as replaceable; InsideBar is the example.
package strategy

import "signalgen/internal/model"

// Strategy maps an ordered bar sequence (oldest first) to the signal
// points and level lines to submit for the current cycle.
type Strategy interface {
	// Name is the human-readable strategy label reported in metadata.
	Name() string

	// Derive computes annotations from bars. Implementations must be
	// deterministic and must not mutate the input slice.
	Derive(bars []model.Bar) ([]model.SignalPoint, []model.Line)
}
