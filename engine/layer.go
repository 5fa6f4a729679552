package engine

import "sync/atomic"

// LayerID identifies one rhythmic voice for the lifetime of the engine.
type LayerID int

// Pattern describes a layer's cycle: how many beats it has, how many clicks
// each beat subdivides into, and the gain weight of every click. Accents
// repeat over the cycle, so len(Accents) is normally Beats*Subdiv.
type Pattern struct {
	Beats   int
	Subdiv  int
	Accents []float64
}

func (p Pattern) clicksPerCycle() int { return p.Beats * p.Subdiv }

func (p Pattern) accent(click int) float64 {
	if len(p.Accents) == 0 {
		return 1
	}
	return p.Accents[click%len(p.Accents)]
}

// DefaultAccents is the accent pattern used when a layer doesn't specify one:
// the downbeat loudest, beat starts louder than subdivision clicks.
func DefaultAccents(beats, subdiv int) []float64 {
	accents := make([]float64, beats*subdiv)
	for i := range accents {
		switch {
		case i == 0:
			accents[i] = 1.0
		case i%subdiv == 0:
			accents[i] = 0.7
		default:
			accents[i] = 0.4
		}
	}
	return accents
}

// LayerConfig is the plain data handed to AddLayer by the UI/config layer.
type LayerConfig struct {
	Source  Source
	Pattern Pattern
	// Ratio is the layer's tempo relative to the master tempo. Zero means 1.
	Ratio float64
	// Gain is the initial mix gain. Zero means 1.
	Gain float64
}

// Layer is one independently timed voice. Its producer goroutine owns the
// ring's write side; the render goroutine owns the read side and is the only
// reader of the control atomics below. Gain and mute are applied at mix time,
// never at generation time, so unmuting is instantaneous.
type Layer struct {
	id      LayerID
	source  Source
	pattern Pattern
	ratio   float64

	ring    *Ring
	scratch []float64 // render goroutine's pop buffer

	gain   *param
	muted  atomic.Bool
	failed atomic.Bool

	// underrunLogged is owned by the render goroutine; it keeps the first
	// underrun of a session from being reported more than once.
	underrunLogged bool

	// armed and startAt tell the render goroutine from which stream offset
	// this layer's ring carries audio. Layers present at start begin at 0;
	// layers added mid-session pick the next beat boundary.
	armed   atomic.Bool
	startAt atomic.Uint64

	// Per-session producer lifecycle, managed by the controller.
	stop       chan struct{}
	done       chan struct{}
	primed     chan struct{}
	primedDone bool
}

func newLayer(id LayerID, cfg LayerConfig, ringSize int) *Layer {
	return &Layer{
		id:      id,
		source:  cfg.Source,
		pattern: cfg.Pattern,
		ratio:   cfg.Ratio,
		ring:    NewRing(ringSize),
		scratch: make([]float64, blockSize),
		gain:    newParam(0, maxGain, cfg.Gain),
	}
}
