// Package engine is a real-time multi-layer audio mixing engine for
// polyrhythmic click tracks. Each layer is an independently timed rhythmic
// voice produced by its own goroutine into a lock-free ring buffer; a single
// render goroutine drains all rings, mixes them with per-layer gain and soft
// clipping, and writes the result to the output sink. All cross-thread state
// is atomic: the mix path never takes a lock a producer could hold.
package engine

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const (
	sampleRate  = 44100
	numChannels = 2
	blockSize   = 256

	minTempo = 20.0
	maxTempo = 500.0
	maxGain  = 2.0

	minRingSize = 1 << 15
	maxRingSize = 1 << 18

	// primeTimeout bounds how long Start waits for a layer's first beat. A
	// source stalled at startup only shifts its own layer, not the session.
	primeTimeout = 250 * time.Millisecond
)

type engineState int

const (
	stateStopped engineState = iota
	stateStarting
	statePlaying
	stateStopping
)

// ErrAlreadyPlaying is returned by Start when the engine isn't stopped.
var ErrAlreadyPlaying = errors.New("engine: already playing")

// UnknownLayerError is returned by operations referencing a layer id that
// isn't registered.
type UnknownLayerError struct {
	ID LayerID
}

func (e *UnknownLayerError) Error() string {
	return fmt.Sprintf("engine: unknown layer %d", e.ID)
}

// SinkError reports a fatal output device failure. It ends the session: the
// render goroutine stops and the engine transitions to stopped.
type SinkError struct {
	Err error
}

func (e *SinkError) Error() string { return "engine: sink write: " + e.Err.Error() }
func (e *SinkError) Unwrap() error { return e.Err }

// Engine owns the layer registry and all thread lifecycles. Control calls
// mutate atomics and swap registry snapshots; they never touch the audio
// buffers directly.
type Engine struct {
	mu     sync.Mutex
	state  engineState
	sink   Sink
	tempo  *param
	clock  *beatClock
	nextID LayerID

	// layers holds an immutable []*Layer snapshot; the render goroutine
	// loads it once per block, the controller replaces it wholesale.
	layers atomic.Value

	sinkErr atomic.Pointer[SinkError]

	renderStop chan struct{}
	renderDone chan struct{}
	pos        uint64 // stream offset, owned by the render goroutine
}

// New creates a stopped engine writing to snk. The engine does not close the
// sink; the owner does, after the final Stop.
func New(snk Sink) *Engine {
	e := &Engine{
		sink:  snk,
		tempo: newParam(minTempo, maxTempo, 120),
	}
	e.layers.Store([]*Layer{})
	return e
}

// AddLayer registers a new layer. If the engine is playing, the layer's
// producer starts immediately, synchronized to the session origin so the new
// layer is phase-correct against the ones already sounding.
func (e *Engine) AddLayer(cfg LayerConfig) (LayerID, error) {
	if cfg.Source == nil {
		return 0, errors.New("engine: layer needs a source")
	}
	if cfg.Ratio < 0 {
		return 0, fmt.Errorf("engine: negative tempo ratio: %v", cfg.Ratio)
	}
	if cfg.Ratio == 0 {
		cfg.Ratio = 1
	}
	if cfg.Gain < 0 || cfg.Gain > maxGain {
		return 0, fmt.Errorf("engine: gain out of range: %v", cfg.Gain)
	}
	if cfg.Gain == 0 {
		cfg.Gain = 1
	}
	if cfg.Pattern.Beats < 0 || cfg.Pattern.Subdiv < 0 {
		return 0, fmt.Errorf("engine: invalid pattern: %+v", cfg.Pattern)
	}
	if cfg.Pattern.Beats == 0 {
		cfg.Pattern.Beats = 4
	}
	if cfg.Pattern.Subdiv == 0 {
		cfg.Pattern.Subdiv = 1
	}
	// The effective click rate must leave at least one sample per click at
	// the highest tempo the engine allows, or beat periods degenerate.
	if maxTempo*cfg.Ratio*float64(cfg.Pattern.Subdiv) > sampleRate*60 {
		return 0, fmt.Errorf("engine: clicks shorter than one sample: ratio %v, %+v", cfg.Ratio, cfg.Pattern)
	}
	if len(cfg.Pattern.Accents) == 0 {
		cfg.Pattern.Accents = DefaultAccents(cfg.Pattern.Beats, cfg.Pattern.Subdiv)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextID
	e.nextID++
	l := newLayer(id, cfg, e.ringSize(cfg.Ratio, cfg.Pattern.Subdiv))

	layers := e.layers.Load().([]*Layer)
	next := make([]*Layer, len(layers), len(layers)+1)
	copy(next, layers)
	e.layers.Store(append(next, l))

	if e.state == statePlaying {
		e.spawnProducer(l, false)
	}
	return id, nil
}

// RemoveLayer stops the layer's producer, removes it from the registry and
// joins the producer goroutine before returning.
func (e *Engine) RemoveLayer(id LayerID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	layers := e.layers.Load().([]*Layer)
	idx := -1
	for i, l := range layers {
		if l.id == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &UnknownLayerError{ID: id}
	}
	l := layers[idx]

	next := make([]*Layer, 0, len(layers)-1)
	next = append(next, layers[:idx]...)
	next = append(next, layers[idx+1:]...)
	e.layers.Store(next)

	if e.state == statePlaying {
		close(l.stop)
		<-l.done
	}
	return nil
}

// Start establishes a new timing origin, spawns one producer per registered
// layer and starts the render goroutine. It fails with ErrAlreadyPlaying
// unless the engine is stopped.
func (e *Engine) Start(bpm float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != stateStopped {
		return ErrAlreadyPlaying
	}
	if err := e.tempo.set(bpm); err != nil {
		return err
	}
	e.state = stateStarting
	e.sinkErr.Store(nil)
	e.clock = newBeatClock(time.Now(), e.tempo)
	e.pos = 0

	layers := e.layers.Load().([]*Layer)
	for _, l := range layers {
		l.ring.reset()
		l.failed.Store(false)
		e.spawnProducer(l, true)
	}
	// Let every producer land its first beat before the render goroutine
	// starts draining, so beat zero is sample-exact at offset zero.
	for _, l := range layers {
		select {
		case <-l.primed:
		case <-time.After(primeTimeout):
		}
	}

	e.renderStop = make(chan struct{})
	e.renderDone = make(chan struct{})
	go e.render(e.sink)
	e.state = statePlaying
	return nil
}

// Stop signals all producers and the render goroutine to terminate and joins
// them. It is idempotent and safe to call from any goroutine.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != statePlaying {
		return nil
	}
	e.state = stateStopping

	layers := e.layers.Load().([]*Layer)
	for _, l := range layers {
		close(l.stop)
	}
	for _, l := range layers {
		<-l.done
	}
	close(e.renderStop)
	<-e.renderDone
	e.state = stateStopped
	return nil
}

// SetTempo changes the master tempo. Beats already generated keep their
// timing; during playback the beat grid is re-anchored at the position of
// the change, so every layer's next beats — and any layer added later —
// land on the same new grid.
func (e *Engine) SetTempo(bpm float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == statePlaying {
		return e.clock.retune(bpm)
	}
	return e.tempo.set(bpm)
}

// Tempo returns the current master tempo.
func (e *Engine) Tempo() float64 { return e.tempo.get() }

// SetGain sets a layer's mix gain. Takes effect on the next rendered block.
func (e *Engine) SetGain(id LayerID, gain float64) error {
	l, err := e.layer(id)
	if err != nil {
		return err
	}
	return l.gain.set(gain)
}

// SetMute mutes or unmutes a layer at mix time. The layer keeps producing
// and its ring keeps draining, so unmuting is instantaneous.
func (e *Engine) SetMute(id LayerID, mute bool) error {
	l, err := e.layer(id)
	if err != nil {
		return err
	}
	l.muted.Store(mute)
	return nil
}

func (e *Engine) Gain(id LayerID) (float64, error) {
	l, err := e.layer(id)
	if err != nil {
		return 0, err
	}
	return l.gain.get(), nil
}

func (e *Engine) Muted(id LayerID) (bool, error) {
	l, err := e.layer(id)
	if err != nil {
		return false, err
	}
	return l.muted.Load(), nil
}

// Playing reports whether a session is active.
func (e *Engine) Playing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == statePlaying
}

// Err returns the sink error that ended the last session, if any.
func (e *Engine) Err() error {
	if err := e.sinkErr.Load(); err != nil {
		return err
	}
	return nil
}

// Diagnostics reports a layer's buffer health. Counters are updated without
// locks by the audio goroutines; reading them never perturbs playback.
type Diagnostics struct {
	Underruns uint64
	Overflows uint64
	Failed    bool
}

func (e *Engine) Diagnostics(id LayerID) (Diagnostics, error) {
	l, err := e.layer(id)
	if err != nil {
		return Diagnostics{}, err
	}
	return Diagnostics{
		Underruns: l.ring.Underruns(),
		Overflows: l.ring.Overflows(),
		Failed:    l.failed.Load(),
	}, nil
}

func (e *Engine) layer(id LayerID) (*Layer, error) {
	for _, l := range e.layers.Load().([]*Layer) {
		if l.id == id {
			return l, nil
		}
	}
	return nil, &UnknownLayerError{ID: id}
}

func (e *Engine) spawnProducer(l *Layer, armed bool) {
	l.stop = make(chan struct{})
	l.done = make(chan struct{})
	l.primed = make(chan struct{})
	l.primedDone = false
	l.underrunLogged = false
	l.startAt.Store(0)
	l.armed.Store(armed)
	go l.produce(e.clock)
}

// ringSize sizes a layer's ring to hold a few beats at the current tempo,
// within fixed bounds. The producer feeds oversized beats in pieces, so this
// only tunes how much lead a layer can buffer.
func (e *Engine) ringSize(ratio float64, subdiv int) int {
	want := 4 * periodFor(e.tempo.get(), ratio, subdiv)
	size := minRingSize
	for size < want && size < maxRingSize {
		size <<= 1
	}
	return size
}
