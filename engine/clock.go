package engine

import (
	"math"
	"sync/atomic"
	"time"
)

// origin marks the instant a playback session started. Every layer computes
// its beat positions as sample offsets from it, which is the only coupling
// between producer goroutines: polyrhythmic alignment falls out of all of
// them counting from the same zero. It is replaced wholesale on every start.
type origin struct {
	start time.Time
}

// beatClock converts between beat indexes, sample offsets and wall time for
// one playback session.
type beatClock struct {
	origin origin
	tempo  *param

	// grid holds a gridAnchor, replaced wholesale on every tempo change so
	// producers read the tempo and its anchor as one consistent pair.
	grid atomic.Value
}

// gridAnchor pins the beat grid: the stream offset at which the current
// tempo took effect. Producers count beat boundaries from the anchor, so a
// layer joining after a tempo change lands on the same grid as the layers
// already playing.
type gridAnchor struct {
	bpm    float64
	offset uint64
}

func newBeatClock(start time.Time, tempo *param) *beatClock {
	c := &beatClock{origin: origin{start: start}, tempo: tempo}
	c.grid.Store(gridAnchor{bpm: tempo.get()})
	return c
}

// retune validates and applies a new master tempo, re-anchoring the beat
// grid at the stream position where the change happened. Beats already
// generated keep their timing; beats not yet generated land on the new grid.
func (c *beatClock) retune(bpm float64) error {
	if err := c.tempo.set(bpm); err != nil {
		return err
	}
	c.grid.Store(gridAnchor{bpm: bpm, offset: c.position(time.Now())})
	return nil
}

// gridFor returns the current click period for a layer and the stream offset
// anchoring the beat grid, read atomically as one pair.
func (c *beatClock) gridFor(ratio float64, subdiv int) (int, uint64) {
	g := c.grid.Load().(gridAnchor)
	return periodFor(g.bpm, ratio, subdiv), g.offset
}

// periodFor is the length of one click in samples for a layer with the given
// tempo ratio and subdivision count, floored at one sample so an extreme
// click rate can never produce a zero period.
func periodFor(bpm, ratio float64, subdiv int) int {
	p := int(math.Round(sampleRate * 60.0 / (bpm * ratio * float64(subdiv))))
	if p < 1 {
		p = 1
	}
	return p
}

// deadline is the wall time at which the sample at offset is due at the
// output.
func (c *beatClock) deadline(offset uint64) time.Time {
	return c.origin.start.Add(samplesDuration(int(offset)))
}

// position is the sample offset the output should have reached at time t.
func (c *beatClock) position(t time.Time) uint64 {
	d := t.Sub(c.origin.start)
	if d < 0 {
		return 0
	}
	return uint64(d.Seconds() * sampleRate)
}

func samplesDuration(n int) time.Duration {
	return time.Duration(float64(n) / sampleRate * float64(time.Second))
}
