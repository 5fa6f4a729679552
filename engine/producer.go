package engine

import (
	"log"
	"time"
)

// producerLead is how far ahead of real time a producer keeps its ring.
// Scheduling hiccups shorter than this never reach the output.
const producerLead = 150 * time.Millisecond

// produce renders one beat per iteration into the layer's ring until the
// layer is stopped. Beat offsets always sit on the clock's anchored grid,
// never at "now plus a period", so scheduler jitter cannot drift this layer
// against the others.
func (l *Layer) produce(clock *beatClock) {
	defer close(l.done)

	var (
		beat       int
		offset     uint64
		buf        []float64
		failLogged bool
		dropLogged bool
	)

	if !l.armed.Load() {
		// Joined mid-session: start on the next beat boundary far enough
		// out that the beat is buffered before it is due, keeping the new
		// layer phase-correct against the ones already playing.
		period, anchor := clock.gridFor(l.ratio, l.pattern.Subdiv)
		pos := clock.position(time.Now().Add(producerLead))
		offset = nextBoundary(pos, uint64(period), anchor)
		beat = int((offset - anchor) / uint64(period))
		l.startAt.Store(offset)
		l.armed.Store(true)
	}

	for {
		select {
		case <-l.stop:
			return
		default:
		}

		period, anchor := clock.gridFor(l.ratio, l.pattern.Subdiv)
		// Snap onto the current grid. A no-op in steady state; after a
		// tempo change it moves the next beat onto the re-anchored grid
		// every layer shares.
		if offset > anchor && (offset-anchor)%uint64(period) != 0 {
			offset = nextBoundary(offset, uint64(period), anchor)
		}

		if cap(buf) < period {
			buf = make([]float64, period)
		}
		buf = buf[:period]

		if err := renderBeat(l.source, buf); err != nil {
			// A bad beat degrades to silence; it must never kill the
			// producer or starve the ring.
			zero(buf)
			l.failed.Store(true)
			if !failLogged {
				log.Printf("layer %d: beat %d: %v", l.id, beat, err)
				failLogged = true
			}
		} else {
			accent := l.pattern.accent(beat % l.pattern.clicksPerCycle())
			for i := range buf {
				buf[i] *= accent
			}
		}

		if !l.feed(buf) {
			return
		}
		if !dropLogged {
			if n := l.ring.Overflows(); n > 0 {
				log.Printf("layer %d: ring full, dropped %d samples", l.id, n)
				dropLogged = true
			}
		}

		beat++
		offset += uint64(period)

		// Sleep until the next beat needs to be in the ring. The deadline
		// is derived from the origin each time around, so a late wakeup
		// never accumulates.
		deadline := clock.deadline(offset).Add(-producerLead)
		select {
		case <-l.stop:
			return
		case <-time.After(time.Until(deadline)):
		}
	}
}

// nextBoundary is the first grid offset strictly after pos.
func nextBoundary(pos, period, anchor uint64) uint64 {
	if pos < anchor {
		return anchor
	}
	return anchor + (pos-anchor)/period*period + period
}

// feed pushes buf into the ring without dropping samples. A beat larger than
// the free space is fed in pieces, pacing on the consumer's known drain rate
// rather than on any lock. Returns false if the layer was stopped while
// feeding.
func (l *Layer) feed(buf []float64) bool {
	for len(buf) > 0 {
		if free := l.ring.WriteAvailable(); free > 0 {
			n := free
			if n > len(buf) {
				n = len(buf)
			}
			l.ring.Push(buf[:n])
			buf = buf[n:]
			if !l.primedDone {
				l.primedDone = true
				close(l.primed)
			}
			continue
		}
		select {
		case <-l.stop:
			return false
		case <-time.After(samplesDuration(blockSize)):
		}
	}
	return true
}
