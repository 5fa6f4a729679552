package engine

import "log"

// fadeBlocks is how many blocks the render goroutine keeps draining after a
// stop, ramping the level to zero so playback doesn't end on a click.
const fadeBlocks = 4

// render is the single goroutine permitted to call the sink's write
// primitive. Each iteration it snapshots the layer registry, pulls one block
// from every layer's ring — muted or not — mixes, and writes. It never takes
// a lock and never waits on a producer: an empty ring zero-fills.
func (e *Engine) render(snk Sink) {
	defer close(e.renderDone)

	var (
		mix    = make([]float64, blockSize)
		out    = make([]float32, blockSize*numChannels)
		inputs = make([]mixInput, 0, 8)
	)

	for {
		select {
		case <-e.renderStop:
			e.fadeOut(snk, mix, out, inputs)
			return
		default:
		}

		inputs = e.pullBlock(inputs[:0], true)
		mixInto(mix, inputs)
		interleave(out, mix)

		if err := snk.Write(out); err != nil {
			// A dead device is fatal to the session: report it and shut
			// the engine down from the outside, since this goroutine
			// cannot join itself.
			e.sinkErr.Store(&SinkError{Err: err})
			go e.Stop()
			return
		}
		e.pos += blockSize
	}
}

// pullBlock drains one block from every registered layer and samples its
// control state. The registry is an immutable snapshot swapped by the
// controller, so adding or removing layers never blocks this path. With
// logging set, the first underrun of a layer is reported once; the fade-out
// drain passes false since empty rings are expected after a stop.
func (e *Engine) pullBlock(inputs []mixInput, logging bool) []mixInput {
	layers := e.layers.Load().([]*Layer)
	for _, l := range layers {
		block := l.scratch
		zero(block)
		if l.armed.Load() {
			start := l.startAt.Load()
			switch {
			case e.pos >= start:
				l.ring.PopInto(block)
			case e.pos+blockSize > start:
				// The layer's first beat lands inside this block.
				l.ring.PopInto(block[start-e.pos:])
			}
			if logging && !l.underrunLogged {
				if n := l.ring.Underruns(); n > 0 {
					log.Printf("layer %d: ring empty, substituted %d samples of silence", l.id, n)
					l.underrunLogged = true
				}
			}
		}
		inputs = append(inputs, mixInput{
			gain:    l.gain.get(),
			muted:   l.muted.Load(),
			samples: block,
		})
	}
	return inputs
}

// fadeOut drains a few more blocks with a linear ramp to zero. Write errors
// are ignored; the session is over either way.
func (e *Engine) fadeOut(snk Sink, mix []float64, out []float32, inputs []mixInput) {
	total := fadeBlocks * blockSize
	for n := 0; n < fadeBlocks; n++ {
		inputs = e.pullBlock(inputs[:0], false)
		mixInto(mix, inputs)
		for i := range mix {
			mix[i] *= 1.0 - float64(n*blockSize+i)/float64(total)
		}
		interleave(out, mix)
		if err := snk.Write(out); err != nil {
			return
		}
		e.pos += blockSize
	}
}

// interleave expands the mono mix into interleaved stereo device samples.
func interleave(out []float32, mix []float64) {
	for i, s := range mix {
		v := float32(s)
		out[i*2] = v
		out[i*2+1] = v
	}
}
