package engine

// mixInput is one layer's contribution to a block: its samples as popped
// from the ring plus the control state sampled for this block.
type mixInput struct {
	gain    float64
	muted   bool
	samples []float64
}

// mixInto sums each input scaled by its gain into dst and soft clips the
// result. Muted inputs are excluded from the sum entirely rather than
// zero-gained; their rings have already been drained by the caller, so a
// muted layer neither colors the mix nor backs up its buffer.
func mixInto(dst []float64, inputs []mixInput) {
	for i := range dst {
		dst[i] = 0
	}
	for _, in := range inputs {
		if in.muted {
			continue
		}
		for i, s := range in.samples {
			dst[i] += s * in.gain
		}
	}
	for i, s := range dst {
		dst[i] = softClip(s)
	}
}
