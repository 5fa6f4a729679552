package engine

import "sync/atomic"

// Ring is a lock-free single-producer single-consumer ring buffer of audio
// samples. The write cursor is owned by the producing goroutine and the read
// cursor by the consuming goroutine; both increase monotonically and are
// reduced to buffer positions with a power-of-two mask. A second writer or a
// second reader violates the contract and is not guarded against.
type Ring struct {
	write atomic.Uint64
	read  atomic.Uint64

	overflows atomic.Uint64
	underruns atomic.Uint64

	buf  []float64
	mask uint64
}

func NewRing(capacity int) *Ring {
	if capacity <= 0 || capacity&(capacity-1) != 0 {
		panic("ring capacity must be a power of 2")
	}
	return &Ring{
		buf:  make([]float64, capacity),
		mask: uint64(capacity - 1),
	}
}

// Push copies as much of src into the ring as fits and returns the number of
// samples written. It never blocks: when the ring is full the newest samples
// are dropped and counted as overflow. Dropping is deliberate — a producer on
// a beat schedule must not be stalled by a slow consumer, and late audio is
// worth less than on-time audio.
func (r *Ring) Push(src []float64) int {
	w := r.write.Load()
	rd := r.read.Load()

	free := uint64(len(r.buf)) - (w - rd)
	n := uint64(len(src))
	if n > free {
		r.overflows.Add(n - free)
		n = free
	}
	if n == 0 {
		return 0
	}

	pos := w & r.mask
	first := uint64(len(r.buf)) - pos
	if first >= n {
		copy(r.buf[pos:pos+n], src[:n])
	} else {
		copy(r.buf[pos:], src[:first])
		copy(r.buf[:n-first], src[first:n])
	}
	r.write.Store(w + n)
	return int(n)
}

// PopInto fills dst from the ring. When fewer samples are buffered than
// requested the remainder of dst is zeroed and counted as underrun, so the
// caller always gets a full block without waiting.
func (r *Ring) PopInto(dst []float64) {
	rd := r.read.Load()
	w := r.write.Load()

	avail := w - rd
	n := uint64(len(dst))
	if n > avail {
		r.underruns.Add(n - avail)
		for i := avail; i < n; i++ {
			dst[i] = 0
		}
		n = avail
	}
	if n == 0 {
		return
	}

	pos := rd & r.mask
	first := uint64(len(r.buf)) - pos
	if first >= n {
		copy(dst[:n], r.buf[pos:pos+n])
	} else {
		copy(dst[:first], r.buf[pos:])
		copy(dst[first:n], r.buf[:n-first])
	}
	r.read.Store(rd + n)
}

func (r *Ring) ReadAvailable() int  { return int(r.write.Load() - r.read.Load()) }
func (r *Ring) WriteAvailable() int { return len(r.buf) - r.ReadAvailable() }

// Overflows and Underruns report dropped and zero-filled sample counts for
// diagnostics. They are not consulted on the audio path.
func (r *Ring) Overflows() uint64 { return r.overflows.Load() }
func (r *Ring) Underruns() uint64 { return r.underruns.Load() }

// reset discards any buffered samples. Only safe to call while neither the
// producer nor the consumer goroutine is running.
func (r *Ring) reset() {
	r.read.Store(r.write.Load())
}
