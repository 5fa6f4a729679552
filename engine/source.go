package engine

import (
	"fmt"
	"io"
	"math"
	"os"

	wav "github.com/youpy/go-wav"
)

// Source supplies the audio for one beat of a layer. RenderBeat overwrites
// dst, which the producer sizes to the current beat period. It is called from
// the layer's producer goroutine only, one beat at a time, so implementations
// can keep unguarded state. A returned error marks the beat as failed; the
// producer substitutes silence and keeps going.
type Source interface {
	RenderBeat(dst []float64) error
	String() string
}

// renderBeat invokes a source's RenderBeat with a panic guard. Sources come
// from outside the engine; one that panics turns into a failed beat instead
// of taking down the producer goroutine and the process with it.
func renderBeat(src Source, dst []float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("source panic: %v", r)
		}
	}()
	return src.RenderBeat(dst)
}

const twoPi = 2 * math.Pi

// NewTone returns a source synthesizing a short sine burst at freq Hz with a
// fast attack and a natural decay, the classic metronome click.
func NewTone(freq float64) Source {
	return &toneSource{
		freq: freq,
		env:  envelope{attack: 0.002, decay: 0.06},
	}
}

type toneSource struct {
	freq float64
	env  envelope
}

func (t *toneSource) RenderBeat(dst []float64) error {
	t.env.start(sampleRate)
	delta := twoPi * t.freq / sampleRate
	phase := 0.0
	for i := range dst {
		if t.env.idle() && i > 0 {
			zero(dst[i:])
			return nil
		}
		dst[i] = math.Sin(phase) * t.env.value()
		phase += delta
	}
	return nil
}

func (t *toneSource) String() string {
	return fmt.Sprintf("tone %.0fHz", t.freq)
}

// NewSample loads a wav file and returns a source playing it from the start
// on every beat, truncated or zero-padded to the beat period.
func NewSample(path string) (Source, error) {
	buf, err := readWav(path)
	if err != nil {
		return nil, fmt.Errorf("load sample %s: %w", path, err)
	}
	return &sampleSource{buf: buf, file: path}, nil
}

type sampleSource struct {
	buf  []float64
	file string
}

func (s *sampleSource) RenderBeat(dst []float64) error {
	n := copy(dst, s.buf)
	zero(dst[n:])
	return nil
}

func (s *sampleSource) String() string { return s.file }

// NewClip returns a source playing a segment of a wav file, offset and
// duration given in seconds. The file is decoded on first use, so a missing
// or corrupt clip surfaces as a failed beat rather than a failed setup.
func NewClip(path string, offset, duration float64) Source {
	return &clipSource{file: path, offset: offset, duration: duration}
}

type clipSource struct {
	file     string
	offset   float64
	duration float64

	buf    []float64
	loaded bool
}

func (c *clipSource) RenderBeat(dst []float64) error {
	if !c.loaded {
		buf, err := readWav(c.file)
		if err != nil {
			return fmt.Errorf("decode clip %s: %w", c.file, err)
		}
		from := int(c.offset * sampleRate)
		if from > len(buf) {
			from = len(buf)
		}
		to := from + int(c.duration*sampleRate)
		if c.duration <= 0 || to > len(buf) {
			to = len(buf)
		}
		c.buf = buf[from:to]
		c.loaded = true
	}
	n := copy(dst, c.buf)
	zero(dst[n:])
	return nil
}

func (c *clipSource) String() string {
	return fmt.Sprintf("%s @%.2fs", c.file, c.offset)
}

func readWav(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := wav.NewReader(f)
	var buf []float64
	for {
		samples, err := r.ReadSamples()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		for _, sample := range samples {
			buf = append(buf, r.FloatValue(sample, 0))
		}
	}
	return buf, nil
}

func zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}
