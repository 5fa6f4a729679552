package engine

import (
	"time"

	"github.com/gordonklaus/portaudio"
)

// Sink is the output device boundary. Write emits one block of interleaved
// stereo samples and may block until the device accepts it — that
// backpressure is what paces the whole engine. The engine calls Write from
// exactly one goroutine; a sink never sees concurrent writes.
type Sink interface {
	Write(block []float32) error
	Close() error
}

// PortAudioSink plays blocks on the default output device using portaudio's
// blocking write API.
type PortAudioSink struct {
	stream *portaudio.Stream
	buf    []float32
}

func NewPortAudioSink() (*PortAudioSink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	s := &PortAudioSink{buf: make([]float32, blockSize*numChannels)}
	stream, err := portaudio.OpenDefaultStream(0, numChannels, sampleRate, blockSize, &s.buf)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, err
	}
	s.stream = stream
	return s, nil
}

func (s *PortAudioSink) Write(block []float32) error {
	copy(s.buf, block)
	return s.stream.Write()
}

func (s *PortAudioSink) Close() error {
	err := s.stream.Close()
	portaudio.Terminate()
	return err
}

// NullSink discards audio but paces callers at the block rate, standing in
// for a real device in tests and -silent runs.
type NullSink struct {
	next time.Time
}

func NewNullSink() *NullSink { return &NullSink{} }

func (s *NullSink) Write(block []float32) error {
	if s.next.IsZero() {
		s.next = time.Now()
	}
	s.next = s.next.Add(samplesDuration(len(block) / numChannels))
	time.Sleep(time.Until(s.next))
	return nil
}

func (s *NullSink) Close() error { return nil }
