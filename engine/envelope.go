package engine

type envelopeState int

const (
	envIdle envelopeState = iota
	envAttack
	envDecay
)

// envelope is a simple attack/decay gain ramp used to shape synthesized
// clicks, so tone bursts start and end without a discontinuity.
type envelope struct {
	attack float64 // seconds
	decay  float64 // seconds

	attackRate float64
	decayRate  float64

	val   float64
	state envelopeState
}

func (e *envelope) start(sampleRate float64) {
	e.val = 0
	e.state = envAttack
	e.attackRate = 1.0 / (e.attack * sampleRate)
	e.decayRate = 1.0 / (e.decay * sampleRate)
}

func (e *envelope) value() float64 {
	switch e.state {
	case envIdle:
		return 0
	case envAttack:
		e.val += e.attackRate
		if e.val >= 1 {
			e.val = 1
			e.state = envDecay
		}
	case envDecay:
		e.val -= e.decayRate
		if e.val <= 0 {
			e.val = 0
			e.state = envIdle
		}
	}
	return e.val
}

func (e *envelope) idle() bool { return e.state == envIdle }
