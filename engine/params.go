package engine

import (
	"fmt"
	"sync/atomic"
)

// param is a range-validated float that can be read lock-free by audio
// goroutines while the controller updates it.
type param struct {
	val      atomic.Value
	min, max float64
}

func newParam(min, max, init float64) *param {
	p := &param{min: min, max: max}
	p.val.Store(init)
	return p
}

func (p *param) set(v float64) error {
	if v < p.min || v > p.max {
		return fmt.Errorf("value is not in valid range %v - %v: %v", p.min, p.max, v)
	}
	p.val.Store(v)
	return nil
}

func (p *param) get() float64 {
	return p.val.Load().(float64)
}
