package engine

import (
	"math"
	"testing"
	"time"
)

func TestPeriodFor(t *testing.T) {
	if got := periodFor(120, 1, 1); got != 22050 {
		t.Errorf("periodFor(120, 1, 1) = %v, want 22050", got)
	}
	if got := periodFor(120, 2, 1); got != 11025 {
		t.Errorf("periodFor(120, 2, 1) = %v, want 11025", got)
	}
	if got := periodFor(120, 1, 2); got != 11025 {
		t.Errorf("periodFor(120, 1, 2) = %v, want 11025", got)
	}
	if got := periodFor(240, 1, 1); got != 11025 {
		t.Errorf("periodFor(240, 1, 1) = %v, want 11025", got)
	}
	// An extreme click rate floors at one sample instead of rounding to a
	// zero period.
	if got := periodFor(500, 1, 6_000_000); got != 1 {
		t.Errorf("periodFor(500, 1, 6000000) = %v, want 1", got)
	}
}

func TestPhaseAlignment(t *testing.T) {
	// Two layers with tempo ratios 3 and 4 count beats from the same origin.
	// Their beat offsets must coincide sample-exactly at the cycle boundary,
	// 3 slow beats = 4 fast beats in.
	p3 := periodFor(25, 3, 1)
	p4 := periodFor(25, 4, 1)
	if p3 != 35280 || p4 != 26460 {
		t.Fatalf("periods = %v, %v, want 35280, 26460", p3, p4)
	}

	offsets := make(map[uint64]bool)
	for i := 0; i <= 4; i++ {
		offsets[uint64(i*p3)] = true
	}
	var common []uint64
	for j := 0; j <= 5; j++ {
		if off := uint64(j * p4); offsets[off] {
			common = append(common, off)
		}
	}
	want := uint64(3 * p3)
	if len(common) != 2 || common[0] != 0 || common[1] != want {
		t.Errorf("common offsets = %v, want [0 %v]", common, want)
	}
}

func TestClockDeadlineAndPosition(t *testing.T) {
	start := time.Now()
	c := newBeatClock(start, newParam(minTempo, maxTempo, 120))

	if got, want := c.deadline(sampleRate), start.Add(time.Second); got.Sub(want) > time.Microsecond || want.Sub(got) > time.Microsecond {
		t.Errorf("deadline(sampleRate) = %v, want %v", got, want)
	}
	if got := c.position(start.Add(time.Second)); math.Abs(float64(got)-sampleRate) > 1 {
		t.Errorf("position(start+1s) = %v, want %v", got, sampleRate)
	}
	if got := c.position(start.Add(-time.Second)); got != 0 {
		t.Errorf("position before origin = %v, want 0", got)
	}
}

func TestNextBoundary(t *testing.T) {
	tests := []struct {
		pos, period, anchor, want uint64
	}{
		{0, 10, 0, 10},
		{9, 10, 0, 10},
		{10, 10, 0, 20},
		{5, 10, 7, 7},
		{25, 10, 7, 27},
	}
	for _, test := range tests {
		if got := nextBoundary(test.pos, test.period, test.anchor); got != test.want {
			t.Errorf("nextBoundary(%v, %v, %v) = %v, want %v",
				test.pos, test.period, test.anchor, got, test.want)
		}
	}
}

func TestRetuneAnchorsGrid(t *testing.T) {
	tempo := newParam(minTempo, maxTempo, 240)
	c := newBeatClock(time.Now().Add(-time.Second), tempo)

	if period, anchor := c.gridFor(1, 1); period != 11025 || anchor != 0 {
		t.Fatalf("initial grid = %v at %v, want 11025 at 0", period, anchor)
	}

	if err := c.retune(300); err != nil {
		t.Fatal(err)
	}
	period, anchor := c.gridFor(1, 1)
	if period != 8820 {
		t.Errorf("period after retune = %v, want 8820", period)
	}
	// The grid is re-anchored at the stream position of the change, one
	// second in.
	if anchor < 40000 || anchor > 50000 {
		t.Errorf("anchor after retune = %v, want around %v", anchor, sampleRate)
	}
	if got := tempo.get(); got != 300 {
		t.Errorf("tempo after retune = %v, want 300", got)
	}

	if err := c.retune(5000); err == nil {
		t.Error("expected an error for an out of range tempo")
	}
}

func TestPatternCycleAlignment(t *testing.T) {
	// Cycles of 3 and 4 beats repeat their combined accent pattern every 12
	// beats and not sooner.
	a := Pattern{Beats: 3, Subdiv: 1, Accents: DefaultAccents(3, 1)}
	b := Pattern{Beats: 4, Subdiv: 1, Accents: DefaultAccents(4, 1)}

	pair := func(i int) [2]float64 {
		return [2]float64{
			a.accent(i % a.clicksPerCycle()),
			b.accent(i % b.clicksPerCycle()),
		}
	}
	for i := 0; i < 24; i++ {
		if pair(i) != pair(i+12) {
			t.Fatalf("combined pattern does not repeat at 12: beat %v", i)
		}
	}
	for d := 1; d < 12; d++ {
		same := true
		for i := 0; i < 12; i++ {
			if pair(i) != pair(i+d) {
				same = false
				break
			}
		}
		if same {
			t.Fatalf("combined pattern repeats early, period %v", d)
		}
	}
}

func TestDefaultAccents(t *testing.T) {
	got := DefaultAccents(2, 2)
	want := []float64{1.0, 0.4, 0.7, 0.4}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("accent %d = %v, want %v", i, got[i], want[i])
		}
	}
}
