package cue

import "fmt"

// Click weights produced by Weights. Accented clicks play at full gain, a
// plain beat start sits above the subdivision clicks between beats.
const (
	AccentWeight = 1.0
	BeatWeight   = 0.7
	ClickWeight  = 0.4
)

type accentItem struct {
	level   int
	matcher matcher
}

type matcher interface {
	match(i int) bool
}

type rangeMatch struct {
	start, end int
}

func (r rangeMatch) match(i int) bool {
	return (i >= r.start || r.start == -1) && (i <= r.end || r.end == -1)
}

var matchAll = rangeMatch{-1, -1}

type listMatch []int

func (l listMatch) match(i int) bool {
	for _, k := range l {
		if k == i {
			return true
		}
	}
	return false
}

// Weights evaluates an accent expression over one cycle, returning a gain
// weight per click. Level 0 selectors pick beats (1-based), an optional
// level 1 selector picks subdivision clicks within the selected beats;
// without one, only the first click of each selected beat is accented.
func Weights(expr AccentExpr, beats, subdiv int) ([]float64, error) {
	if beats < 1 || subdiv < 1 {
		return nil, fmt.Errorf("invalid cycle: %d beats, %d subdivisions", beats, subdiv)
	}

	var beatSel, clickSel matcher
	for _, item := range expr.items {
		switch item.level {
		case 0:
			beatSel = item.matcher
		case 1:
			clickSel = item.matcher
		default:
			return nil, fmt.Errorf("accent expression nests deeper than subdivisions")
		}
	}
	if beatSel == nil {
		beatSel = matchAll
	}

	weights := make([]float64, beats*subdiv)
	for i := range weights {
		if i%subdiv == 0 {
			weights[i] = BeatWeight
		} else {
			weights[i] = ClickWeight
		}
	}
	for b := 0; b < beats; b++ {
		if !beatSel.match(b + 1) {
			continue
		}
		for c := 0; c < subdiv; c++ {
			if clickSel == nil {
				if c == 0 {
					weights[b*subdiv] = AccentWeight
				}
			} else if clickSel.match(c + 1) {
				weights[b*subdiv+c] = AccentWeight
			}
		}
	}
	return weights, nil
}
