package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/mrdg/poly/cue"
	"github.com/mrdg/poly/engine"
)

type env struct {
	eng    *engine.Engine
	tempo  float64
	ids    []engine.LayerID // display order; layer a is ids[0] and so on
	infos  map[engine.LayerID]layerInfo
	sounds map[string]string // wav files registered by name via -sounds
	out    io.Writer
}

type layerInfo struct {
	name    string
	pattern engine.Pattern
}

type command struct {
	name  string
	run   func(*env, []cue.Node) error
	arity int // -n means len(args) must be >= n
}

var commands = []command{
	{"start", startCommand, 0},
	{"stop", stopCommand, 0},
	{"bpm", bpmCommand, 1},
	{"add", addCommand, -2},
	{"rm", removeCommand, 1},
	{"mute", muteCommand, 1},
	{"gain", gainCommand, 2},
	{"ls", listCommand, 0},
}

func startCommand(e *env, args []cue.Node) error {
	return e.eng.Start(e.tempo)
}

func stopCommand(e *env, args []cue.Node) error {
	return e.eng.Stop()
}

func bpmCommand(e *env, args []cue.Node) error {
	bpm, ok := number(args[0])
	if !ok {
		return errors.New("expected a number")
	}
	if err := e.eng.SetTempo(bpm); err != nil {
		return err
	}
	e.tempo = bpm
	return nil
}

func addCommand(e *env, args []cue.Node) error {
	kind, ok := args[0].(cue.Identifier)
	if !ok {
		return fmt.Errorf("expected a source kind, got %v", args[0])
	}

	var (
		src  engine.Source
		err  error
		rest = args[1:]
	)
	switch kind {
	case "tone":
		freq, ok := number(rest[0])
		if !ok {
			return errors.New("tone: expected a frequency")
		}
		src = engine.NewTone(freq)
		rest = rest[1:]
	case "sample":
		path, err := e.soundPath(rest[0])
		if err != nil {
			return err
		}
		if src, err = engine.NewSample(path); err != nil {
			return err
		}
		rest = rest[1:]
	case "clip":
		if len(rest) < 3 {
			return errors.New("clip: want path, offset and duration")
		}
		path, err := e.soundPath(rest[0])
		if err != nil {
			return err
		}
		offset, ok1 := number(rest[1])
		duration, ok2 := number(rest[2])
		if !ok1 || !ok2 {
			return errors.New("clip: offset and duration must be numbers")
		}
		src = engine.NewClip(path, offset, duration)
		rest = rest[3:]
	default:
		return fmt.Errorf("unknown source kind: %s", kind)
	}

	beats, subdiv := 0, 0
	var ratio float64
	var expr *cue.AccentExpr
	for _, arg := range rest {
		switch v := arg.(type) {
		case cue.Int:
			switch {
			case beats == 0:
				beats = int(v)
			case subdiv == 0:
				subdiv = int(v)
			default:
				return fmt.Errorf("unexpected argument: %v", v)
			}
		case cue.Ratio:
			ratio = float64(v.Num) / float64(v.Den)
		case cue.AccentExpr:
			expr = &v
		default:
			return fmt.Errorf("unexpected argument: %v", arg)
		}
	}
	if beats == 0 {
		beats = 4
	}
	if subdiv == 0 {
		subdiv = 1
	}

	cfg := engine.LayerConfig{
		Source:  src,
		Ratio:   ratio,
		Pattern: engine.Pattern{Beats: beats, Subdiv: subdiv},
	}
	if expr != nil {
		weights, err := cue.Weights(*expr, beats, subdiv)
		if err != nil {
			return err
		}
		cfg.Pattern.Accents = weights
	} else {
		cfg.Pattern.Accents = engine.DefaultAccents(beats, subdiv)
	}

	id, err := e.eng.AddLayer(cfg)
	if err != nil {
		return err
	}
	if e.infos == nil {
		e.infos = make(map[engine.LayerID]layerInfo)
	}
	e.ids = append(e.ids, id)
	e.infos[id] = layerInfo{name: src.String(), pattern: cfg.Pattern}
	fmt.Fprintf(e.out, "added %s as %c\n", src, 'a'+len(e.ids)-1)
	return nil
}

func removeCommand(e *env, args []cue.Node) error {
	id, idx, err := e.layerID(args[0])
	if err != nil {
		return err
	}
	if err := e.eng.RemoveLayer(id); err != nil {
		return err
	}
	e.ids = append(e.ids[:idx], e.ids[idx+1:]...)
	delete(e.infos, id)
	return nil
}

func muteCommand(e *env, args []cue.Node) error {
	id, _, err := e.layerID(args[0])
	if err != nil {
		return err
	}
	muted, err := e.eng.Muted(id)
	if err != nil {
		return err
	}
	return e.eng.SetMute(id, !muted)
}

func gainCommand(e *env, args []cue.Node) error {
	id, _, err := e.layerID(args[0])
	if err != nil {
		return err
	}
	gain, ok := number(args[1])
	if !ok {
		return errors.New("expected a number")
	}
	return e.eng.SetGain(id, gain)
}

func listCommand(e *env, args []cue.Node) error {
	renderStatus(e, e.out)
	return nil
}

// soundPath resolves a sound argument: a quoted path is used as is, a bare
// identifier is looked up in the registry built from the -sounds glob.
func (e *env) soundPath(arg cue.Node) (string, error) {
	switch v := arg.(type) {
	case cue.String:
		return string(v), nil
	case cue.Identifier:
		if path, ok := e.sounds[string(v)]; ok {
			return path, nil
		}
		return "", fmt.Errorf("unknown sound: %s", v)
	}
	return "", fmt.Errorf("expected a sound name or quoted path, got %v", arg)
}

func (e *env) layerID(arg cue.Node) (engine.LayerID, int, error) {
	s, ok := arg.(cue.Identifier)
	if !ok || len(s) != 1 {
		return 0, 0, fmt.Errorf("not a layer id: %v", arg)
	}
	idx := int(s[0]) - 'a'
	if idx < 0 || idx >= len(e.ids) {
		return 0, 0, fmt.Errorf("not a layer id: %s", s)
	}
	return e.ids[idx], idx, nil
}

func number(arg cue.Node) (float64, bool) {
	switch v := arg.(type) {
	case cue.Int:
		return float64(v), true
	case cue.Float:
		return float64(v), true
	}
	return 0, false
}
