package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrdg/poly/engine"
)

func main() {
	var (
		bpm    = flag.Float64("bpm", 120, "initial master tempo in beats per minute")
		silent = flag.Bool("silent", false, "discard audio output instead of opening a device")
		run    = flag.String("run", "", "command script to run at startup")
		sounds = flag.String("sounds", "sounds/*.wav", "glob of wav files addressable by name in add commands")
	)
	flag.Parse()

	var (
		snk engine.Sink
		err error
	)
	if *silent {
		snk = engine.NewNullSink()
	} else {
		snk, err = engine.NewPortAudioSink()
		if err != nil {
			log.Fatal(err)
		}
	}

	env := &env{
		eng:   engine.New(snk),
		tempo: *bpm,
		out:   os.Stdout,
	}
	if env.sounds, err = loadSounds(*sounds); err != nil {
		log.Fatal(err)
	}

	if *run != "" {
		f, err := os.Open(*run)
		if err != nil {
			log.Fatal(err)
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if err := env.eval(line); err != nil {
				log.Fatal(err)
			}
		}
		if err := scanner.Err(); err != nil {
			log.Fatal(err)
		}
		f.Close()
	}

	err = repl(env)
	env.eng.Stop()
	snk.Close()
	if err != nil && err != io.EOF {
		fmt.Println(err)
		os.Exit(1)
	}
}

// loadSounds builds the name registry for the sample and clip commands: every
// file matching the glob becomes addressable by its base name without the
// extension.
func loadSounds(glob string) (map[string]string, error) {
	files, err := filepath.Glob(glob)
	if err != nil {
		return nil, err
	}
	sounds := make(map[string]string, len(files))
	for _, f := range files {
		name := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		sounds[name] = f
	}
	return sounds, nil
}
