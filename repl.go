package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/mrdg/poly/cue"
)

func (e *env) eval(input string) error {
	command, err := cue.Parse(input)
	if err != nil {
		return err
	}
	name := string(command.Name)
	for _, cmd := range commands {
		if name != cmd.name {
			continue
		}
		if cmd.arity < 0 {
			arity := -cmd.arity
			if len(command.Args) < arity {
				return fmt.Errorf("%s: wrong number of arguments: need at least %v, got %v",
					cmd.name, arity, len(command.Args))
			}
		} else if len(command.Args) != cmd.arity {
			return fmt.Errorf("%s: wrong number of arguments: want %v, got %v",
				cmd.name, cmd.arity, len(command.Args))
		}
		if err := cmd.run(e, command.Args); err != nil {
			return fmt.Errorf("%s: %w", cmd.name, err)
		}
		return nil
	}
	return fmt.Errorf("unknown command: %s", name)
}

func repl(env *env) error {
	rl, err := readline.New("> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == io.EOF {
			return err
		}
		if err != nil {
			fmt.Println(err)
			continue
		}
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}
		if err := env.eval(line); err != nil {
			fmt.Println(err)
		}
		if err := env.eng.Err(); err != nil {
			fmt.Println(err)
		}
	}
}
