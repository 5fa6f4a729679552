package cue

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  Command
	}{
		{
			input: "stop",
			want:  Command{Name: "stop"},
		},
		{
			input: "gain a 0.5",
			want: Command{
				Name: "gain",
				Args: []Node{Identifier("a"), Float(0.5)},
			},
		},
		{
			input: "add tone 880 4 3:2",
			want: Command{
				Name: "add",
				Args: []Node{Identifier("tone"), Int(880), Int(4), Ratio{Num: 3, Den: 2}},
			},
		},
		{
			input: `add sample "kick.wav" 8`,
			want: Command{
				Name: "add",
				Args: []Node{Identifier("sample"), String("kick.wav"), Int(8)},
			},
		},
		{
			input: "add tone 880 '1,3",
			want: Command{
				Name: "add",
				Args: []Node{
					Identifier("tone"), Int(880),
					AccentExpr{items: []accentItem{
						{level: 0, matcher: listMatch{1, 3}},
					}},
				},
			},
		},
		{
			input: "add tone 880 '1:2",
			want: Command{
				Name: "add",
				Args: []Node{
					Identifier("tone"), Int(880),
					AccentExpr{items: []accentItem{
						{level: 0, matcher: rangeMatch{start: 1, end: 2}},
					}},
				},
			},
		},
		{
			input: "add tone 880 '*/2",
			want: Command{
				Name: "add",
				Args: []Node{
					Identifier("tone"), Int(880),
					AccentExpr{items: []accentItem{
						{level: 0, matcher: matchAll},
						{level: 1, matcher: listMatch{2}},
					}},
				},
			},
		},
	}

	for _, test := range tests {
		got, err := Parse(test.input)
		if err != nil {
			t.Errorf("Parse(%q): %v", test.input, err)
			continue
		}
		if !reflect.DeepEqual(test.want, got) {
			t.Errorf("Parse(%q):\nwant: %+v\ngot:  %+v", test.input, test.want, got)
		}
	}
}

func TestParseErrors(t *testing.T) {
	inputs := []string{
		"",
		"3 foo",
		"add tone 3:0",
		"add tone 0:2",
		"add tone ':",
	}
	for _, input := range inputs {
		if _, err := Parse(input); err == nil {
			t.Errorf("Parse(%q): expected an error", input)
		}
	}
}
