package cli

import (
	"testing"

	"github.com/opencode-ai/sequencer/internal/sequences"
)

func TestFilterSequences(t *testing.T) {
	items := []*sequences.Sequence{
		{Name: "a", Tags: []string{"git", "code"}},
		{Name: "b", Tags: []string{"review"}},
		{Name: "c", Tags: []string{"git"}},
		{Name: "d", Tags: nil},
	}

	tests := []struct {
		name     string
		tags     []string
		expected int
	}{
		{"no filter", nil, 4},
		{"filter git", []string{"git"}, 2},
		{"filter review", []string{"review"}, 1},
		{"filter multiple", []string{"git", "review"}, 3},
		{"filter nonexistent", []string{"nonexistent"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := filterSequences(items, tt.tags)
			if len(result) != tt.expected {
				t.Errorf("filterSequences() = %d items, want %d", len(result), tt.expected)
			}
		})
	}
}

func TestFindSequenceByName(t *testing.T) {
	items := []*sequences.Sequence{
		{Name: "bugfix"},
		{Name: "feature"},
		{Name: "review"},
	}

	tests := []struct {
		name    string
		search  string
		wantNil bool
	}{
		{"exact match", "bugfix", false},
		{"case insensitive", "FEATURE", false},
		{"not found", "nonexistent", true},
		{"partial match fails", "bug", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := findSequenceByName(items, tt.search)
			if (result == nil) != tt.wantNil {
				t.Errorf("findSequenceByName(%q) nil = %v, want nil = %v", tt.search, result == nil, tt.wantNil)
			}
		})
	}
}

func TestParseSequenceVars(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		wantLen int
		wantErr bool
	}{
		{"single var", []string{"key=value"}, 1, false},
		{"multiple vars", []string{"k1=v1", "k2=v2"}, 2, false},
		{"comma separated", []string{"k1=v1,k2=v2"}, 2, false},
		{"empty value", []string{"key="}, 1, false},
		{"missing equals", []string{"invalid"}, 0, true},
		{"empty key", []string{"=value"}, 0, true},
		{"empty input", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseSequenceVars(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseSequenceVars() error = %v, wantErr = %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && len(result) != tt.wantLen {
				t.Errorf("parseSequenceVars() = %d vars, want %d", len(result), tt.wantLen)
			}
		})
	}
}

func TestSequenceSourceLabel(t *testing.T) {
	tests := []struct {
		name       string
		source     string
		userDir    string
		projectDir string
		want       string
	}{
		{"builtin", "builtin", "/home/user/.config/sequencer/sequences", "/project/.sequencer/sequences", "builtin"},
		{"user sequence", "/home/user/.config/sequencer/sequences/foo.yaml", "/home/user/.config/sequencer/sequences", "", "user"},
		{"project sequence", "/project/.sequencer/sequences/bar.yaml", "", "/project/.sequencer/sequences", "project"},
		{"other file", "/some/other/path.yaml", "/home/user/.config/sequencer/sequences", "/project/.sequencer/sequences", "file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sequenceSourceLabel(tt.source, tt.userDir, tt.projectDir)
			if result != tt.want {
				t.Errorf("sequenceSourceLabel() = %q, want %q", result, tt.want)
			}
		})
	}
}

func TestFormatSequenceStep(t *testing.T) {
	tests := []struct {
		name string
		step sequences.SequenceStep
		want string
	}{
		{"sleep", sequences.SequenceStep{Type: sequences.StepTypeSleep, Duration: "2s"}, "[sleep] 2s"},
		{"call message", sequences.SequenceStep{Type: sequences.StepTypeCall, Message: "hi"}, "[call] hi"},
		{"call hook", sequences.SequenceStep{Type: sequences.StepTypeCall, Hook: "log"}, "[call] hook: log"},
		{"call both", sequences.SequenceStep{Type: sequences.StepTypeCall, Message: "hi", Hook: "log"}, "[call] hi (hook: log)"},
		{"launch sequence", sequences.SequenceStep{Type: sequences.StepTypeLaunch, Sequence: "fade-in"}, "[launch] sequence fade-in"},
		{"wait timer", sequences.SequenceStep{Type: sequences.StepTypeWait, Duration: "500ms"}, "[wait] timer 500ms"},
		{
			"animate",
			sequences.SequenceStep{Type: sequences.StepTypeAnimate, Animations: []sequences.AnimationSpec{
				{Target: "panel", Style: map[string]float64{"opacity": 1, "left": 0.5}, Duration: "300ms", Delay: "50ms", Easing: "ease-out"},
				{Target: "box", Style: map[string]float64{"top": 10}},
			}},
			"[animate] panel {left=0.5 opacity=1} over 300ms after 50ms ease-out; box {top=10}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatSequenceStep(tt.step); got != tt.want {
				t.Fatalf("formatSequenceStep() = %q, want %q", got, tt.want)
			}
		})
	}
}
