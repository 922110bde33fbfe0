package sequences

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/opencode-ai/sequencer/internal/animation"
	"gopkg.in/yaml.v3"
)

// LoadSequence reads a single sequence from disk.
func LoadSequence(path string) (*Sequence, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sequence path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sequence %s: %w", path, err)
	}

	seq, err := parseSequence(data)
	if err != nil {
		return nil, fmt.Errorf("parse sequence %s: %w", path, err)
	}
	seq.Source = path
	return seq, nil
}

// LoadSequencesFromDir loads all sequences from a directory. A missing
// directory yields no sequences.
func LoadSequencesFromDir(dir string) ([]*Sequence, error) {
	if strings.TrimSpace(dir) == "" {
		return []*Sequence{}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*Sequence{}, nil
		}
		return nil, fmt.Errorf("read sequences dir %s: %w", dir, err)
	}

	sequences := make([]*Sequence, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		seq, err := LoadSequence(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		sequences = append(sequences, seq)
	}

	sort.Slice(sequences, func(i, j int) bool {
		return sequences[i].Name < sequences[j].Name
	})

	return sequences, nil
}

func parseSequence(data []byte) (*Sequence, error) {
	var seq Sequence
	if err := yaml.Unmarshal(data, &seq); err != nil {
		return nil, err
	}

	seq.Name = strings.TrimSpace(seq.Name)
	if seq.Name == "" {
		return nil, fmt.Errorf("sequence name is required")
	}
	seq.Description = strings.TrimSpace(seq.Description)

	if len(seq.Steps) == 0 {
		return nil, fmt.Errorf("sequence steps are required")
	}

	seen := make(map[string]struct{})
	for i := range seq.Variables {
		name := strings.TrimSpace(seq.Variables[i].Name)
		if name == "" {
			return nil, fmt.Errorf("sequence variable name is required")
		}
		if _, exists := seen[name]; exists {
			return nil, fmt.Errorf("duplicate sequence variable %q", name)
		}
		seen[name] = struct{}{}
		seq.Variables[i].Name = name
	}

	targets := make(map[string]struct{})
	for i := range seq.Targets {
		name := strings.TrimSpace(seq.Targets[i].Name)
		if name == "" {
			return nil, fmt.Errorf("sequence target name is required")
		}
		if _, exists := targets[name]; exists {
			return nil, fmt.Errorf("duplicate sequence target %q", name)
		}
		targets[name] = struct{}{}
		seq.Targets[i].Name = name
	}

	for i := range seq.Steps {
		if err := normalizeStep(&seq.Steps[i]); err != nil {
			return nil, fmt.Errorf("sequence step %d: %w", i+1, err)
		}
	}

	return &seq, nil
}

func normalizeStep(step *SequenceStep) error {
	stepType := strings.ToLower(strings.TrimSpace(string(step.Type)))
	if alias, ok := stepAliases[stepType]; ok {
		stepType = string(alias)
	}
	step.Type = StepType(stepType)

	step.Duration = strings.TrimSpace(step.Duration)
	step.Message = strings.TrimSpace(step.Message)
	step.Hook = strings.TrimSpace(step.Hook)
	step.Sequence = strings.TrimSpace(step.Sequence)

	switch step.Type {
	case StepTypeSleep:
		if step.Duration == "" {
			return fmt.Errorf("sleep duration is required")
		}
		if _, err := parseDuration(step.Duration); err != nil {
			return fmt.Errorf("invalid sleep duration: %w", err)
		}

	case StepTypeCall:
		if step.Message == "" && step.Hook == "" {
			return fmt.Errorf("call needs a message or a hook")
		}

	case StepTypeAnimate:
		if len(step.Animations) == 0 {
			return fmt.Errorf("animate needs at least one animation")
		}
		for i := range step.Animations {
			if err := normalizeAnimation(&step.Animations[i]); err != nil {
				return fmt.Errorf("animation %d: %w", i+1, err)
			}
		}

	case StepTypeLaunch, StepTypeWait:
		switch {
		case step.Sequence != "" && step.Duration != "":
			return fmt.Errorf("%s takes either a sequence or a duration, not both", step.Type)
		case step.Sequence != "":
		case step.Duration != "":
			if _, err := parseDuration(step.Duration); err != nil {
				return fmt.Errorf("invalid %s duration: %w", step.Type, err)
			}
		default:
			return fmt.Errorf("%s needs a sequence or a duration", step.Type)
		}

	default:
		return fmt.Errorf("unknown step type %q", step.Type)
	}

	return nil
}

func normalizeAnimation(anim *AnimationSpec) error {
	anim.Target = strings.TrimSpace(anim.Target)
	anim.Duration = strings.TrimSpace(anim.Duration)
	anim.Delay = strings.TrimSpace(anim.Delay)
	anim.Easing = strings.ToLower(strings.TrimSpace(anim.Easing))

	if anim.Target == "" {
		return fmt.Errorf("target is required")
	}
	if len(anim.Style) == 0 {
		return fmt.Errorf("style is required")
	}
	if _, err := parseDuration(anim.Duration); err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	if _, err := parseDuration(anim.Delay); err != nil {
		return fmt.Errorf("invalid delay: %w", err)
	}
	if anim.Easing != "" {
		if _, err := animation.ParseEasing(anim.Easing); err != nil {
			return err
		}
	}
	return nil
}

// parseDuration parses a non-negative duration. Empty means zero.
func parseDuration(value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must not be negative")
	}
	return d, nil
}
