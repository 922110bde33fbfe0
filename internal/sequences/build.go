package sequences

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/opencode-ai/sequencer/internal/animation"
	"github.com/opencode-ai/sequencer/internal/scheduler"
	"github.com/opencode-ai/sequencer/internal/timeline"
)

// Build errors.
var (
	ErrSequenceNotFound = errors.New("sequence not found")
	ErrSequenceCycle    = errors.New("sequence cycle")
	ErrUnknownHook      = errors.New("unknown hook")
	ErrUnknownTarget    = errors.New("unknown target")
)

// HookContext is passed to hooks run by call steps.
type HookContext struct {
	Sequence string
	Step     int
	Message  string
}

// Hook is a named function a call step can run. Errors are reported through
// BuildOptions.OnError; they do not interrupt playback.
type Hook func(HookContext) error

// Resolver looks up nested sequences by name.
type Resolver func(name string) (*Sequence, error)

// BuildOptions wire a sequence to its runtime collaborators.
type BuildOptions struct {
	// Vars are rendered into call messages.
	Vars map[string]string

	// Resolve finds sequences named by launch/wait steps.
	Resolve Resolver

	Scheduler timeline.Scheduler
	Engine    timeline.AnimationEngine
	Observer  timeline.Observer

	// Hooks are run by call steps that name them.
	Hooks map[string]Hook

	// Output receives every rendered call message.
	Output func(sequence, message string)

	// OnError receives hook failures.
	OnError func(sequence string, err error)

	// Targets holds the animatable elements shared by a build and its
	// nested sequences. Build creates missing entries from each sequence's
	// declared targets; pass a map to inspect them afterwards.
	Targets map[string]*animation.Element
}

// Index returns a Resolver over sequences.
func Index(sequences []*Sequence) Resolver {
	byName := make(map[string]*Sequence, len(sequences))
	for _, seq := range sequences {
		if _, exists := byName[seq.Name]; !exists {
			byName[seq.Name] = seq
		}
	}
	return func(name string) (*Sequence, error) {
		seq, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrSequenceNotFound, name)
		}
		return seq, nil
	}
}

// Build turns seq into a timeline. Nested sequences are built recursively;
// every launch/wait reference gets its own timeline instance.
func Build(seq *Sequence, opts BuildOptions) (*timeline.Timeline, error) {
	if seq == nil {
		return nil, fmt.Errorf("sequence is required")
	}
	if opts.Targets == nil {
		opts.Targets = make(map[string]*animation.Element)
	}
	b := &builder{opts: opts}
	return b.build(seq, nil)
}

type builder struct {
	opts BuildOptions
}

func (b *builder) build(seq *Sequence, stack []string) (*timeline.Timeline, error) {
	for _, name := range stack {
		if name == seq.Name {
			return nil, fmt.Errorf("%w: %s", ErrSequenceCycle, strings.Join(append(stack, seq.Name), " -> "))
		}
	}
	stack = append(stack, seq.Name)

	data, err := resolveVars(seq, b.opts.Vars)
	if err != nil {
		return nil, fmt.Errorf("build sequence %q: %w", seq.Name, err)
	}

	for _, target := range seq.Targets {
		if _, exists := b.opts.Targets[target.Name]; !exists {
			b.opts.Targets[target.Name] = animation.NewElement(target.Name, target.Properties)
		}
	}

	tl := timeline.New(seq.Name, b.timelineOptions()...)
	for i, step := range seq.Steps {
		action, err := b.action(seq, i, step, data, stack)
		if err != nil {
			return nil, fmt.Errorf("build sequence %q step %d: %w", seq.Name, i+1, err)
		}
		tl.Append(action)
	}
	return tl, nil
}

func (b *builder) timelineOptions() []timeline.Option {
	var opts []timeline.Option
	if b.opts.Scheduler != nil {
		opts = append(opts, timeline.WithScheduler(b.opts.Scheduler))
	}
	if b.opts.Engine != nil {
		opts = append(opts, timeline.WithAnimationEngine(b.opts.Engine))
	}
	if b.opts.Observer != nil {
		opts = append(opts, timeline.WithObserver(b.opts.Observer))
	}
	return opts
}

func (b *builder) action(seq *Sequence, index int, step SequenceStep, data map[string]string, stack []string) (timeline.Action, error) {
	switch step.Type {
	case StepTypeSleep:
		d, err := parseDuration(step.Duration)
		if err != nil {
			return nil, err
		}
		return timeline.Sleep{Duration: d}, nil

	case StepTypeCall:
		return b.call(seq, index, step, data)

	case StepTypeAnimate:
		anims := make([]timeline.Animation, 0, len(step.Animations))
		for _, spec := range step.Animations {
			anim, err := b.animation(spec)
			if err != nil {
				return nil, err
			}
			anims = append(anims, anim)
		}
		return timeline.AnimationSet{Animations: anims}, nil

	case StepTypeLaunch:
		op, err := b.operation(step, stack)
		if err != nil {
			return nil, err
		}
		return timeline.Launch{Op: op}, nil

	case StepTypeWait:
		op, err := b.operation(step, stack)
		if err != nil {
			return nil, err
		}
		return timeline.Wait{Op: op}, nil

	default:
		return nil, fmt.Errorf("unknown step type %q", step.Type)
	}
}

func (b *builder) call(seq *Sequence, index int, step SequenceStep, data map[string]string) (timeline.Action, error) {
	var message string
	if step.Message != "" {
		text, err := renderText(seq.Name, step.Message, data)
		if err != nil {
			return nil, err
		}
		message = text
	}

	var hook Hook
	if step.Hook != "" {
		hook = b.opts.Hooks[step.Hook]
		if hook == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownHook, step.Hook)
		}
	}

	name := seq.Name
	output := b.opts.Output
	onError := b.opts.OnError
	return timeline.Call{Fn: func() {
		if message != "" && output != nil {
			output(name, message)
		}
		if hook == nil {
			return
		}
		if err := hook(HookContext{Sequence: name, Step: index, Message: message}); err != nil && onError != nil {
			onError(name, fmt.Errorf("hook %q: %w", step.Hook, err))
		}
	}}, nil
}

func (b *builder) animation(spec AnimationSpec) (timeline.Animation, error) {
	target, ok := b.opts.Targets[spec.Target]
	if !ok {
		return timeline.Animation{}, fmt.Errorf("%w: %q", ErrUnknownTarget, spec.Target)
	}
	duration, err := parseDuration(spec.Duration)
	if err != nil {
		return timeline.Animation{}, err
	}
	delay, err := parseDuration(spec.Delay)
	if err != nil {
		return timeline.Animation{}, err
	}

	style := make(timeline.Style, len(spec.Style))
	for k, v := range spec.Style {
		style[k] = v
	}
	return timeline.Animation{
		Target: target,
		Style:  style,
		Options: timeline.AnimationOptions{
			Duration: duration,
			Delay:    delay,
			Easing:   spec.Easing,
		},
	}, nil
}

func (b *builder) operation(step SequenceStep, stack []string) (timeline.Operation, error) {
	if step.Sequence == "" {
		d, err := parseDuration(step.Duration)
		if err != nil {
			return nil, err
		}
		return b.timer(d), nil
	}

	if b.opts.Resolve == nil {
		return nil, fmt.Errorf("%w: %q (no resolver)", ErrSequenceNotFound, step.Sequence)
	}
	nested, err := b.opts.Resolve(step.Sequence)
	if err != nil {
		return nil, err
	}
	return b.build(nested, stack)
}

// timer is an operation that completes after d on the build's scheduler.
func (b *builder) timer(d time.Duration) timeline.Operation {
	sched := b.opts.Scheduler
	if sched == nil {
		sched = scheduler.Default()
	}
	return timeline.OperationFunc(func(done func()) {
		sched.After(d, done)
	})
}
