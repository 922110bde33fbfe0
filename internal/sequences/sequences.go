// Package sequences loads timelines declared in YAML and builds them into
// playable timeline.Timeline values.
package sequences

// Sequence is a named, ordered list of timeline steps.
type Sequence struct {
	Name        string         `yaml:"name" json:"name" jsonschema:"required"`
	Description string         `yaml:"description" json:"description,omitempty"`
	Tags        []string       `yaml:"tags,omitempty" json:"tags,omitempty"`
	Variables   []SequenceVar  `yaml:"variables,omitempty" json:"variables,omitempty"`
	Targets     []TargetSpec   `yaml:"targets,omitempty" json:"targets,omitempty"`
	Steps       []SequenceStep `yaml:"steps" json:"steps" jsonschema:"required,minItems=1"`
	Source      string         `yaml:"-" json:"source"` // file path or "builtin"
}

// SequenceStep is a single action. Which fields apply depends on Type.
type SequenceStep struct {
	Type StepType `yaml:"type" json:"type" jsonschema:"required,enum=sleep,enum=call,enum=animate,enum=launch,enum=wait,enum=pause,enum=delay,enum=message,enum=animation"`

	// Duration is the sleep length, or the length of a timed launch/wait.
	Duration string `yaml:"duration,omitempty" json:"duration,omitempty"`

	// Message is rendered with the sequence variables and emitted by a call.
	Message string `yaml:"message,omitempty" json:"message,omitempty"`
	// Hook names a function registered with BuildOptions.Hooks.
	Hook string `yaml:"hook,omitempty" json:"hook,omitempty"`

	// Sequence names a nested sequence for launch/wait.
	Sequence string `yaml:"sequence,omitempty" json:"sequence,omitempty"`

	Animations []AnimationSpec `yaml:"animations,omitempty" json:"animations,omitempty"`
}

// AnimationSpec describes one entry of an animate step.
type AnimationSpec struct {
	Target   string             `yaml:"target" json:"target" jsonschema:"required"`
	Style    map[string]float64 `yaml:"style" json:"style" jsonschema:"required"`
	Duration string             `yaml:"duration,omitempty" json:"duration,omitempty"`
	Delay    string             `yaml:"delay,omitempty" json:"delay,omitempty"`
	Easing   string             `yaml:"easing,omitempty" json:"easing,omitempty" jsonschema:"enum=linear,enum=ease-in,enum=ease-out,enum=ease-in-out"`
}

// TargetSpec declares an animatable element and its initial properties.
type TargetSpec struct {
	Name       string             `yaml:"name" json:"name" jsonschema:"required"`
	Properties map[string]float64 `yaml:"properties,omitempty" json:"properties,omitempty"`
}

// SequenceVar describes a variable used in call messages.
type SequenceVar struct {
	Name        string `yaml:"name" json:"name" jsonschema:"required"`
	Description string `yaml:"description" json:"description,omitempty"`
	Default     string `yaml:"default,omitempty" json:"default,omitempty"`
	Required    bool   `yaml:"required" json:"required"`
}

// StepType defines the kind of sequence step.
type StepType string

const (
	StepTypeSleep   StepType = "sleep"
	StepTypeCall    StepType = "call"
	StepTypeAnimate StepType = "animate"
	StepTypeLaunch  StepType = "launch"
	StepTypeWait    StepType = "wait"
)

// stepAliases maps accepted spellings to canonical step types.
var stepAliases = map[string]StepType{
	"pause":     StepTypeSleep,
	"delay":     StepTypeSleep,
	"message":   StepTypeCall,
	"animation": StepTypeAnimate,
}
