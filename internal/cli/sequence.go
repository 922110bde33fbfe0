package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/opencode-ai/sequencer/internal/sequences"
	"github.com/spf13/cobra"
)

var listTags []string

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)

	listCmd.Flags().StringSliceVar(&listTags, "tag", nil, "only show sequences with any of these tags")
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List available sequences",
	Long:    "List sequences from the project, configured directories, the user config directory and the builtins.",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := loadAllSequences()
		if err != nil {
			return err
		}
		items = filterSequences(items, listTags)

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, items)
		}
		if len(items) == 0 {
			fmt.Println("No sequences found")
			return nil
		}

		userDir, projectDir := sequenceDirs()
		rows := make([][]string, 0, len(items))
		for _, seq := range items {
			rows = append(rows, []string{
				seq.Name,
				fmt.Sprintf("%d", len(seq.Steps)),
				strings.Join(seq.Tags, ","),
				sequenceSourceLabel(seq.Source, userDir, projectDir),
				seq.Description,
			})
		}
		return writeTable(os.Stdout, []string{"NAME", "STEPS", "TAGS", "SOURCE", "DESCRIPTION"}, rows)
	},
}

var showCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a sequence",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := loadAllSequences()
		if err != nil {
			return err
		}
		seq := findSequenceByName(items, args[0])
		if seq == nil {
			return fmt.Errorf("sequence %q not found", args[0])
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, seq)
		}

		userDir, projectDir := sequenceDirs()
		fmt.Printf("Name:        %s\n", seq.Name)
		if seq.Description != "" {
			fmt.Printf("Description: %s\n", seq.Description)
		}
		fmt.Printf("Source:      %s (%s)\n", sequenceSourceLabel(seq.Source, userDir, projectDir), seq.Source)
		if len(seq.Tags) > 0 {
			fmt.Printf("Tags:        %s\n", strings.Join(seq.Tags, ", "))
		}

		if len(seq.Variables) > 0 {
			fmt.Println("\nVariables:")
			rows := make([][]string, 0, len(seq.Variables))
			for _, v := range seq.Variables {
				rows = append(rows, []string{"  " + v.Name, formatYesNo(v.Required), v.Default, v.Description})
			}
			if err := writeTable(os.Stdout, []string{"  NAME", "REQUIRED", "DEFAULT", "DESCRIPTION"}, rows); err != nil {
				return err
			}
		}

		if len(seq.Targets) > 0 {
			fmt.Println("\nTargets:")
			for _, target := range seq.Targets {
				fmt.Printf("  %s %s\n", target.Name, formatProperties(target.Properties))
			}
		}

		fmt.Println("\nSteps:")
		for i, step := range seq.Steps {
			fmt.Printf("  %d. %s\n", i+1, formatSequenceStep(step))
		}
		return nil
	},
}

func loadAllSequences() ([]*sequences.Sequence, error) {
	projectDir, err := os.Getwd()
	if err != nil {
		projectDir = ""
	}
	return sequences.LoadSequencesFromSearchPaths(projectDir, GetConfig().Sequences.Dirs...)
}

func sequenceDirs() (userDir, projectDir string) {
	if home, err := os.UserHomeDir(); err == nil {
		userDir = filepath.Join(home, ".config", "sequencer", "sequences")
	}
	if wd, err := os.Getwd(); err == nil {
		projectDir = filepath.Join(wd, ".sequencer", "sequences")
	}
	return userDir, projectDir
}

func filterSequences(items []*sequences.Sequence, tags []string) []*sequences.Sequence {
	if len(tags) == 0 {
		return items
	}

	wanted := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		wanted[strings.ToLower(strings.TrimSpace(tag))] = struct{}{}
	}

	filtered := make([]*sequences.Sequence, 0, len(items))
	for _, seq := range items {
		for _, tag := range seq.Tags {
			if _, ok := wanted[strings.ToLower(tag)]; ok {
				filtered = append(filtered, seq)
				break
			}
		}
	}
	return filtered
}

func findSequenceByName(items []*sequences.Sequence, name string) *sequences.Sequence {
	name = strings.TrimSpace(name)
	for _, seq := range items {
		if strings.EqualFold(seq.Name, name) {
			return seq
		}
	}
	return nil
}

// parseSequenceVars parses key=value pairs; each argument may hold several
// comma-separated pairs.
func parseSequenceVars(values []string) (map[string]string, error) {
	vars := make(map[string]string)
	for _, value := range values {
		for _, pair := range strings.Split(value, ",") {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			key, val, ok := strings.Cut(pair, "=")
			if !ok {
				return nil, fmt.Errorf("invalid variable %q (want key=value)", pair)
			}
			key = strings.TrimSpace(key)
			if key == "" {
				return nil, fmt.Errorf("invalid variable %q: empty key", pair)
			}
			vars[key] = strings.TrimSpace(val)
		}
	}
	return vars, nil
}

func sequenceSourceLabel(source, userDir, projectDir string) string {
	switch {
	case source == sequences.SourceBuiltin:
		return "builtin"
	case projectDir != "" && strings.HasPrefix(source, projectDir):
		return "project"
	case userDir != "" && strings.HasPrefix(source, userDir):
		return "user"
	default:
		return "file"
	}
}

func formatSequenceStep(step sequences.SequenceStep) string {
	switch step.Type {
	case sequences.StepTypeSleep:
		return fmt.Sprintf("[sleep] %s", step.Duration)
	case sequences.StepTypeCall:
		switch {
		case step.Hook != "" && step.Message != "":
			return fmt.Sprintf("[call] %s (hook: %s)", step.Message, step.Hook)
		case step.Hook != "":
			return fmt.Sprintf("[call] hook: %s", step.Hook)
		default:
			return fmt.Sprintf("[call] %s", step.Message)
		}
	case sequences.StepTypeAnimate:
		parts := make([]string, 0, len(step.Animations))
		for _, anim := range step.Animations {
			part := fmt.Sprintf("%s %s", anim.Target, formatProperties(anim.Style))
			if anim.Duration != "" {
				part += " over " + anim.Duration
			}
			if anim.Delay != "" {
				part += " after " + anim.Delay
			}
			if anim.Easing != "" {
				part += " " + anim.Easing
			}
			parts = append(parts, part)
		}
		return fmt.Sprintf("[animate] %s", strings.Join(parts, "; "))
	case sequences.StepTypeLaunch, sequences.StepTypeWait:
		if step.Sequence != "" {
			return fmt.Sprintf("[%s] sequence %s", step.Type, step.Sequence)
		}
		return fmt.Sprintf("[%s] timer %s", step.Type, step.Duration)
	default:
		return fmt.Sprintf("[%s]", step.Type)
	}
}

func formatProperties(props map[string]float64) string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%g", k, props[k]))
	}
	return "{" + strings.Join(parts, " ") + "}"
}
