package sequences

import (
	"os"
	"path/filepath"
)

// SequenceSearchPaths returns sequence search directories in precedence
// order: the project directory, extra directories from configuration, then
// the user's config directory.
func SequenceSearchPaths(projectDir string, extra ...string) []string {
	paths := make([]string, 0, 2+len(extra))
	if projectDir != "" {
		paths = append(paths, filepath.Join(projectDir, ".sequencer", "sequences"))
	}
	for _, dir := range extra {
		if dir != "" {
			paths = append(paths, dir)
		}
	}

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths, filepath.Join(home, ".config", "sequencer", "sequences"))
	}
	return paths
}

// LoadSequencesFromSearchPaths loads sequences from search paths, then the
// builtins, with first-hit precedence by name.
func LoadSequencesFromSearchPaths(projectDir string, extra ...string) ([]*Sequence, error) {
	seen := make(map[string]*Sequence)
	order := make([]string, 0)
	add := func(sequences []*Sequence) {
		for _, seq := range sequences {
			if _, exists := seen[seq.Name]; exists {
				continue
			}
			seen[seq.Name] = seq
			order = append(order, seq.Name)
		}
	}

	for _, path := range SequenceSearchPaths(projectDir, extra...) {
		sequences, err := LoadSequencesFromDir(path)
		if err != nil {
			return nil, err
		}
		add(sequences)
	}

	builtins, err := LoadBuiltinSequences()
	if err != nil {
		return nil, err
	}
	add(builtins)

	resolved := make([]*Sequence, 0, len(order))
	for _, name := range order {
		resolved = append(resolved, seen[name])
	}
	return resolved, nil
}
