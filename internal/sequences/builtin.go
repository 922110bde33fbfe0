package sequences

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
)

// SourceBuiltin is the Source of sequences bundled with the binary.
const SourceBuiltin = "builtin"

//go:embed builtin/*.yaml
var builtinFS embed.FS

// LoadBuiltinSequences parses the sequences bundled with the sequencer,
// sorted by name. Two bundled files declaring the same name are an error.
func LoadBuiltinSequences() ([]*Sequence, error) {
	files, err := fs.Glob(builtinFS, "builtin/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("list builtin sequences: %w", err)
	}

	seen := make(map[string]string, len(files))
	out := make([]*Sequence, 0, len(files))
	for _, file := range files {
		data, err := builtinFS.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read builtin sequence %s: %w", path.Base(file), err)
		}
		seq, err := parseSequence(data)
		if err != nil {
			return nil, fmt.Errorf("parse builtin sequence %s: %w", path.Base(file), err)
		}
		if prev, ok := seen[seq.Name]; ok {
			return nil, fmt.Errorf("builtin sequence %q declared in both %s and %s", seq.Name, prev, path.Base(file))
		}
		seen[seq.Name] = path.Base(file)

		seq.Source = SourceBuiltin
		out = append(out, seq)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
