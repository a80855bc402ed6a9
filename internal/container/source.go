package container

import (
	"fmt"
	"strings"

	"github.com/born-ml/torchscript/internal/archive"
	"github.com/born-ml/torchscript/internal/script"
	"github.com/born-ml/torchscript/internal/script/ast"
)

// archiveSource serves package sources from the code/ directory of an
// archive, e.g. package "__torch__.models" from "<prefix>code/__torch__/models.py".
type archiveSource struct {
	entries []archive.Entry
	prefix  string
	parser  script.Parser
}

func (s *archiveSource) Load(name string) ([]ast.Stmt, error) {
	file := "code/" + strings.ReplaceAll(name, ".", "/") + ".py"
	return s.parse(file)
}

// parse reads and parses the entry at prefix + file.
func (s *archiveSource) parse(file string) ([]ast.Stmt, error) {
	if s.parser == nil {
		return nil, fmt.Errorf("python source '%s': %w", file, script.ErrSourceNotFound)
	}
	e, ok := archive.Find(s.entries, s.prefix+file)
	if !ok {
		return nil, fmt.Errorf("python source '%s': %w", file, script.ErrSourceNotFound)
	}
	program, err := s.parser.Parse(e.Name, e.Data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", e.Name, err)
	}
	return program, nil
}
