package script

import (
	"errors"

	"github.com/born-ml/torchscript/internal/object"
)

// ErrSourceNotFound is returned by a Source when no program exists for a
// package.
var ErrSourceNotFound = errors.New("source not found")

// IsRecoverable reports whether err is one of the kinds a tracing attempt
// downgrades to an untraced result: unknown symbols, unsupported
// expressions, missing source and exceptions raised by script code.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrSourceNotFound) ||
		object.IsUnknownSymbol(err) ||
		object.IsUnsupported(err) ||
		object.IsRaised(err)
}
