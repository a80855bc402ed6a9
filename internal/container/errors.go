package container

import (
	"errors"
	"fmt"
)

// FormatError reports an archive that is not a valid TorchScript container.
type FormatError struct {
	Message string
}

func (e *FormatError) Error() string {
	return e.Message
}

func formatErrorf(format string, args ...any) error {
	return &FormatError{Message: fmt.Sprintf(format, args...)}
}

// IsFormatError reports whether err is or wraps a FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}
