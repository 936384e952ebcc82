package resources

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrEnumeration aborts the whole build.
	ErrEnumeration = errors.New("resource enumeration failed")
	ErrInvalidPath = errors.New("path is not under root")
	ErrConversion  = errors.New("scene conversion failed")
	ErrIO          = errors.New("resource io failed")
	ErrCollision   = errors.New("output produced by several sources")
)

// entryError ties a failure to a file. It matches both its category
// sentinel and its cause.
type entryError struct {
	kind error
	path string
	err  error
}

func (e *entryError) Error() string {
	return fmt.Sprintf("%v: %s: %v", e.kind, e.path, e.err)
}

func (e *entryError) Unwrap() []error {
	return []error{e.kind, e.err}
}

func newEntryError(kind error, path string, err error) error {
	return &entryError{kind: kind, path: path, err: err}
}

// Path returns the file an error was reported for, or "".
func Path(err error) string {
	var ee *entryError
	if errors.As(err, &ee) {
		return ee.path
	}
	return ""
}
