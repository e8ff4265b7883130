package assets

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/taigrr/softrender/pkg/tga"
)

// Reason classifies a load or save failure.
type Reason int

const (
	// Malformed means the file exists but its contents could not be decoded.
	Malformed Reason = iota
	// NotFound means the file does not exist.
	NotFound
	// Unsupported means the extension or encoded variant is not handled.
	Unsupported
)

func (r Reason) String() string {
	switch r {
	case NotFound:
		return "not found"
	case Unsupported:
		return "unsupported"
	default:
		return "malformed"
	}
}

// Sentinels for errors.Is against a *LoadError.
var (
	ErrNotFound    = errors.New("asset not found")
	ErrMalformed   = errors.New("asset malformed")
	ErrUnsupported = errors.New("asset format unsupported")
)

// LoadError reports why a mesh or image could not be read or written.
type LoadError struct {
	Path   string
	Reason Reason
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Reason, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's Reason.
func (e *LoadError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Reason == NotFound
	case ErrMalformed:
		return e.Reason == Malformed
	case ErrUnsupported:
		return e.Reason == Unsupported
	}
	return false
}

// wrap classifies err for path. A nil err stays nil.
func wrap(path string, err error) error {
	if err == nil {
		return nil
	}
	var le *LoadError
	if errors.As(err, &le) {
		return err
	}

	reason := Malformed
	switch {
	case errors.Is(err, fs.ErrNotExist):
		reason = NotFound
	case errors.Is(err, tga.ErrUnsupported), errors.Is(err, ErrUnsupported):
		reason = Unsupported
	}
	return &LoadError{Path: path, Reason: reason, Err: err}
}

func unsupported(path, format string) error {
	return &LoadError{Path: path, Reason: Unsupported, Err: fmt.Errorf("no handler for %q", format)}
}
