package harness

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrFileNotFound is wrapped by errors for images a check asked the replay
// to write but could not read back.
var ErrFileNotFound = errors.New("file not found")

// Failure is the error a check returns when an assertion does not hold.
// Images lists files that help diagnose the failure, typically the pair of
// images that were compared.
type Failure struct {
	Msg    string
	Images []string
}

func (f *Failure) Error() string {
	return f.Msg
}

// Failf returns a Failure with a formatted message.
func Failf(format string, args ...any) error {
	return &Failure{Msg: fmt.Sprintf(format, args...)}
}

// FailImages returns a Failure carrying diagnostic image paths.
func FailImages(msg string, images ...string) error {
	return &Failure{Msg: msg, Images: append([]string(nil), images...)}
}

// AsFailure reports whether err is, or wraps, a Failure.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// SanitiseFilename rewrites path so it does not leak the location of the
// temporary directory root: paths under root become relative to it and are
// prefixed with "<tmp>/". Other paths only lose their directory.
func SanitiseFilename(path, root string) string {
	if root != "" {
		if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
			return "<tmp>/" + filepath.ToSlash(rel)
		}
	}
	return filepath.Base(path)
}
