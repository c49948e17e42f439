package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
)

// Kind tags failures raised while generating or archiving a template pack.
type Kind string

const (
	KindNone         Kind = ""
	KindFileNotFound Kind = "file_not_found"
	KindEncoding     Kind = "encoding"
	KindPermission   Kind = "permission"
	KindIO           Kind = "io"
)

// Classifier is implemented by errors that carry their own Kind.
type Classifier interface {
	ErrorKind() Kind
}

// KindError wraps an underlying error with an operation name and a Kind.
type KindError struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *KindError) Error() string {
	switch {
	case e.Path != "" && e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s %s", e.Op, e.Path)
	default:
		return e.Op
	}
}

func (e *KindError) Unwrap() error { return e.Err }

// ErrorKind implements Classifier.
func (e *KindError) ErrorKind() Kind { return e.Kind }

// WithKind wraps err with the given kind. A nil err yields nil.
func WithKind(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &KindError{Kind: kind, Op: op, Err: err}
}

// FileNotFound returns a KindFileNotFound error for path.
func FileNotFound(op, path string) error {
	return &KindError{Kind: KindFileNotFound, Op: op, Path: path, Err: fs.ErrNotExist}
}

// KindOf returns the Kind of err. Tagged errors win; otherwise the
// standard fs sentinels are consulted. Untagged errors report KindNone.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var c Classifier
	if stderrors.As(err, &c) {
		if k := c.ErrorKind(); k != KindNone {
			return k
		}
	}
	switch {
	case stderrors.Is(err, fs.ErrNotExist):
		return KindFileNotFound
	case stderrors.Is(err, fs.ErrPermission):
		return KindPermission
	}
	return KindNone
}
