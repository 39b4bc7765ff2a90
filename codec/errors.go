package codec

import (
	"errors"
	"fmt"
)

var (
	ErrBadFilename = errors.New("bad tile filename")
	ErrInflate     = errors.New("inflate failed")
	ErrBlockTable  = errors.New("invalid block table")
)

// DecodeError reports why one tile file could not be decoded.
// Kind is one of ErrBadFilename, ErrInflate or ErrBlockTable;
// errors.Is matches against both Kind and the underlying Err.
type DecodeError struct {
	Filename string
	Kind     error
	Err      error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("decode %s: %v", e.Filename, e.Kind)
	}
	return fmt.Sprintf("decode %s: %v: %v", e.Filename, e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func decodeErr(filename string, kind, err error) *DecodeError {
	return &DecodeError{Filename: filename, Kind: kind, Err: err}
}
