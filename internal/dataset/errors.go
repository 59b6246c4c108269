package dataset

import (
	"errors"
	"fmt"
)

var (
	ErrNoHeader       = errors.New("no header row")
	ErrMissingColumns = errors.New("missing required columns")
)

// LoadError reports why a sales CSV could not be turned into a Table.
type LoadError struct {
	Path string
	Op   string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load dataset: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("load dataset %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
