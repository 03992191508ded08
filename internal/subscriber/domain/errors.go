package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("not_found")
	ErrConfirmationMissing = errors.New("confirmation_required")
	ErrNoValidRows         = errors.New("no_valid_rows")
	ErrUnsupportedFile     = errors.New("unsupported_file")
)

// StoreError is the single failure shape returned by record store backends.
type StoreError struct {
	Op      string
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("store %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("store %s failed", e.Op)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError wraps err for op. ErrNotFound passes through untouched.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	var existing *StoreError
	if errors.As(err, &existing) {
		return err
	}
	return &StoreError{Op: op, Message: err.Error(), Err: err}
}

// ImportError reports a file that produced nothing insertable.
type ImportError struct {
	Reason string
	Err    error
}

func (e *ImportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("import failed: %s: %v", e.Reason, e.Err)
	}
	return "import failed: " + e.Reason
}

func (e *ImportError) Unwrap() error { return e.Err }
