package prediction

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed prediction. Callers switch on KindOf(err).
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindValidation
	KindSchema
	KindModelUnavailable
	KindInference
)

var (
	ErrValidation       = errors.New("invalid prediction request")
	ErrSchema           = errors.New("feature missing from request")
	ErrModelUnavailable = errors.New("model not loaded")
	ErrInference        = errors.New("prediction error")
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation_error"
	case KindSchema:
		return "schema_error"
	case KindModelUnavailable:
		return "model_unavailable"
	case KindInference:
		return "inference_error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindSchema:
		return ErrSchema
	case KindModelUnavailable:
		return ErrModelUnavailable
	case KindInference:
		return ErrInference
	default:
		return nil
	}
}

// Error is returned by every failing stage of the pipeline.
type Error struct {
	Kind       ErrorKind
	Stage      Stage
	Field      string
	Violations []Violation
	Err        error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s at %s", e.Kind.sentinel(), e.Stage)
	}
	return fmt.Sprintf("%s: %v", e.Kind.sentinel(), e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf returns KindNone for a nil error and KindInference for errors that
// did not come from the pipeline.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return KindInference
}
