// Package errors provides the error kinds raised by mtrf.
//
// Every typed error unwraps to one of the kind sentinels below, so callers
// can classify failures with errors.Is without caring about the concrete
// type:
//
//	if errors.Is(err, errors.ErrShape) {
//		// stimulus and response do not line up
//	}
//
// Construction and wrapping helpers are re-exported from
// github.com/cockroachdb/errors so that stack traces are attached and
// printed with %+v.
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

const prefix = "mtrf"

// Kind sentinels.
var (
	// ErrConfiguration marks invalid construction parameters or selectors.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrShape marks input arrays whose dimensions do not fit together.
	ErrShape = errors.New("invalid shape")
	// ErrState marks operations that are illegal in the model's current state.
	ErrState = errors.New("invalid state")
	// ErrRegularization marks unusable regularization values or matrices.
	ErrRegularization = errors.New("invalid regularization")
	// ErrEmptyData marks empty inputs.
	ErrEmptyData = errors.New("empty data")
	// ErrSingularMatrix marks a linear system that could not be solved.
	ErrSingularMatrix = errors.New("singular matrix")
	// ErrNotImplemented marks features that are not available in this build.
	ErrNotImplemented = errors.New("not implemented")
)

// New creates an error with a stack trace.
func New(msg string) error { return errors.New(msg) }

// Newf creates a formatted error with a stack trace.
func Newf(format string, args ...interface{}) error { return errors.Newf(format, args...) }

// Wrap annotates err with msg. It returns nil when err is nil.
func Wrap(err error, msg string) error { return errors.Wrap(err, msg) }

// Wrapf annotates err with a formatted message. It returns nil when err is nil.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Unwrap returns the next error in err's chain.
func Unwrap(err error) error { return errors.Unwrap(err) }

// ConfigurationError reports an invalid parameter value.
type ConfigurationError struct {
	Op      string
	Param   string
	Value   interface{}
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s: invalid %s %v: %s", prefix, e.Op, e.Param, e.Value, e.Message)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// NewConfigurationError creates a ConfigurationError.
func NewConfigurationError(op, param string, value interface{}, message string) error {
	return &ConfigurationError{Op: op, Param: param, Value: value, Message: message}
}

// ShapeError reports incompatible array shapes.
type ShapeError struct {
	Op      string
	Message string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: %s: %s", prefix, e.Op, e.Message)
}

func (e *ShapeError) Unwrap() error { return ErrShape }

// NewShapeError creates a ShapeError.
func NewShapeError(op, message string) error {
	return &ShapeError{Op: op, Message: message}
}

// NewShapeErrorf creates a ShapeError with a formatted message.
func NewShapeErrorf(op, format string, args ...interface{}) error {
	return &ShapeError{Op: op, Message: fmt.Sprintf(format, args...)}
}

// DimensionError reports a size mismatch along one axis.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s: %s: dimension mismatch on axis %d: expected %d, got %d",
		prefix, e.Op, e.Axis, e.Expected, e.Got)
}

func (e *DimensionError) Unwrap() error { return ErrShape }

// NewDimensionError creates a DimensionError.
func NewDimensionError(op string, expected, got, axis int) error {
	return &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
}

// StateError reports an operation attempted in the wrong model state.
type StateError struct {
	Op      string
	Message string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %s: %s", prefix, e.Op, e.Message)
}

func (e *StateError) Unwrap() error { return ErrState }

// NewStateError creates a StateError.
func NewStateError(op, message string) error {
	return &StateError{Op: op, Message: message}
}

// NotFittedError reports use of a model before training.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("%s: %s: %s called on an untrained model", prefix, e.ModelName, e.Method)
}

func (e *NotFittedError) Unwrap() error { return ErrState }

// NewNotFittedError creates a NotFittedError.
func NewNotFittedError(modelName, method string) error {
	return &NotFittedError{ModelName: modelName, Method: method}
}

// RegularizationError reports an unusable regularization value.
type RegularizationError struct {
	Op      string
	Message string
}

func (e *RegularizationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", prefix, e.Op, e.Message)
}

func (e *RegularizationError) Unwrap() error { return ErrRegularization }

// NewRegularizationError creates a RegularizationError.
func NewRegularizationError(op, message string) error {
	return &RegularizationError{Op: op, Message: message}
}

// ValueError reports an invalid argument that is not a model parameter.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s: %s: %s", prefix, e.Op, e.Message)
}

// NewValueError creates a ValueError.
func NewValueError(op, message string) error {
	return &ValueError{Op: op, Message: message}
}

// ModelError wraps a failure inside a model computation.
type ModelError struct {
	Op      string
	Message string
	Err     error
}

func (e *ModelError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s: %s", prefix, e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s: %v", prefix, e.Op, e.Message, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// NewModelError creates a ModelError wrapping err.
func NewModelError(op, message string, err error) error {
	return &ModelError{Op: op, Message: message, Err: err}
}

// Recover converts a panic in the calling function into a ModelError stored
// in *err. gonum/mat panics on dimension mismatches, so exported entry
// points defer it:
//
//	func (m *TRF) Train(...) (err error) {
//		defer errors.Recover(&err, "TRF.Train")
//		...
//	}
func Recover(err *error, op string) {
	if r := recover(); r != nil {
		var cause error
		switch v := r.(type) {
		case error:
			cause = errors.WithStack(v)
		default:
			cause = errors.Newf("%v", v)
		}
		*err = NewModelError(op, "recovered from panic", cause)
	}
}
