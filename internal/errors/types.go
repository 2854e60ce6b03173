package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeInternal   ErrorType = "internal"
)

// BleakError is a structured error type with context.
type BleakError struct {
	Type         ErrorType
	Code         string
	Message      string
	Cause        error
	Context      map[string]interface{}
	QuestionType string
	Recoverable  bool
}

// Error implements the error interface.
func (e *BleakError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.QuestionType != "" {
		parts = append(parts, "type:"+e.QuestionType)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *BleakError) Unwrap() error {
	return e.Cause
}

// Is matches on type and code so sentinel values work with errors.Is.
func (e *BleakError) Is(target error) bool {
	var t *BleakError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *BleakError) WithContext(key string, value interface{}) *BleakError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithQuestionType records the question type the error concerns.
func (e *BleakError) WithQuestionType(questionType string) *BleakError {
	e.QuestionType = questionType

	return e
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *BleakError {
	return &BleakError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewConfigError creates a configuration error. Configuration errors are
// never recoverable: retrying cannot change an immutable configuration.
func NewConfigError(code, message string) *BleakError {
	return &BleakError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *BleakError {
	return &BleakError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *BleakError {
	return &BleakError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var be *BleakError
	if errors.As(err, &be) {
		return be.Recoverable
	}

	return false
}

// IsConfigurationError reports whether err is a renderer configuration error.
func IsConfigurationError(err error) bool {
	var be *BleakError
	if errors.As(err, &be) {
		return be.Type == ErrorTypeConfig
	}

	return false
}

// IsValidationError reports whether err is an input validation error.
func IsValidationError(err error) bool {
	var be *BleakError
	if errors.As(err, &be) {
		return be.Type == ErrorTypeValidation
	}

	return false
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// ErrorHandler provides centralized error handling.
type ErrorHandler struct {
	logger Logger
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs err at a level matching its category.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var be *BleakError
	if !errors.As(err, &be) {
		h.logger.Error(ctx, err, "Unhandled error occurred")
		return
	}

	switch be.Type {
	case ErrorTypeValidation:
		h.logger.Warn(ctx, err, "Validation error occurred",
			"code", be.Code,
			"question_type", be.QuestionType)
	case ErrorTypeConfig:
		h.logger.Error(ctx, err, "Renderer configuration error",
			"code", be.Code,
			"question_type", be.QuestionType)
	default:
		h.logger.Error(ctx, err, "Error occurred",
			"type", be.Type,
			"code", be.Code)
	}
}

// Common error codes.
const (
	ErrCodeNoFallback        = "ERR_NO_FALLBACK"
	ErrCodeNoDefaultOptions  = "ERR_NO_DEFAULT_OPTIONS"
	ErrCodeEmptyQuestionType = "ERR_EMPTY_QUESTION_TYPE"
	ErrCodeInvalidIndex      = "ERR_INVALID_INDEX"
	ErrCodeInvalidElement    = "ERR_INVALID_ELEMENT"
	ErrCodeConfigInvalid     = "ERR_CONFIG_INVALID"
	ErrCodeFileNotFound      = "ERR_FILE_NOT_FOUND"
	ErrCodeDecodeFailed      = "ERR_DECODE_FAILED"
	ErrCodeRenderFailed      = "ERR_RENDER_FAILED"
	ErrCodeServerFailed      = "ERR_SERVER_FAILED"
	ErrCodeInvalidMessage    = "ERR_INVALID_MESSAGE"
)

// ErrNoFallback reports a question type with no registered element and no
// fallback element configured.
func ErrNoFallback(questionType string) *BleakError {
	return NewConfigError(
		ErrCodeNoFallback,
		fmt.Sprintf("no registered component for type %q and no fallback component configured", questionType),
	).WithQuestionType(questionType)
}

// ErrNoDefaultOptions reports a question type that requires options, was
// given none, and gets none from the default-options policy.
func ErrNoDefaultOptions(questionType string) *BleakError {
	return NewConfigError(
		ErrCodeNoDefaultOptions,
		fmt.Sprintf("type %q requires options but none were supplied and no default options are configured for it", questionType),
	).WithQuestionType(questionType)
}

// ErrEmptyQuestionType reports a question without a type.
func ErrEmptyQuestionType() *BleakError {
	return NewValidationError(ErrCodeEmptyQuestionType, "question type must not be empty")
}

// ErrInvalidIndex reports an answer index outside the question flow.
func ErrInvalidIndex(index int) *BleakError {
	return NewValidationError(ErrCodeInvalidIndex, fmt.Sprintf("question index %d out of range", index)).
		WithContext("index", index)
}

// ErrInvalidElement reports a registration with an empty type or nil element.
func ErrInvalidElement(questionType string) *BleakError {
	return NewValidationError(ErrCodeInvalidElement, "element registration requires a type and an element").
		WithQuestionType(questionType)
}
