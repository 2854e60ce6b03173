package errors

import (
	"errors"
	"fmt"
)

// Wrap wraps an error with additional context, creating a BleakError if the input is not already one
func Wrap(err error, errType ErrorType, code, message string) *BleakError {
	if err == nil {
		return nil
	}

	var be *BleakError
	if errors.As(err, &be) {
		return &BleakError{
			Type:         errType,
			Code:         code,
			Message:      message,
			Cause:        be,
			Context:      be.Context,
			QuestionType: be.QuestionType,
			Recoverable:  be.Recoverable,
		}
	}

	return &BleakError{
		Type:        errType,
		Code:        code,
		Message:     message,
		Cause:       err,
		Recoverable: errType == ErrorTypeValidation,
	}
}

// WrapValidation wraps an error as a validation error
func WrapValidation(err error, code, message string) *BleakError {
	return Wrap(err, ErrorTypeValidation, code, message)
}

// WrapIO wraps an error as an I/O error
func WrapIO(err error, code, message string) *BleakError {
	be := Wrap(err, ErrorTypeIO, code, message)
	if be != nil {
		be.Recoverable = false
	}
	return be
}

// WrapConfig wraps an error as a configuration error
func WrapConfig(err error, code, message string) *BleakError {
	be := Wrap(err, ErrorTypeConfig, code, message)
	if be != nil {
		be.Recoverable = false
	}
	return be
}

// FormatError formats an error for user display
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// GetErrorContext extracts context information from a BleakError
func GetErrorContext(err error) map[string]interface{} {
	var be *BleakError
	if errors.As(err, &be) {
		context := make(map[string]interface{}, len(be.Context)+4)
		for k, v := range be.Context {
			context[k] = v
		}
		if be.QuestionType != "" {
			context["question_type"] = be.QuestionType
		}
		context["type"] = string(be.Type)
		context["code"] = be.Code
		context["recoverable"] = be.Recoverable
		return context
	}

	return map[string]interface{}{
		"message": err.Error(),
		"type":    "unknown",
	}
}

// CombineErrors combines multiple errors into a single error with context
func CombineErrors(errs ...error) error {
	var nonNil []error
	for _, err := range errs {
		if err != nil {
			nonNil = append(nonNil, err)
		}
	}
	if len(nonNil) == 0 {
		return nil
	}
	if len(nonNil) == 1 {
		return nonNil[0]
	}

	messages := make([]string, 0, len(nonNil))
	for _, err := range nonNil {
		messages = append(messages, err.Error())
	}

	return &BleakError{
		Type:    ErrorTypeConfig,
		Code:    ErrCodeConfigInvalid,
		Message: fmt.Sprintf("multiple errors occurred: %d errors", len(nonNil)),
		Cause:   errors.Join(nonNil...),
		Context: map[string]interface{}{
			"error_count": len(nonNil),
			"errors":      messages,
		},
		Recoverable: false,
	}
}

// AsBleakError returns the first BleakError in err's chain.
func AsBleakError(err error) (*BleakError, bool) {
	var be *BleakError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}
