package errors

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBleakError_Error(t *testing.T) {
	err := ErrNoFallback("rating")
	assert.Equal(t,
		`[ERR_NO_FALLBACK] type:rating no registered component for type "rating" and no fallback component configured`,
		err.Error())

	wrapped := NewIOError(ErrCodeFileNotFound, "reading flow", fmt.Errorf("boom"))
	assert.Equal(t, "[ERR_FILE_NOT_FOUND] reading flow: boom", wrapped.Error())
}

func TestBleakError_IsAndUnwrap(t *testing.T) {
	cause := fmt.Errorf("disk on fire")
	err := WrapIO(cause, ErrCodeFileNotFound, "reading config")

	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, &BleakError{Type: ErrorTypeIO, Code: ErrCodeFileNotFound}))
	assert.False(t, errors.Is(err, &BleakError{Type: ErrorTypeIO, Code: ErrCodeDecodeFailed}))

	outer := fmt.Errorf("serve: %w", ErrNoDefaultOptions("radio"))
	assert.True(t, IsConfigurationError(outer))
	assert.False(t, IsValidationError(outer))
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		config      bool
		validation  bool
		recoverable bool
	}{
		{"no fallback", ErrNoFallback("x"), true, false, false},
		{"no default options", ErrNoDefaultOptions("x"), true, false, false},
		{"empty type", ErrEmptyQuestionType(), false, true, true},
		{"invalid index", ErrInvalidIndex(3), false, true, true},
		{"plain error", fmt.Errorf("plain"), false, false, false},
		{"nil", nil, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.config, IsConfigurationError(tt.err))
			assert.Equal(t, tt.validation, IsValidationError(tt.err))
			assert.Equal(t, tt.recoverable, IsRecoverable(tt.err))
		})
	}
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeIO, ErrCodeFileNotFound, "x"))

	inner := ErrNoFallback("rating").WithContext("source", "flow.yml")
	outer := WrapConfig(inner, ErrCodeConfigInvalid, "building renderer")

	assert.Equal(t, "rating", outer.QuestionType)
	assert.Equal(t, "flow.yml", outer.Context["source"])
	assert.False(t, outer.Recoverable)

	be, ok := AsBleakError(fmt.Errorf("ctx: %w", outer))
	require.True(t, ok)
	assert.Equal(t, ErrCodeConfigInvalid, be.Code)

	_, ok = AsBleakError(fmt.Errorf("plain"))
	assert.False(t, ok)
}

func TestGetErrorContext(t *testing.T) {
	ctx := GetErrorContext(ErrInvalidIndex(7))
	assert.Equal(t, 7, ctx["index"])
	assert.Equal(t, "validation", ctx["type"])
	assert.Equal(t, ErrCodeInvalidIndex, ctx["code"])

	ctx = GetErrorContext(fmt.Errorf("plain"))
	assert.Equal(t, "unknown", ctx["type"])
}

func TestCombineErrors(t *testing.T) {
	assert.NoError(t, CombineErrors(nil, nil))

	single := fmt.Errorf("one")
	assert.Equal(t, single, CombineErrors(nil, single))

	combined := CombineErrors(fmt.Errorf("one"), fmt.Errorf("two"))
	require.Error(t, combined)
	assert.True(t, IsConfigurationError(combined))
	assert.Equal(t, 2, GetErrorContext(combined)["error_count"])
}

type recordingLogger struct {
	errors, warnings int
}

func (l *recordingLogger) Error(context.Context, error, string, ...interface{}) { l.errors++ }
func (l *recordingLogger) Warn(context.Context, error, string, ...interface{})  { l.warnings++ }

func TestErrorHandler(t *testing.T) {
	logger := &recordingLogger{}
	h := NewErrorHandler(logger)

	h.Handle(context.Background(), nil)
	h.Handle(context.Background(), ErrEmptyQuestionType())
	h.Handle(context.Background(), ErrNoFallback("x"))
	h.Handle(context.Background(), fmt.Errorf("plain"))

	assert.Equal(t, 1, logger.warnings)
	assert.Equal(t, 2, logger.errors)

	assert.NotPanics(t, func() { NewErrorHandler(nil).Handle(context.Background(), fmt.Errorf("x")) })
}

func TestCollector(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 4; i >= 0; i-- {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sev := SeverityWarning
			if i == 2 {
				sev = SeverityError
			}
			c.Add(Finding{Index: i, QuestionType: "rating", Message: "falls back", Severity: sev})
		}(i)
	}
	wg.Wait()

	findings := c.Findings()
	require.Len(t, findings, 5)
	for i, f := range findings {
		assert.Equal(t, i, f.Index)
	}
	assert.True(t, c.HasErrors())
	assert.Equal(t, 4, c.Count(SeverityWarning))
	assert.Equal(t, "question 2 (rating): error: falls back", findings[2].Error())
	assert.Equal(t, "info", SeverityInfo.String())
}
