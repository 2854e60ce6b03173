package observer

import (
	"context"

	"github.com/conneroisu/bleak/internal/logging"
)

// Logging writes every event to a structured logger. Renders and
// registrations are logged at debug level, fallbacks at info.
type Logging struct {
	logger logging.Logger
}

// NewLogging creates a logging observer.
func NewLogging(logger logging.Logger) *Logging {
	return &Logging{logger: logger.WithComponent("renderer")}
}

func (l *Logging) OnComponentRender(e RenderEvent) {
	fields := []interface{}{"type", e.QuestionType, "element", e.Element}
	if e.QuestionIndex != nil {
		fields = append(fields, "question_index", *e.QuestionIndex)
	}
	l.logger.Debug(context.Background(), "Rendering question", fields...)
}

func (l *Logging) OnFallback(e FallbackEvent) {
	fields := []interface{}{"type", e.QuestionType, "fallback", e.Fallback, "reason", e.Reason}
	if e.QuestionIndex != nil {
		fields = append(fields, "question_index", *e.QuestionIndex)
	}
	l.logger.Info(context.Background(), "Using fallback element", fields...)
}

func (l *Logging) OnRegister(e RegisterEvent) {
	l.logger.Debug(context.Background(), "Registry changed",
		"type", e.QuestionType,
		"element", e.Element,
		"event", string(e.Event),
	)
}
