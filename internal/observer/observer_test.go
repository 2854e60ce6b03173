package observer

import (
	"bytes"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/bleak/internal/logging"
	"github.com/conneroisu/bleak/internal/types"
)

func TestNop(t *testing.T) {
	var o Observer = Nop{}
	assert.NotPanics(t, func() {
		o.OnComponentRender(RenderEvent{})
		o.OnFallback(FallbackEvent{})
		o.OnRegister(RegisterEvent{})
	})
}

func TestFuncs_NilFieldsSkipped(t *testing.T) {
	var fallbacks int
	o := Funcs{Fallback: func(FallbackEvent) { fallbacks++ }}

	o.OnComponentRender(RenderEvent{})
	o.OnRegister(RegisterEvent{})
	o.OnFallback(FallbackEvent{})

	assert.Equal(t, 1, fallbacks)
}

func TestMulti_FansOutInOrder(t *testing.T) {
	var order []string
	m := Multi{
		Funcs{ComponentRender: func(RenderEvent) { order = append(order, "first") }},
		Funcs{ComponentRender: func(RenderEvent) { order = append(order, "second") }},
	}

	m.OnComponentRender(RenderEvent{QuestionType: "text"})

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestSafe_RecoversAndReports(t *testing.T) {
	var reported []string
	o := Safe(Funcs{Register: func(RegisterEvent) { panic("nope") }}, func(hook string, err error) {
		reported = append(reported, hook+":"+err.Error())
	})

	assert.NotPanics(t, func() { o.OnRegister(RegisterEvent{}) })
	assert.Equal(t, []string{"OnRegister:nope"}, reported)
}

func TestSafe_PanickingHandler(t *testing.T) {
	o := Safe(Funcs{Fallback: func(FallbackEvent) { panic("a") }}, func(string, error) { panic("b") })
	assert.NotPanics(t, func() { o.OnFallback(FallbackEvent{}) })
}

func TestSafe_NilAndIdempotent(t *testing.T) {
	assert.Equal(t, Nop{}, Safe(nil, nil))

	once := Safe(Nop{}, nil)
	assert.Equal(t, once, Safe(once, nil))
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	m.OnComponentRender(RenderEvent{QuestionType: "text", Element: "TextElement"})
	m.OnComponentRender(RenderEvent{QuestionType: "text", Element: "TextElement"})
	m.OnFallback(FallbackEvent{QuestionType: "date"})
	m.OnRegister(RegisterEvent{QuestionType: "text", Event: types.EventTypeAdded})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.renders.WithLabelValues("text", "TextElement")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fallbacks.WithLabelValues("date")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.registrations.WithLabelValues("text", "added")))

	_, err = NewMetrics(reg)
	assert.Error(t, err, "registering twice must fail")
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LevelDebug, Output: &buf})
	o := NewLogging(logger)

	index := 4
	o.OnFallback(FallbackEvent{QuestionType: "date", Fallback: "FallbackElement", Reason: "no match", QuestionIndex: &index})
	o.OnComponentRender(RenderEvent{QuestionType: "text", Element: "TextElement"})

	out := buf.String()
	assert.Contains(t, out, "Using fallback element")
	assert.Contains(t, out, "question_index=4")
	assert.Contains(t, out, "component=renderer")
	assert.Contains(t, out, "element=TextElement")
}
