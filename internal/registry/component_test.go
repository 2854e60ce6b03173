package registry

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/bleak/internal/errors"
	"github.com/conneroisu/bleak/internal/observer"
	"github.com/conneroisu/bleak/internal/types"
)

func testElement(name string) types.Element {
	return types.NewElement(name, func(types.ElementProps) templ.Component {
		return templ.NopComponent
	})
}

func TestNewComponentRegistry(t *testing.T) {
	registry := NewComponentRegistry()

	assert.NotNil(t, registry)
	assert.NotNil(t, registry.components)
	assert.Equal(t, 0, registry.Count())
	assert.Empty(t, registry.Types())
}

func TestComponentRegistry_Register(t *testing.T) {
	registry := NewComponentRegistry()
	text := testElement("TextElement")

	require.NoError(t, registry.Register("text", text))

	retrieved, exists := registry.Get("text")
	assert.True(t, exists)
	assert.Equal(t, "TextElement", retrieved.Name())
	assert.Equal(t, 1, registry.Count())

	all := registry.GetAll()
	assert.Len(t, all, 1)
	assert.Contains(t, all, "text")
}

func TestComponentRegistry_RegisterInvalid(t *testing.T) {
	registry := NewComponentRegistry()

	err := registry.Register("", testElement("TextElement"))
	assert.True(t, errors.IsValidationError(err))

	err = registry.Register("text", nil)
	assert.True(t, errors.IsValidationError(err))

	assert.Equal(t, 0, registry.Count())
	assert.Panics(t, func() { registry.MustRegister("", nil) })
}

func TestComponentRegistry_LastRegistrationWins(t *testing.T) {
	registry := NewComponentRegistry()

	require.NoError(t, registry.Register("choice", testElement("First")))
	require.NoError(t, registry.Register("choice", testElement("Second")))

	retrieved, exists := registry.Get("choice")
	require.True(t, exists)
	assert.Equal(t, "Second", retrieved.Name())
	assert.Equal(t, 1, registry.Count())
}

func TestComponentRegistry_Remove(t *testing.T) {
	registry := NewComponentRegistry()
	registry.MustRegister("text", testElement("TextElement"))

	registry.Remove("text")
	registry.Remove("missing")

	_, exists := registry.Get("text")
	assert.False(t, exists)
	assert.Equal(t, 0, registry.Count())
}

func TestComponentRegistry_GetAllIsACopy(t *testing.T) {
	registry := NewComponentRegistry()
	registry.MustRegister("text", testElement("TextElement"))

	all := registry.GetAll()
	delete(all, "text")
	all["radio"] = testElement("RadioElement")

	assert.Equal(t, []string{"text"}, registry.Types())
}

func TestComponentRegistry_TypesSorted(t *testing.T) {
	registry := NewComponentRegistry()
	for _, name := range []string{"select", "radio", "text", "multi_select"} {
		registry.MustRegister(name, testElement(name))
	}

	assert.Equal(t, []string{"multi_select", "radio", "select", "text"}, registry.Types())
}

func TestComponentRegistry_Watch(t *testing.T) {
	registry := NewComponentRegistry()
	events := registry.Watch()

	registry.MustRegister("text", testElement("TextElement"))
	registry.MustRegister("text", testElement("TextareaElement"))
	registry.Remove("text")

	want := []types.EventType{types.EventTypeAdded, types.EventTypeUpdated, types.EventTypeRemoved}
	for _, expected := range want {
		select {
		case event := <-events:
			assert.Equal(t, expected, event.Type)
			assert.Equal(t, "text", event.QuestionType)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %s event", expected)
		}
	}

	registry.UnWatch(events)
	_, open := <-events
	assert.False(t, open)
}

func TestComponentRegistry_Observer(t *testing.T) {
	var got []observer.RegisterEvent
	registry := NewComponentRegistry(WithObserver(observer.Funcs{
		Register: func(e observer.RegisterEvent) { got = append(got, e) },
	}))

	registry.MustRegister("radio", testElement("RadioElement"))
	registry.Remove("radio")

	require.Len(t, got, 2)
	assert.Equal(t, observer.RegisterEvent{QuestionType: "radio", Element: "RadioElement", Event: types.EventTypeAdded}, got[0])
	assert.Equal(t, types.EventTypeRemoved, got[1].Event)
}

func TestComponentRegistry_PanickingObserver(t *testing.T) {
	registry := NewComponentRegistry(WithObserver(observer.Funcs{
		Register: func(observer.RegisterEvent) { panic("observer down") },
	}))

	assert.NotPanics(t, func() {
		registry.MustRegister("text", testElement("TextElement"))
	})
	assert.Equal(t, 1, registry.Count())
}

func TestComponentRegistry_ConcurrentAccess(t *testing.T) {
	registry := NewComponentRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			registry.MustRegister(fmt.Sprintf("type-%d", i%5), testElement(fmt.Sprintf("E%d", i)))
		}(i)
		go func() {
			defer wg.Done()
			_ = registry.GetAll()
			_ = registry.Types()
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, registry.Count())
}

func BenchmarkComponentRegistry_Get(b *testing.B) {
	registry := NewComponentRegistry()
	for i := 0; i < 1000; i++ {
		registry.MustRegister(fmt.Sprintf("type-%d", i), testElement(fmt.Sprintf("E%d", i)))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		registry.Get(fmt.Sprintf("type-%d", i%1000))
	}
}
