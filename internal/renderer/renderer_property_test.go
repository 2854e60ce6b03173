//go:build property
// +build property

package renderer

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/conneroisu/bleak/internal/observer"
	"github.com/conneroisu/bleak/internal/types"
)

// TestResolutionProperties checks the resolution contract over generated
// registries and questions.
func TestResolutionProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	registered := []string{"text", "radio", "select"}
	newRenderer := func(fallbacks *[]observer.FallbackEvent) (*Renderer, map[string]types.Element) {
		components := make(map[string]types.Element, len(registered))
		for _, name := range registered {
			components[name] = &recordingElement{name: name}
		}
		r := New(Config{
			Components:        components,
			ShouldHaveOptions: func(t string) bool { return t == "radio" || t == "select" },
			GetDefaultOptions: func(t string) []string { return []string{"default-" + t} },
			Fallback:          &recordingElement{name: "Fallback"},
			Observer: observer.Funcs{
				Fallback: func(e observer.FallbackEvent) { *fallbacks = append(*fallbacks, e) },
			},
		})
		return r, components
	}

	// Property: a registered type resolves to its own element and never falls back
	properties.Property("registered types resolve directly", prop.ForAll(
		func(questionType string) bool {
			var fallbacks []observer.FallbackEvent
			r, components := newRenderer(&fallbacks)
			element, err := r.Resolve(types.Question{Type: questionType})
			return err == nil && element == components[questionType] && len(fallbacks) == 0
		},
		gen.OneConstOf("text", "radio", "select"),
	))

	// Property: an unregistered type resolves to the fallback with one event
	properties.Property("unregistered types fall back once", prop.ForAll(
		func(questionType string) bool {
			for _, name := range registered {
				if name == questionType {
					return true
				}
			}
			var fallbacks []observer.FallbackEvent
			r, _ := newRenderer(&fallbacks)
			element, err := r.Resolve(types.Question{Type: questionType})
			return err == nil &&
				element.Name() == "Fallback" &&
				len(fallbacks) == 1 &&
				fallbacks[0].QuestionType == questionType
		},
		gen.AlphaString(),
	))

	// Property: types without options ignore supplied options entirely
	properties.Property("options not applicable", prop.ForAll(
		func(options []string) bool {
			var fallbacks []observer.FallbackEvent
			r, _ := newRenderer(&fallbacks)
			got, err := r.ResolveOptions(types.Question{Type: "text", Options: options})
			return err == nil && got == nil
		},
		gen.SliceOf(gen.AlphaString()),
	))

	// Property: supplied options come back unchanged in order and length
	properties.Property("supplied options preserved", prop.ForAll(
		func(options []string) bool {
			var fallbacks []observer.FallbackEvent
			r, _ := newRenderer(&fallbacks)
			got, err := r.ResolveOptions(types.Question{Type: "radio", Options: options})
			if err != nil {
				return false
			}
			if len(options) == 0 {
				return reflect.DeepEqual(got, []string{"default-radio"})
			}
			return reflect.DeepEqual(got, options)
		},
		gen.SliceOf(gen.AlphaString()),
	))

	// Property: resolution is idempotent
	properties.Property("resolution idempotent", prop.ForAll(
		func(questionType string, options []string) bool {
			var fallbacks []observer.FallbackEvent
			r, _ := newRenderer(&fallbacks)
			q := types.Question{Type: questionType, Options: options}

			e1, err1 := r.Resolve(q)
			e2, err2 := r.Resolve(q)
			o1, oerr1 := r.ResolveOptions(q)
			o2, oerr2 := r.ResolveOptions(q)
			return e1 == e2 && err1 == nil && err2 == nil &&
				reflect.DeepEqual(o1, o2) && oerr1 == nil && oerr2 == nil
		},
		gen.OneConstOf("text", "radio", "select", "unknown"),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
