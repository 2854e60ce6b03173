// Package types provides the value types shared by the registry, the renderer,
// and the elements. Its only internal dependency is internal/errors, so every
// other layer can import it without cycles.
package types

import (
	"sort"
	"strings"

	"github.com/a-h/templ"

	"github.com/conneroisu/bleak/internal/errors"
)

// Question describes one unit of user-facing input. Questions are immutable
// value objects: the renderer reads them and never writes back.
type Question struct {
	// Type selects the element that renders the question (e.g. "text", "radio").
	// The set of types is open and extended through the registry.
	Type string `json:"type" yaml:"type"`
	// Question is the prompt shown to the user
	Question string `json:"question" yaml:"question"`
	// Options lists the choices for choice-style types, in display order.
	// Duplicate labels are legal and preserved.
	Options []string `json:"options,omitempty" yaml:"options,omitempty"`
}

// Validate checks the invariants a host must uphold before rendering.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Type) == "" {
		return errors.ErrEmptyQuestionType()
	}
	return nil
}

// ChangeFunc receives the full new value whenever the user edits an input.
type ChangeFunc func(value string)

// ElementProps is the input every element receives from the renderer.
type ElementProps struct {
	// QuestionType is the declared type of the question being rendered
	QuestionType string
	// Question is the display text
	Question string
	// Value is the current answer held by the caller
	Value string
	// OnChange reports edits upward; may be nil for static renders
	OnChange ChangeFunc
	// Options are the resolved options, nil when the type takes none
	Options []string
	// QuestionIndex is the position in the flow, used for correlation only
	QuestionIndex *int
	// Attributes carries extra HTML attributes. Only keys accepted by
	// AllowedAttribute reach the rendered output.
	Attributes map[string]string
}

// Index returns the question index and whether one was supplied.
func (p ElementProps) Index() (int, bool) {
	if p.QuestionIndex == nil {
		return 0, false
	}
	return *p.QuestionIndex, true
}

// AllowedAttribute reports whether an extension attribute key may be rendered.
func AllowedAttribute(key string) bool {
	switch key {
	case "class", "placeholder":
		return true
	}
	return (strings.HasPrefix(key, "data-") || strings.HasPrefix(key, "aria-")) &&
		len(key) > len("data-")
}

// SafeAttributes returns the allowed extension attributes as templ attributes,
// sorted by key for stable output.
func (p ElementProps) SafeAttributes() []templ.KeyValue[string, string] {
	keys := make([]string, 0, len(p.Attributes))
	for k := range p.Attributes {
		if AllowedAttribute(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	attrs := make([]templ.KeyValue[string, string], 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, templ.KV(k, p.Attributes[k]))
	}
	return attrs
}

// Element renders one kind of question. Implementations must be safe for
// concurrent use; all per-render state arrives through ElementProps.
type Element interface {
	// Name identifies the element in logs and fallback events
	Name() string
	// Render builds the templ component for a single question
	Render(props ElementProps) templ.Component
}

type elementFunc struct {
	name string
	fn   func(ElementProps) templ.Component
}

func (e elementFunc) Name() string                              { return e.name }
func (e elementFunc) Render(props ElementProps) templ.Component { return e.fn(props) }

// NewElement adapts a render function into an Element.
func NewElement(name string, fn func(ElementProps) templ.Component) Element {
	return elementFunc{name: name, fn: fn}
}

// EventType represents the type of registry change event.
type EventType string

const (
	EventTypeAdded   EventType = "added"
	EventTypeUpdated EventType = "updated"
	EventTypeRemoved EventType = "removed"
)
