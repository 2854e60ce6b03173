// Package renderer resolves questions to elements and renders them.
//
// Resolution is total once a fallback element is configured: a question whose
// type has a registered element renders with it, any other question renders
// with the fallback. The only failures are configuration errors (no fallback,
// or a type that needs options with no default-options policy) and they are
// returned synchronously and never retried.
//
// A Renderer holds an immutable snapshot of its configuration and no other
// state, so one instance may serve any number of goroutines.
package renderer

import (
	"bytes"
	"context"
	"fmt"

	"github.com/a-h/templ"

	"github.com/conneroisu/bleak/internal/errors"
	"github.com/conneroisu/bleak/internal/observer"
	"github.com/conneroisu/bleak/internal/types"
)

// Config is the renderer configuration. It is copied by New and never
// mutated afterwards.
type Config struct {
	// Components maps question types to elements
	Components map[string]types.Element
	// ShouldHaveOptions reports whether a type expects options. Nil means no
	// type takes options.
	ShouldHaveOptions func(questionType string) bool
	// GetDefaultOptions supplies options for a type that expects them but
	// received none
	GetDefaultOptions func(questionType string) []string
	// Fallback renders questions whose type is not in Components
	Fallback types.Element
	// Observer receives resolution events. Nil means no observer.
	Observer observer.Observer
	// OnObserverPanic is told about observer hooks that panicked
	OnObserverPanic observer.PanicHandler
}

// Renderer resolves and renders questions against a fixed configuration
type Renderer struct {
	components        map[string]types.Element
	shouldHaveOptions func(string) bool
	getDefaultOptions func(string) []string
	fallback          types.Element
	observer          observer.Observer
}

// New creates a renderer from a snapshot of cfg.
func New(cfg Config) *Renderer {
	components := make(map[string]types.Element, len(cfg.Components))
	for name, element := range cfg.Components {
		if element != nil {
			components[name] = element
		}
	}

	return &Renderer{
		components:        components,
		shouldHaveOptions: cfg.ShouldHaveOptions,
		getDefaultOptions: cfg.GetDefaultOptions,
		fallback:          cfg.Fallback,
		observer:          observer.Safe(cfg.Observer, cfg.OnObserverPanic),
	}
}

// Resolve picks the element that renders q.
func (r *Renderer) Resolve(q types.Question) (types.Element, error) {
	return r.resolve(q, nil)
}

func (r *Renderer) resolve(q types.Question, index *int) (types.Element, error) {
	if element, ok := r.components[q.Type]; ok {
		r.observer.OnComponentRender(observer.RenderEvent{
			QuestionType:  q.Type,
			Element:       element.Name(),
			QuestionIndex: index,
		})
		return element, nil
	}

	if r.fallback == nil {
		return nil, errors.ErrNoFallback(q.Type)
	}

	r.observer.OnFallback(observer.FallbackEvent{
		QuestionType:  q.Type,
		Fallback:      r.fallback.Name(),
		Reason:        fmt.Sprintf("no registered component for type %s", q.Type),
		QuestionIndex: index,
	})
	return r.fallback, nil
}

// ResolveOptions returns the options an element should display for q, or nil
// when the question's type takes no options. Supplied options are returned
// as given, including order and duplicates. A type that takes options never
// resolves to an empty list.
func (r *Renderer) ResolveOptions(q types.Question) ([]string, error) {
	if r.shouldHaveOptions == nil || !r.shouldHaveOptions(q.Type) {
		return nil, nil
	}
	if len(q.Options) > 0 {
		return q.Options, nil
	}
	if r.getDefaultOptions == nil {
		return nil, errors.ErrNoDefaultOptions(q.Type)
	}
	defaults := r.getDefaultOptions(q.Type)
	if len(defaults) == 0 {
		return nil, errors.ErrNoDefaultOptions(q.Type)
	}
	return defaults, nil
}

// Render resolves q and instantiates its element with the caller's value and
// change callback. index is optional and only used for correlation.
func (r *Renderer) Render(q types.Question, value string, onChange types.ChangeFunc, index *int) (templ.Component, error) {
	return r.RenderWith(q, RenderOptions{Value: value, OnChange: onChange, QuestionIndex: index})
}

// RenderOptions carries the per-call inputs of RenderWith.
type RenderOptions struct {
	Value         string
	OnChange      types.ChangeFunc
	QuestionIndex *int
	Attributes    map[string]string
}

// RenderWith is Render with extension attributes.
func (r *Renderer) RenderWith(q types.Question, opts RenderOptions) (templ.Component, error) {
	element, err := r.resolve(q, opts.QuestionIndex)
	if err != nil {
		return nil, err
	}

	options, err := r.ResolveOptions(q)
	if err != nil {
		return nil, err
	}

	return element.Render(types.ElementProps{
		QuestionType:  q.Type,
		Question:      q.Question,
		Value:         opts.Value,
		OnChange:      opts.OnChange,
		Options:       options,
		QuestionIndex: opts.QuestionIndex,
		Attributes:    opts.Attributes,
	}), nil
}

// RenderHTML renders q to an HTML string.
func (r *Renderer) RenderHTML(ctx context.Context, q types.Question, opts RenderOptions) (string, error) {
	component, err := r.RenderWith(q, opts)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := component.Render(ctx, &buf); err != nil {
		return "", errors.NewInternalError(errors.ErrCodeRenderFailed, "rendering question failed", err).
			WithQuestionType(q.Type)
	}
	return buf.String(), nil
}

// HasComponent reports whether questionType has a registered element.
func (r *Renderer) HasComponent(questionType string) bool {
	_, ok := r.components[questionType]
	return ok
}

// FallbackName returns the fallback element's name, or "" when none is set.
func (r *Renderer) FallbackName() string {
	if r.fallback == nil {
		return ""
	}
	return r.fallback.Name()
}

// ShouldHaveOptions reports whether the configuration expects options for
// questionType.
func (r *Renderer) ShouldHaveOptions(questionType string) bool {
	return r.shouldHaveOptions != nil && r.shouldHaveOptions(questionType)
}

// HasDefaultOptions reports whether a default-options policy is configured.
func (r *Renderer) HasDefaultOptions() bool {
	return r.getDefaultOptions != nil
}
