// Package observer defines the hooks the registry and renderer call while
// resolving questions. Hooks are side-effect only: nothing an observer does
// can change which element renders a question.
package observer

import (
	"fmt"

	"github.com/conneroisu/bleak/internal/types"
)

// RenderEvent is emitted when a question resolves to a registered element.
type RenderEvent struct {
	QuestionType  string
	Element       string
	QuestionIndex *int
}

// FallbackEvent is emitted when a question resolves to the fallback element.
type FallbackEvent struct {
	QuestionType  string
	Fallback      string
	Reason        string
	QuestionIndex *int
}

// RegisterEvent is emitted when the registry changes.
type RegisterEvent struct {
	QuestionType string
	Element      string
	Event        types.EventType
}

// Observer receives renderer and registry events.
type Observer interface {
	OnComponentRender(RenderEvent)
	OnFallback(FallbackEvent)
	OnRegister(RegisterEvent)
}

// Nop implements Observer with no-op methods. Embed it to implement only the
// hooks you care about.
type Nop struct{}

func (Nop) OnComponentRender(RenderEvent) {}
func (Nop) OnFallback(FallbackEvent)      {}
func (Nop) OnRegister(RegisterEvent)      {}

// Funcs adapts optional callbacks into an Observer. Nil fields are skipped.
type Funcs struct {
	ComponentRender func(RenderEvent)
	Fallback        func(FallbackEvent)
	Register        func(RegisterEvent)
}

func (f Funcs) OnComponentRender(e RenderEvent) {
	if f.ComponentRender != nil {
		f.ComponentRender(e)
	}
}

func (f Funcs) OnFallback(e FallbackEvent) {
	if f.Fallback != nil {
		f.Fallback(e)
	}
}

func (f Funcs) OnRegister(e RegisterEvent) {
	if f.Register != nil {
		f.Register(e)
	}
}

// Multi fans every event out to each observer in order.
type Multi []Observer

func (m Multi) OnComponentRender(e RenderEvent) {
	for _, o := range m {
		o.OnComponentRender(e)
	}
}

func (m Multi) OnFallback(e FallbackEvent) {
	for _, o := range m {
		o.OnFallback(e)
	}
}

func (m Multi) OnRegister(e RegisterEvent) {
	for _, o := range m {
		o.OnRegister(e)
	}
}

// PanicHandler receives the recovered value from a failing observer.
type PanicHandler func(hook string, err error)

// Safe wraps an observer so a panicking hook is recovered and handed to
// onPanic instead of unwinding into the caller. A nil observer yields Nop.
func Safe(o Observer, onPanic PanicHandler) Observer {
	if o == nil {
		return Nop{}
	}
	if s, ok := o.(safe); ok {
		return s
	}
	return safe{inner: o, onPanic: onPanic}
}

type safe struct {
	inner   Observer
	onPanic PanicHandler
}

func (s safe) OnComponentRender(e RenderEvent) {
	defer s.guard("OnComponentRender")
	s.inner.OnComponentRender(e)
}

func (s safe) OnFallback(e FallbackEvent) {
	defer s.guard("OnFallback")
	s.inner.OnFallback(e)
}

func (s safe) OnRegister(e RegisterEvent) {
	defer s.guard("OnRegister")
	s.inner.OnRegister(e)
}

func (s safe) guard(hook string) {
	r := recover()
	if r == nil || s.onPanic == nil {
		return
	}
	err, ok := r.(error)
	if !ok {
		err = fmt.Errorf("%v", r)
	}
	// A failing panic handler must not escape either.
	defer func() { _ = recover() }()
	s.onPanic(hook, err)
}
