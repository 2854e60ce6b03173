// Package registry maps question type names to the elements that render them.
//
// The registry is the mutable side of renderer configuration: hosts register
// elements at start-up (or on config reload) and the renderer takes an
// immutable snapshot through GetAll. Registering a type twice replaces the
// earlier element and never fails.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/conneroisu/bleak/internal/errors"
	"github.com/conneroisu/bleak/internal/observer"
	"github.com/conneroisu/bleak/internal/types"
)

// ComponentRegistry manages the type name to element mapping
type ComponentRegistry struct {
	components map[string]types.Element
	mutex      sync.RWMutex
	watchers   []chan ComponentEvent
	observer   observer.Observer
}

// ComponentEvent represents a change in the component registry
type ComponentEvent struct {
	Type         types.EventType
	QuestionType string
	Element      types.Element
	Timestamp    time.Time
}

// Option configures a ComponentRegistry.
type Option func(*ComponentRegistry)

// WithObserver reports registrations and removals to o.
func WithObserver(o observer.Observer) Option {
	return func(r *ComponentRegistry) {
		r.observer = observer.Safe(o, nil)
	}
}

// NewComponentRegistry creates a new component registry
func NewComponentRegistry(opts ...Option) *ComponentRegistry {
	r := &ComponentRegistry{
		components: make(map[string]types.Element),
		watchers:   make([]chan ComponentEvent, 0),
		observer:   observer.Nop{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds or replaces the element for a question type. The last
// registration for a type wins.
func (r *ComponentRegistry) Register(questionType string, element types.Element) error {
	if questionType == "" || element == nil {
		return errors.ErrInvalidElement(questionType)
	}

	r.mutex.Lock()
	eventType := types.EventTypeAdded
	if _, exists := r.components[questionType]; exists {
		eventType = types.EventTypeUpdated
	}
	r.components[questionType] = element
	r.notify(ComponentEvent{
		Type:         eventType,
		QuestionType: questionType,
		Element:      element,
		Timestamp:    time.Now(),
	})
	r.mutex.Unlock()

	r.observer.OnRegister(observer.RegisterEvent{
		QuestionType: questionType,
		Element:      element.Name(),
		Event:        eventType,
	})
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *ComponentRegistry) MustRegister(questionType string, element types.Element) {
	if err := r.Register(questionType, element); err != nil {
		panic(err)
	}
}

// Get retrieves the element registered for a question type
func (r *ComponentRegistry) Get(questionType string) (types.Element, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	element, exists := r.components[questionType]
	return element, exists
}

// GetAll returns a copy of the registry contents
func (r *ComponentRegistry) GetAll() map[string]types.Element {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make(map[string]types.Element, len(r.components))
	for name, element := range r.components {
		result[name] = element
	}
	return result
}

// Types returns the registered question types in sorted order
func (r *ComponentRegistry) Types() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Remove removes a question type from the registry
func (r *ComponentRegistry) Remove(questionType string) {
	r.mutex.Lock()
	element, exists := r.components[questionType]
	if !exists {
		r.mutex.Unlock()
		return
	}
	delete(r.components, questionType)
	r.notify(ComponentEvent{
		Type:         types.EventTypeRemoved,
		QuestionType: questionType,
		Element:      element,
		Timestamp:    time.Now(),
	})
	r.mutex.Unlock()

	r.observer.OnRegister(observer.RegisterEvent{
		QuestionType: questionType,
		Element:      element.Name(),
		Event:        types.EventTypeRemoved,
	})
}

// notify must be called with the write lock held
func (r *ComponentRegistry) notify(event ComponentEvent) {
	for _, watcher := range r.watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}
}

// Watch returns a channel that receives registry events
func (r *ComponentRegistry) Watch() <-chan ComponentEvent {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ch := make(chan ComponentEvent, 100)
	r.watchers = append(r.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it
func (r *ComponentRegistry) UnWatch(ch <-chan ComponentEvent) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, watcher := range r.watchers {
		if watcher == ch {
			close(watcher)
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			break
		}
	}
}

// Count returns the number of registered question types
func (r *ComponentRegistry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.components)
}
