// Package session holds the per-chat state the hosting application owns:
// which question is current and the answers given so far. The renderer never
// sees this state; it only receives the ChangeFunc returned by OnChange.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/conneroisu/bleak/internal/errors"
	"github.com/conneroisu/bleak/internal/questions"
	"github.com/conneroisu/bleak/internal/types"
)

// Answer is one recorded answer.
type Answer struct {
	Index     int       `json:"index" yaml:"index"`
	Type      string    `json:"type" yaml:"type"`
	Question  string    `json:"question" yaml:"question"`
	Value     string    `json:"value" yaml:"value"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Session tracks one user's progress through a flow.
type Session struct {
	ID      string
	flow    *questions.Flow
	mu      sync.RWMutex
	current int
	values  map[int]Answer
	now     func() time.Time
}

// New creates a session for flow with a fresh id.
func New(flow *questions.Flow) *Session {
	return &Session{
		ID:     "s_" + uuid.New().String(),
		flow:   flow,
		values: make(map[int]Answer),
		now:    time.Now,
	}
}

// Flow returns the flow the session walks.
func (s *Session) Flow() *questions.Flow {
	return s.flow
}

// Current returns the index of the question being asked.
func (s *Session) Current() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Done reports whether every question has been submitted.
func (s *Session) Done() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current >= s.flow.Len()
}

// Value returns the current answer for index, or "".
func (s *Session) Value(index int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[index].Value
}

// Set records value as the answer to the question at index.
func (s *Session) Set(index int, value string) error {
	q, err := s.flow.At(index)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[index] = Answer{
		Index:     index,
		Type:      q.Type,
		Question:  q.Question,
		Value:     value,
		UpdatedAt: s.now(),
	}
	return nil
}

// OnChange returns the change callback handed to the renderer for the
// question at index. Values for an out-of-range index are dropped.
func (s *Session) OnChange(index int) types.ChangeFunc {
	return func(value string) {
		_ = s.Set(index, value)
	}
}

// Advance moves past the current question and returns the new index.
func (s *Session) Advance() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current >= s.flow.Len() {
		return s.current, errors.ErrInvalidIndex(s.current)
	}
	s.current++
	return s.current, nil
}

// Answers returns the recorded answers in flow order.
func (s *Session) Answers() []Answer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	answers := make([]Answer, 0, len(s.values))
	for i := 0; i < s.flow.Len(); i++ {
		if a, ok := s.values[i]; ok {
			answers = append(answers, a)
		}
	}
	return answers
}
