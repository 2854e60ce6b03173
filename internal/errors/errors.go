// Package errors provides the structured error types shared by the renderer,
// the configuration loader, and the hosting commands.
//
// Renderer failures are always configuration errors: a missing fallback
// element or a missing default-options policy. Input problems on the host
// side (empty question types, unknown answer indexes) are validation errors.
package errors

import (
	"fmt"
	"sort"
	"sync"
)

// Severity ranks findings reported while checking a configuration.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns the string representation of the severity
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Finding is a single problem discovered while checking a question flow
// against a renderer configuration.
type Finding struct {
	Index        int
	QuestionType string
	Message      string
	Severity     Severity
}

// Error implements the error interface
func (f Finding) Error() string {
	return fmt.Sprintf("question %d (%s): %s: %s", f.Index, f.QuestionType, f.Severity, f.Message)
}

// Collector gathers findings from concurrent checks.
type Collector struct {
	findings []Finding
	mutex    sync.RWMutex
}

// NewCollector creates a new finding collector
func NewCollector() *Collector {
	return &Collector{findings: make([]Finding, 0)}
}

// Add records a finding
func (c *Collector) Add(f Finding) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.findings = append(c.findings, f)
}

// Findings returns a copy of all findings ordered by question index.
func (c *Collector) Findings() []Finding {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	result := make([]Finding, len(c.findings))
	copy(result, c.findings)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Index < result[j].Index
	})
	return result
}

// HasErrors reports whether any finding has error severity.
func (c *Collector) HasErrors() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	for _, f := range c.findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Count returns the number of findings with the given severity.
func (c *Collector) Count(severity Severity) int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	n := 0
	for _, f := range c.findings {
		if f.Severity == severity {
			n++
		}
	}
	return n
}
