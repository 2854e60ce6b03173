// Package questions loads the ordered question flows the chat server walks
// a user through.
package questions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/conneroisu/bleak/internal/errors"
	"github.com/conneroisu/bleak/internal/types"
)

// Format identifies a flow encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Flow is an ordered, immutable list of questions.
type Flow struct {
	Title     string           `json:"title,omitempty" yaml:"title,omitempty"`
	Questions []types.Question `json:"questions" yaml:"questions"`
}

// Len returns the number of questions.
func (f *Flow) Len() int {
	return len(f.Questions)
}

// At returns the question at index.
func (f *Flow) At(index int) (types.Question, error) {
	if index < 0 || index >= len(f.Questions) {
		return types.Question{}, errors.ErrInvalidIndex(index)
	}
	return f.Questions[index], nil
}

// Validate checks every question in the flow.
func (f *Flow) Validate() error {
	if len(f.Questions) == 0 {
		return errors.NewValidationError(errors.ErrCodeDecodeFailed, "flow has no questions")
	}
	for i, q := range f.Questions {
		if err := q.Validate(); err != nil {
			return errors.WrapValidation(err, errors.ErrCodeEmptyQuestionType, fmt.Sprintf("question %d", i))
		}
	}
	return nil
}

// FormatFromPath picks a format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", errors.NewValidationError(errors.ErrCodeDecodeFailed, "unsupported flow file extension: "+path)
	}
}

// Load reads and validates a flow file.
func Load(path string) (*Flow, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapIO(err, errors.ErrCodeFileNotFound, "flow file not found: "+path)
		}
		return nil, errors.WrapIO(err, errors.ErrCodeDecodeFailed, "reading flow file: "+path)
	}

	return Parse(data, format)
}

// Parse decodes and validates a flow. A bare list of questions is accepted
// as well as a document with a questions key.
func Parse(data []byte, format Format) (*Flow, error) {
	var flow Flow
	trimmed := bytes.TrimSpace(data)

	switch format {
	case FormatJSON:
		if bytes.HasPrefix(trimmed, []byte("[")) {
			if err := json.Unmarshal(trimmed, &flow.Questions); err != nil {
				return nil, errors.WrapValidation(err, errors.ErrCodeDecodeFailed, "decoding JSON flow")
			}
		} else if err := json.Unmarshal(trimmed, &flow); err != nil {
			return nil, errors.WrapValidation(err, errors.ErrCodeDecodeFailed, "decoding JSON flow")
		}
	case FormatYAML:
		if bytes.HasPrefix(trimmed, []byte("-")) {
			if err := yaml.Unmarshal(trimmed, &flow.Questions); err != nil {
				return nil, errors.WrapValidation(err, errors.ErrCodeDecodeFailed, "decoding YAML flow")
			}
		} else if err := yaml.Unmarshal(trimmed, &flow); err != nil {
			return nil, errors.WrapValidation(err, errors.ErrCodeDecodeFailed, "decoding YAML flow")
		}
	default:
		return nil, errors.NewValidationError(errors.ErrCodeDecodeFailed, fmt.Sprintf("unknown flow format %q", format))
	}

	if err := flow.Validate(); err != nil {
		return nil, err
	}
	return &flow, nil
}

// Default returns the flow served when no file is configured.
func Default() *Flow {
	return &Flow{
		Title: "Project intake",
		Questions: []types.Question{
			{Type: "text", Question: "What should we call your project?"},
			{Type: "radio", Question: "Who is it for?", Options: []string{"Just me", "My team", "Customers"}},
			{Type: "multi_select", Question: "Which platforms matter?", Options: []string{"Web", "iOS", "Android", "Desktop"}},
			{Type: "yes_no", Question: "Do you already have a design?"},
			{Type: "textarea", Question: "Anything else we should know?"},
		},
	}
}
