// Package elements provides the built-in question elements.
//
// Every element renders a wrapper carrying data-question-type and, when an
// index is supplied, data-question-index. Inputs are named "answer-<index>"
// so the chat widget can route edits back to the session's change callback.
package elements

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/a-h/templ"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/conneroisu/bleak/internal/registry"
	"github.com/conneroisu/bleak/internal/types"
)

// Built-in question types.
const (
	TypeText        = "text"
	TypeTextarea    = "textarea"
	TypeRadio       = "radio"
	TypeMultiSelect = "multi_select"
	TypeSelect      = "select"
	TypeYesNo       = "yes_no"
)

var (
	Text        = types.NewElement("TextElement", renderText)
	Textarea    = types.NewElement("TextareaElement", renderTextarea)
	Radio       = types.NewElement("RadioElement", func(p types.ElementProps) templ.Component { return renderChoice(p, "radio", "radio") })
	YesNo       = types.NewElement("YesNoElement", func(p types.ElementProps) templ.Component { return renderChoice(p, "yes-no", "radio") })
	MultiSelect = types.NewElement("MultiSelectElement", func(p types.ElementProps) templ.Component { return renderChoice(p, "multi-select", "checkbox") })
	Select      = types.NewElement("SelectElement", renderSelect)
	Fallback    = types.NewElement("FallbackElement", renderFallback)
)

// Builtins returns the built-in elements keyed by question type.
func Builtins() map[string]types.Element {
	return map[string]types.Element{
		TypeText:        Text,
		TypeTextarea:    Textarea,
		TypeRadio:       Radio,
		TypeMultiSelect: MultiSelect,
		TypeSelect:      Select,
		TypeYesNo:       YesNo,
	}
}

// OptionTypes lists the built-in types that expect options.
func OptionTypes() []string {
	return []string{TypeRadio, TypeMultiSelect, TypeSelect, TypeYesNo}
}

// RegisterDefaults registers every built-in element with reg.
func RegisterDefaults(reg *registry.ComponentRegistry) error {
	for _, name := range []string{TypeText, TypeTextarea, TypeRadio, TypeMultiSelect, TypeSelect, TypeYesNo} {
		if err := reg.Register(name, Builtins()[name]); err != nil {
			return err
		}
	}
	return nil
}

// JoinMultiSelect encodes the selected labels of a multi_select answer as a
// JSON array, so labels may contain any character.
func JoinMultiSelect(labels []string) string {
	if len(labels) == 0 {
		return ""
	}
	data, err := json.Marshal(labels)
	if err != nil {
		return ""
	}
	return string(data)
}

// SplitMultiSelect decodes a multi_select answer. A value that is not a JSON
// array is a single label taken verbatim.
func SplitMultiSelect(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	var labels []string
	if strings.HasPrefix(strings.TrimSpace(value), "[") && json.Unmarshal([]byte(value), &labels) == nil {
		return labels
	}
	return []string{value}
}

func component(fn func(h *htmlWriter)) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		fn(h)
		return h.err
	})
}

func label(h *htmlWriter, props types.ElementProps) {
	h.raw("<label")
	h.attr("for", inputID(props))
	h.raw(">")
	h.text(props.Question)
	h.raw("</label>")
}

func renderText(props types.ElementProps) templ.Component {
	return component(func(h *htmlWriter) {
		h.open("div", "text", props)
		label(h, props)
		h.raw(`<input type="text"`)
		h.attr("id", inputID(props))
		h.attr("name", inputName(props))
		h.attr("value", props.Value)
		h.attr("placeholder", placeholder(props))
		h.raw("/></div>")
	})
}

func renderTextarea(props types.ElementProps) templ.Component {
	return component(func(h *htmlWriter) {
		h.open("div", "textarea", props)
		label(h, props)
		h.raw(`<textarea rows="4"`)
		h.attr("id", inputID(props))
		h.attr("name", inputName(props))
		h.attr("placeholder", placeholder(props))
		h.raw(">")
		h.text(props.Value)
		h.raw("</textarea></div>")
	})
}

// renderChoice renders options as radio buttons or checkboxes. Option ids
// are positional so duplicate labels stay distinct.
func renderChoice(props types.ElementProps, kind, inputType string) templ.Component {
	selected := map[string]bool{props.Value: props.Value != ""}
	if inputType == "checkbox" {
		selected = make(map[string]bool)
		for _, v := range SplitMultiSelect(props.Value) {
			selected[v] = true
		}
	}

	return component(func(h *htmlWriter) {
		h.open("fieldset", kind, props)
		h.raw("<legend>")
		h.text(props.Question)
		h.raw("</legend>")
		for i, option := range props.Options {
			h.raw(`<label class="bleak-option"><input`)
			h.attr("type", inputType)
			h.attr("id", optionID(props, i))
			h.attr("name", inputName(props))
			h.attr("value", option)
			h.flag("checked", selected[option])
			h.raw("/>")
			h.text(option)
			h.raw("</label>")
		}
		h.raw("</fieldset>")
	})
}

func renderSelect(props types.ElementProps) templ.Component {
	return component(func(h *htmlWriter) {
		h.open("div", "select", props)
		label(h, props)
		h.raw("<select")
		h.attr("id", inputID(props))
		h.attr("name", inputName(props))
		h.raw(`><option value="" disabled`)
		h.flag("selected", props.Value == "")
		h.raw(">Choose an option</option>")
		for _, option := range props.Options {
			h.raw("<option")
			h.attr("value", option)
			h.flag("selected", props.Value != "" && option == props.Value)
			h.raw(">")
			h.text(option)
			h.raw("</option>")
		}
		h.raw("</select></div>")
	})
}

// renderFallback keeps unknown question types answerable as free text.
func renderFallback(props types.ElementProps) templ.Component {
	return component(func(h *htmlWriter) {
		h.open("div", "fallback", props)
		h.raw(`<p class="bleak-fallback-notice">`)
		h.text(HumanizeType(props.QuestionType) + " questions are shown as text input.")
		h.raw("</p>")
		label(h, props)
		h.raw(`<input type="text"`)
		h.attr("id", inputID(props))
		h.attr("name", inputName(props))
		h.attr("value", props.Value)
		h.attr("placeholder", placeholder(props))
		h.raw("/></div>")
	})
}

// HumanizeType turns a type name such as "multi_select" into "Multi Select".
func HumanizeType(questionType string) string {
	s := strings.NewReplacer("_", " ", "-", " ").Replace(strings.TrimSpace(questionType))
	if s == "" {
		return "Untyped"
	}
	return cases.Title(language.English).String(s)
}
