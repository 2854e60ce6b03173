package elements

import (
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/conneroisu/bleak/internal/types"
)

// htmlWriter remembers the first write error so element bodies can be
// written without checking every call.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *htmlWriter) attr(name, value string) {
	h.raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

func (h *htmlWriter) flag(name string, on bool) {
	if on {
		h.raw(" " + name)
	}
}

// open writes the wrapper element shared by every question.
func (h *htmlWriter) open(tag, kind string, props types.ElementProps) {
	class := "bleak-element bleak-" + kind
	if extra := extraClass(props); extra != "" {
		class += " " + extra
	}
	h.raw("<" + tag)
	h.attr("class", class)
	h.attr("data-question-type", props.QuestionType)
	if i, ok := props.Index(); ok {
		h.attr("data-question-index", strconv.Itoa(i))
	}
	for _, kv := range props.SafeAttributes() {
		switch kv.Key {
		case "class", "placeholder", "data-question-type", "data-question-index":
			continue
		}
		h.attr(kv.Key, kv.Value)
	}
	h.raw(">")
}

// extraClass returns the caller's class attribute, if allowed.
func extraClass(props types.ElementProps) string {
	for _, kv := range props.SafeAttributes() {
		if kv.Key == "class" {
			return kv.Value
		}
	}
	return ""
}

func placeholder(props types.ElementProps) string {
	if p, ok := props.Attributes["placeholder"]; ok {
		return p
	}
	return "Type your answer..."
}

// inputID builds a stable id for the question's main input.
func inputID(props types.ElementProps) string {
	if i, ok := props.Index(); ok {
		return fmt.Sprintf("bleak-q%d", i)
	}
	return "bleak-q"
}

func optionID(props types.ElementProps, n int) string {
	return fmt.Sprintf("%s-opt%d", inputID(props), n)
}

func inputName(props types.ElementProps) string {
	if i, ok := props.Index(); ok {
		return fmt.Sprintf("answer-%d", i)
	}
	return "answer"
}
