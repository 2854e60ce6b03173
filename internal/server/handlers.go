package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/conneroisu/bleak/internal/errors"
	"github.com/conneroisu/bleak/internal/renderer"
	"github.com/conneroisu/bleak/internal/types"
	"github.com/conneroisu/bleak/internal/version"
)

// maxRenderBody caps POST /api/render request bodies.
const maxRenderBody = 64 << 10

// RenderRequest is the body of POST /api/render
type RenderRequest struct {
	Question   types.Question    `json:"question"`
	Value      string            `json:"value"`
	Index      *int              `json:"index,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// TypeInfo describes one registered question type
type TypeInfo struct {
	Type         string `json:"type"`
	Element      string `json:"element"`
	TakesOptions bool   `json:"takes_options"`
}

// TypesResponse is the body of GET /api/types
type TypesResponse struct {
	Types    []TypeInfo `json:"types"`
	Fallback string     `json:"fallback,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *ChatServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	title := "bleak"
	if flow, err := s.container.GetFlow(); err == nil && flow.Title != "" {
		title = flow.Title
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := chatPage(title).Render(r.Context(), w); err != nil {
		s.logger.Error(r.Context(), err, "Failed to write index response")
	}
}

func (s *ChatServer) handleTypes(w http.ResponseWriter, r *http.Request) {
	reg, err := s.container.GetRegistry()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rend, err := s.container.GetRenderer()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := TypesResponse{Fallback: rend.FallbackName()}
	for _, questionType := range reg.Types() {
		element, _ := reg.Get(questionType)
		resp.Types = append(resp.Types, TypeInfo{
			Type:         questionType,
			Element:      element.Name(),
			TakesOptions: rend.ShouldHaveOptions(questionType),
		})
	}

	s.writeJSON(w, r, http.StatusOK, resp)
}

func (s *ChatServer) handleRender(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRenderBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, errors.WrapValidation(err, errors.ErrCodeDecodeFailed, "invalid render request"))
		return
	}

	if err := req.Question.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	rend, err := s.container.GetRenderer()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	html, err := rend.RenderHTML(r.Context(), req.Question, renderer.RenderOptions{
		Value:         req.Value,
		QuestionIndex: req.Index,
		Attributes:    req.Attributes,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(html)); err != nil {
		s.logger.Error(r.Context(), err, "Failed to write render response")
	}
}

// handleHealth returns the server health status for health checks
func (s *ChatServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	registered := 0
	if reg, err := s.container.GetRegistry(); err == nil {
		registered = reg.Count()
	}

	s.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   version.GetShortVersion(),
		"types":     registered,
		"sessions":  s.SessionCount(),
	})
}

// statusFor maps validation errors to 400 and everything else to 500.
func statusFor(err error) int {
	switch {
	case errors.IsValidationError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *ChatServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponse{Error: err.Error()}
	if be, ok := errors.AsBleakError(err); ok {
		resp.Code = be.Code
		resp.Error = be.Message
	}

	s.errors.Handle(r.Context(), err)
	s.writeJSON(w, r, statusFor(err), resp)
}

func (s *ChatServer) writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(r.Context(), err, "Failed to encode response")
	}
}
