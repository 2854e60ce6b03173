package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/bleak/internal/config"
	"github.com/conneroisu/bleak/internal/di"
	"github.com/conneroisu/bleak/internal/testutils"
)

func newTestContainer(t *testing.T, cfg *config.Config, flowYAML string) *di.ServiceContainer {
	return testutils.NewContainer(t, cfg, flowYAML)
}

func newTestServer(t *testing.T, c *di.ServiceContainer) (*ChatServer, *httptest.Server) {
	t.Helper()
	s, err := New(c)
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		_ = s.Shutdown(context.Background())
		ts.Close()
	})
	return s, ts
}

func postRender(t *testing.T, ts *httptest.Server, body string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/render", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func TestNew_RequiresInitializedContainer(t *testing.T) {
	_, err := New(di.NewServiceContainer(config.Default()))
	assert.Error(t, err)
}

func TestHandleRender(t *testing.T) {
	_, ts := newTestServer(t, newTestContainer(t, config.Default(), ""))

	tests := []struct {
		name       string
		body       string
		wantStatus int
		contains   string
	}{
		{
			name:       "registered type",
			body:       `{"question":{"type":"text","question":"Name?"},"value":"Ada","index":0}`,
			wantStatus: http.StatusOK,
			contains:   `value="Ada"`,
		},
		{
			name:       "unknown type falls back",
			body:       `{"question":{"type":"rating","question":"Stars?"}}`,
			wantStatus: http.StatusOK,
			contains:   "Rating questions are shown as text input.",
		},
		{
			name:       "default options applied",
			body:       `{"question":{"type":"yes_no","question":"Ready?"}}`,
			wantStatus: http.StatusOK,
			contains:   `value="Yes"`,
		},
		{
			name:       "empty type",
			body:       `{"question":{"type":"","question":"?"}}`,
			wantStatus: http.StatusBadRequest,
			contains:   "ERR_EMPTY_QUESTION_TYPE",
		},
		{
			name:       "malformed body",
			body:       `{"question":`,
			wantStatus: http.StatusBadRequest,
			contains:   "ERR_DECODE_FAILED",
		},
		{
			name:       "unknown field",
			body:       `{"question":{"type":"text"},"extra":1}`,
			wantStatus: http.StatusBadRequest,
			contains:   "ERR_DECODE_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := postRender(t, ts, tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Contains(t, body, tt.contains)
		})
	}
}

func TestHandleRender_ConfigurationErrors(t *testing.T) {
	t.Run("no fallback", func(t *testing.T) {
		cfg := config.Default()
		cfg.Renderer.Fallback = config.FallbackNone
		_, ts := newTestServer(t, newTestContainer(t, cfg, ""))

		resp, body := postRender(t, ts, `{"question":{"type":"rating","question":"Stars?"}}`)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Contains(t, body, "ERR_NO_FALLBACK")
	})

	t.Run("no default options", func(t *testing.T) {
		cfg := config.Default()
		cfg.Renderer.DefaultOptions = map[string][]string{}
		_, ts := newTestServer(t, newTestContainer(t, cfg, ""))

		resp, body := postRender(t, ts, `{"question":{"type":"radio","question":"Pick"}}`)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Contains(t, body, "ERR_NO_DEFAULT_OPTIONS")
	})
}

func TestHandleTypes(t *testing.T) {
	_, ts := newTestServer(t, newTestContainer(t, config.Default(), ""))

	resp, err := http.Get(ts.URL + "/api/types")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got TypesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "FallbackElement", got.Fallback)
	require.Len(t, got.Types, 6)

	byType := make(map[string]TypeInfo)
	for _, info := range got.Types {
		byType[info.Type] = info
	}
	assert.Equal(t, "TextElement", byType["text"].Element)
	assert.False(t, byType["text"].TakesOptions)
	assert.True(t, byType["radio"].TakesOptions)
}

func TestHandleIndex(t *testing.T) {
	_, ts := newTestServer(t, newTestContainer(t, config.Default(), "title: <Intake>\nquestions:\n  - type: text\n    question: Hi\n"))

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "<title>&lt;Intake&gt;</title>")
	assert.Contains(t, string(body), `new WebSocket`)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	resp, err = http.Get(ts.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	_, ts := newTestServer(t, newTestContainer(t, config.Default(), ""))

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	var health map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.Equal(t, "healthy", health["status"])
	assert.EqualValues(t, 6, health["types"])

	// One fallback render so the counter has a sample.
	r, _ := postRender(t, ts, `{"question":{"type":"rating","question":"Stars?"}}`)
	require.Equal(t, http.StatusOK, r.StatusCode)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `bleak_fallbacks_total{type="rating"} 1`)
	assert.Contains(t, string(body), "bleak_registrations_total")
}

func TestShutdown_Idempotent(t *testing.T) {
	s, _ := newTestServer(t, newTestContainer(t, config.Default(), ""))

	assert.NoError(t, s.Shutdown(context.Background()))
	assert.NoError(t, s.Shutdown(context.Background()))
}
