// Package testutils holds fixtures shared by the server and command tests.
package testutils

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conneroisu/bleak/internal/config"
	"github.com/conneroisu/bleak/internal/di"
	"github.com/conneroisu/bleak/internal/logging"
)

// TwoQuestionFlow is a flow with one registered type and one unknown type.
const TwoQuestionFlow = `
title: Test
questions:
  - type: text
    question: Name?
  - type: rating
    question: Stars?
`

// Project is a temporary directory holding a config file and a flow file.
type Project struct {
	Dir        string
	ConfigPath string
	FlowPath   string
}

// CreateTempProject writes flowYAML and a config that points at it. extra is
// appended to the config verbatim.
func CreateTempProject(t *testing.T, flowYAML, extra string) Project {
	t.Helper()
	dir := t.TempDir()

	p := Project{
		Dir:        dir,
		ConfigPath: filepath.Join(dir, ".bleak.yml"),
		FlowPath:   WriteFile(t, dir, "flow.yml", flowYAML),
	}
	content := "logging:\n  level: error\nquestions:\n  file: " + p.FlowPath + "\n" + extra
	WriteFile(t, dir, ".bleak.yml", content)
	return p
}

// WriteFile writes content to dir/name and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// WriteFlow writes flowYAML to a temporary file and returns its path.
func WriteFlow(t *testing.T, flowYAML string) string {
	t.Helper()
	return WriteFile(t, t.TempDir(), "flow.yml", flowYAML)
}

// NewContainer initializes a container for cfg with a silent logger. A
// non-empty flowYAML becomes the question file.
func NewContainer(t *testing.T, cfg *config.Config, flowYAML string) *di.ServiceContainer {
	t.Helper()
	if flowYAML != "" {
		cfg.Questions.File = WriteFlow(t, flowYAML)
	}

	c := di.NewServiceContainer(cfg, di.WithLogger(logging.NewNopLogger()))
	require.NoError(t, c.Initialize())
	t.Cleanup(func() { _ = c.Shutdown(context.Background()) })
	return c
}
