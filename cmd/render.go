package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/conneroisu/bleak/internal/errors"
	"github.com/conneroisu/bleak/internal/questions"
	"github.com/conneroisu/bleak/internal/renderer"
	"github.com/conneroisu/bleak/internal/types"
)

var renderCmd = &cobra.Command{
	Use:     "render",
	Aliases: []string{"r"},
	Short:   "Render questions to HTML",
	Long: `Render a single question, or every question of a flow file, to HTML on
stdout using the configured renderer.

Examples:
  bleak render --type text --question "Name?"
  bleak render --type radio --question "Pick" --option A --option B --value B
  bleak render --type yes_no --question "Ready?"      # default options
  bleak render --file flow.yml                         # whole flow
  bleak render --file flow.yml --index 2               # one question`,
	RunE: runRender,
}

var (
	renderType     string
	renderQuestion string
	renderOptions  []string
	renderValue    string
	renderIndex    int
	renderFile     string
	renderAttrs    map[string]string
)

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVarP(&renderType, "type", "t", "", "Question type")
	renderCmd.Flags().StringVar(&renderQuestion, "question", "", "Question prompt")
	renderCmd.Flags().StringArrayVar(&renderOptions, "option", nil, "Option label (repeatable)")
	renderCmd.Flags().StringVar(&renderValue, "value", "", "Current answer value")
	renderCmd.Flags().IntVarP(&renderIndex, "index", "i", -1, "Question index (with --file, render only this question)")
	renderCmd.Flags().StringVarP(&renderFile, "file", "f", "", "Question flow file (YAML or JSON)")
	renderCmd.Flags().StringToStringVar(&renderAttrs, "attr", nil, "Extra attribute key=value (class, placeholder, data-*, aria-*)")
	renderCmd.MarkFlagsMutuallyExclusive("file", "type")
	AddFlagValidation(renderCmd, "file", ValidateFileExists)
}

func runRender(cmd *cobra.Command, args []string) error {
	container, err := newContainer()
	if err != nil {
		return err
	}
	defer shutdownContainer(cmd, container)

	rend, err := container.GetRenderer()
	if err != nil {
		return err
	}

	if renderFile == "" {
		q := types.Question{Type: renderType, Question: renderQuestion, Options: renderOptions}
		if err := q.Validate(); err != nil {
			return fmt.Errorf("--type is required: %w", err)
		}
		var index *int
		if renderIndex >= 0 {
			index = &renderIndex
		}
		return renderOne(cmd, rend, q, renderValue, index)
	}

	flow, err := questions.Load(renderFile)
	if err != nil {
		return err
	}

	if renderIndex >= 0 {
		q, err := flow.At(renderIndex)
		if err != nil {
			return err
		}
		return renderOne(cmd, rend, q, renderValue, &renderIndex)
	}

	for i, q := range flow.Questions {
		i := i
		if err := renderOne(cmd, rend, q, "", &i); err != nil {
			return err
		}
	}
	return nil
}

func renderOne(cmd *cobra.Command, rend *renderer.Renderer, q types.Question, value string, index *int) error {
	html, err := rend.RenderHTML(cmd.Context(), q, renderer.RenderOptions{
		Value:         value,
		QuestionIndex: index,
		Attributes:    renderAttrs,
	})
	if err != nil {
		if errors.IsConfigurationError(err) {
			return fmt.Errorf("renderer configuration: %w", err)
		}
		return err
	}

	_, err = io.WriteString(cmd.OutOrStdout(), html+"\n")
	return err
}
