package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/bleak/internal/config"
	"github.com/conneroisu/bleak/internal/errors"
	"github.com/conneroisu/bleak/internal/questions"
	"github.com/conneroisu/bleak/internal/renderer"
)

// configFinding is the index used for findings about the configuration
// rather than a specific question.
const configFinding = -1

// validateCmd represents the validate command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and question flow",
	Long: `Check the configuration and the question flow for problems:

- invalid configuration (unknown fallback type, alias to an unknown type)
- questions whose type has no element and will use the fallback
- questions that would fail to render because no fallback is configured
- option types without default options

Examples:
  bleak validate                    # Validate the configured flow
  bleak validate --file flow.yml    # Validate another flow file
  bleak validate -o json            # Output findings as JSON`,
	RunE: runValidateCommand,
}

var (
	validateFlags *StandardFlags
	validateFile  string
)

func init() {
	rootCmd.AddCommand(validateCmd)

	validateFlags = AddStandardFlags(validateCmd, "output")
	validateCmd.Flags().StringVarP(&validateFile, "file", "f", "", "Question flow file to check instead of the configured one")
	AddFlagValidation(validateCmd, "file", ValidateFileExists)
}

// findingOutput is the serialized form of a finding.
type findingOutput struct {
	Index        *int   `json:"index,omitempty" yaml:"index,omitempty"`
	QuestionType string `json:"question_type,omitempty" yaml:"question_type,omitempty"`
	Severity     string `json:"severity" yaml:"severity"`
	Message      string `json:"message" yaml:"message"`
}

func runValidateCommand(cmd *cobra.Command, args []string) error {
	container, err := newContainer()
	if err != nil {
		return err
	}
	defer shutdownContainer(cmd, container)

	rend, err := container.GetRenderer()
	if err != nil {
		return err
	}

	flow, err := container.GetFlow()
	if err != nil {
		return err
	}
	if validateFile != "" {
		if flow, err = questions.Load(validateFile); err != nil {
			return err
		}
	}

	collector := errors.NewCollector()
	checkOptionDefaults(collector, container.GetConfig().Renderer)
	checkFlow(collector, flow, rend, container.GetConfig().Renderer)

	if err := outputFindings(cmd.OutOrStdout(), collector.Findings()); err != nil {
		return err
	}
	if collector.HasErrors() {
		return fmt.Errorf("validation failed: %d error(s)", collector.Count(errors.SeverityError))
	}
	return nil
}

// checkOptionDefaults reports option types that fail to render when a
// question omits its options.
func checkOptionDefaults(c *errors.Collector, cfg config.RendererConfig) {
	if !cfg.HasDefaultOptions() {
		return
	}
	for _, questionType := range cfg.OptionTypes {
		if opts, _ := cfg.DefaultOptionsFor(questionType); len(opts) == 0 {
			c.Add(errors.Finding{
				Index:        configFinding,
				QuestionType: questionType,
				Message:      "option type has no default options",
				Severity:     errors.SeverityWarning,
			})
		}
	}
}

func checkFlow(c *errors.Collector, flow *questions.Flow, rend *renderer.Renderer, cfg config.RendererConfig) {
	for i, q := range flow.Questions {
		if strings.TrimSpace(q.Question) == "" {
			c.Add(errors.Finding{Index: i, QuestionType: q.Type, Message: "question has no prompt", Severity: errors.SeverityInfo})
		}

		if !rend.HasComponent(q.Type) {
			if rend.FallbackName() == "" {
				c.Add(errors.Finding{Index: i, QuestionType: q.Type, Message: "no element registered and no fallback configured", Severity: errors.SeverityError})
			} else {
				c.Add(errors.Finding{Index: i, QuestionType: q.Type, Message: "no element registered; renders with " + rend.FallbackName(), Severity: errors.SeverityWarning})
			}
		}

		if !rend.ShouldHaveOptions(q.Type) || len(q.Options) > 0 {
			continue
		}
		switch opts, _ := cfg.DefaultOptionsFor(q.Type); {
		case !rend.HasDefaultOptions():
			c.Add(errors.Finding{Index: i, QuestionType: q.Type, Message: "needs options but none are given and no default options are configured", Severity: errors.SeverityError})
		case len(opts) == 0:
			c.Add(errors.Finding{Index: i, QuestionType: q.Type, Message: "needs options but none are given and no default options are configured for this type", Severity: errors.SeverityError})
		}
	}
}

func outputFindings(out io.Writer, findings []errors.Finding) error {
	rows := make([]findingOutput, 0, len(findings))
	for _, f := range findings {
		row := findingOutput{QuestionType: f.QuestionType, Severity: f.Severity.String(), Message: f.Message}
		if f.Index != configFinding {
			index := f.Index
			row.Index = &index
		}
		rows = append(rows, row)
	}

	switch strings.ToLower(validateFlags.OutputFormat) {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(rows)
	case "yaml":
		encoder := yaml.NewEncoder(out)
		defer encoder.Close()
		return encoder.Encode(rows)
	}

	if validateFlags.Quiet {
		return nil
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "No problems found.")
		return nil
	}
	for _, row := range rows {
		where := "config"
		if row.Index != nil {
			where = fmt.Sprintf("question %d", *row.Index)
		}
		fmt.Fprintf(out, "%-7s %s (%s): %s\n", row.Severity, where, row.QuestionType, row.Message)
	}
	return nil
}
