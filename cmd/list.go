package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/bleak/internal/config"
	"github.com/conneroisu/bleak/internal/registry"
	"github.com/conneroisu/bleak/internal/renderer"
)

var typesCmd = &cobra.Command{
	Use:     "types",
	Aliases: []string{"list", "l"},
	Short:   "List registered question types",
	Long: `List every registered question type with the element that renders it,
whether it takes options and the default options it falls back to.

Examples:
  bleak types              # Table output
  bleak types -o json      # JSON output
  bleak types -o yaml      # YAML output`,
	RunE: runTypes,
}

var typesFlags *StandardFlags

func init() {
	rootCmd.AddCommand(typesCmd)
	typesFlags = AddStandardFlags(typesCmd, "output")
}

// typeRow is one line of `bleak types` output.
type typeRow struct {
	Type           string   `json:"type" yaml:"type"`
	Element        string   `json:"element" yaml:"element"`
	TakesOptions   bool     `json:"takes_options" yaml:"takes_options"`
	DefaultOptions []string `json:"default_options,omitempty" yaml:"default_options,omitempty"`
}

type typesReport struct {
	Types    []typeRow `json:"types" yaml:"types"`
	Fallback string    `json:"fallback,omitempty" yaml:"fallback,omitempty"`
}

func runTypes(cmd *cobra.Command, args []string) error {
	container, err := newContainer()
	if err != nil {
		return err
	}
	defer shutdownContainer(cmd, container)

	reg, err := container.GetRegistry()
	if err != nil {
		return err
	}
	rend, err := container.GetRenderer()
	if err != nil {
		return err
	}

	report := buildTypesReport(reg, rend, container.GetConfig().Renderer)
	if typesFlags.Quiet {
		return nil
	}

	out := cmd.OutOrStdout()
	switch strings.ToLower(typesFlags.OutputFormat) {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	case "yaml":
		encoder := yaml.NewEncoder(out)
		defer encoder.Close()
		return encoder.Encode(report)
	case "table":
		return outputTypesTable(out, report)
	default:
		return fmt.Errorf("unsupported format: %s", typesFlags.OutputFormat)
	}
}

func buildTypesReport(reg *registry.ComponentRegistry, rend *renderer.Renderer, cfg config.RendererConfig) typesReport {
	report := typesReport{Fallback: rend.FallbackName()}
	for _, questionType := range reg.Types() {
		element, _ := reg.Get(questionType)
		row := typeRow{
			Type:         questionType,
			Element:      element.Name(),
			TakesOptions: rend.ShouldHaveOptions(questionType),
		}
		if row.TakesOptions {
			row.DefaultOptions, _ = cfg.DefaultOptionsFor(questionType)
		}
		report.Types = append(report.Types, row)
	}
	return report
}

func outputTypesTable(out io.Writer, report typesReport) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tELEMENT\tOPTIONS\tDEFAULTS")
	fmt.Fprintln(w, "----\t-------\t-------\t--------")

	for _, row := range report.Types {
		takes := "no"
		if row.TakesOptions {
			takes = "yes"
		}
		defaults := strings.Join(row.DefaultOptions, ", ")
		if row.TakesOptions && defaults == "" {
			defaults = "(none)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", row.Type, row.Element, takes, defaults)
	}

	fallback := report.Fallback
	if fallback == "" {
		fallback = "(none)"
	}
	fmt.Fprintf(w, "\nFallback: %s\n", fallback)
	return w.Flush()
}
