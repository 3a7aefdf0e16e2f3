package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mercator-hq/xacmlcore/pkg/cli"
	"mercator-hq/xacmlcore/pkg/config"
	"mercator-hq/xacmlcore/pkg/xacml/parser"
)

var validateFlags struct {
	rules  string
	format string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate rule documents",
	Long: `Validate YAML rule documents without evaluating them.

Every document is checked completely: YAML syntax, document structure,
function and datatype names, argument types and variable references. All
problems are reported with their source positions.

Examples:
  # Validate a single document
  xacmlcore validate --rules rules/records.yaml

  # Validate a directory
  xacmlcore validate --rules rules/

  # JSON output for CI
  xacmlcore validate --rules rules/ --format json`,
	Args: cobra.NoArgs,
	RunE: validateRules,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateFlags.rules, "rules", "r", "", "rule document or directory (default: rules.path from config)")
	validateCmd.Flags().StringVar(&validateFlags.format, "format", "text", "output format: text, json")
}

// ValidationResult is the validation result for one rule document.
type ValidationResult struct {
	File    string            `json:"file"`
	Valid   bool              `json:"valid"`
	RuleSet string            `json:"rule_set,omitempty"`
	Rules   int               `json:"rules,omitempty"`
	Errors  []ValidationIssue `json:"errors,omitempty"`
}

// ValidationIssue is one problem found in a rule document.
type ValidationIssue struct {
	Line       int    `json:"line,omitempty"`
	Column     int    `json:"column,omitempty"`
	Type       string `json:"type,omitempty"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

type validationResults []ValidationResult

func (r validationResults) invalid() int {
	n := 0
	for _, res := range r {
		if !res.Valid {
			n++
		}
	}
	return n
}

func (r validationResults) RenderText(w io.Writer) error {
	for _, res := range r {
		if res.Valid {
			fmt.Fprintf(w, "✓ %s: rule set %q, %d rule(s)\n", res.File, res.RuleSet, res.Rules)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", res.File)
		for _, issue := range res.Errors {
			fmt.Fprintf(w, "  %s", issue.Message)
			if issue.Line > 0 {
				fmt.Fprintf(w, " (line %d, col %d)", issue.Line, issue.Column)
			}
			if issue.Type != "" {
				fmt.Fprintf(w, " [%s]", issue.Type)
			}
			fmt.Fprintln(w)
			if issue.Suggestion != "" {
				fmt.Fprintf(w, "    suggestion: %s\n", issue.Suggestion)
			}
		}
	}
	_, err := fmt.Fprintf(w, "\n%d file(s), %d invalid\n", len(r), r.invalid())
	return err
}

func validateRules(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(validateFlags.format)
	if err != nil {
		return err
	}

	cfg := config.GetConfig()
	src, err := newRuleSource(cfg, validateFlags.rules, nil)
	if err != nil {
		return err
	}
	files, err := src.Files()
	if err != nil {
		return cli.NewCommandError("validate", err)
	}
	if len(files) == 0 {
		return cli.NewCommandError("validate", fmt.Errorf("no rule files found in %s", src))
	}

	p, err := newParser(cfg)
	if err != nil {
		return cli.NewCommandError("validate", err)
	}

	results := make(validationResults, 0, len(files))
	for _, file := range files {
		results = append(results, validateFile(p, file))
	}

	if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), results); err != nil {
		return err
	}
	if n := results.invalid(); n > 0 {
		return cli.NewCommandError("validate", fmt.Errorf("%d of %d file(s) invalid", n, len(results)))
	}
	return nil
}

func validateFile(p *parser.Parser, path string) ValidationResult {
	result := ValidationResult{File: path}

	policy, err := p.Parse(path)
	if err == nil {
		result.Valid = true
		result.RuleSet = policy.Name
		result.Rules = len(policy.Rules)
		return result
	}

	var list *parser.ErrorList
	var single *parser.Error
	switch {
	case errors.As(err, &list):
		for _, e := range list.Errors {
			result.Errors = append(result.Errors, issueFromError(e))
		}
	case errors.As(err, &single):
		result.Errors = append(result.Errors, issueFromError(single))
	default:
		result.Errors = append(result.Errors, ValidationIssue{Message: err.Error()})
	}
	return result
}

func issueFromError(e *parser.Error) ValidationIssue {
	return ValidationIssue{
		Line:       e.Location.Line,
		Column:     e.Location.Column,
		Type:       string(e.Type),
		Message:    e.Message,
		Suggestion: e.Suggestion,
	}
}
