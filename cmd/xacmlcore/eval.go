package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"mercator-hq/xacmlcore/pkg/cli"
	"mercator-hq/xacmlcore/pkg/config"
	"mercator-hq/xacmlcore/pkg/pdp"
	"mercator-hq/xacmlcore/pkg/telemetry/tracing"
)

var evalFlags struct {
	rules   string
	request string
	format  string
	trace   bool
}

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate a decision request",
	Long: `Evaluate a decision request against rule documents and print the decision
of every enabled rule.

The request is a YAML document listing attributes with their values in
lexical form:

  id: req-1
  attributes:
    - category: access-subject
      id: role
      values: [doctor]
    - category: action
      id: action-id
      values: [read]
    - category: resource
      id: size
      datatype: integer
      values: ["42"]

Examples:
  # Evaluate a request file
  xacmlcore eval --rules rules/ --request request.yaml

  # Read the request from stdin and print evaluation steps
  cat request.yaml | xacmlcore eval --rules rules/ --request - --trace

  # JSON output
  xacmlcore eval --rules rules/ --request request.yaml --format json`,
	Args: cobra.NoArgs,
	RunE: evaluateRequest,
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringVarP(&evalFlags.rules, "rules", "r", "", "rule document or directory (default: rules.path from config)")
	evalCmd.Flags().StringVar(&evalFlags.request, "request", "", "request file, - for stdin")
	evalCmd.Flags().StringVar(&evalFlags.format, "format", "text", "output format: text, json")
	evalCmd.Flags().BoolVar(&evalFlags.trace, "trace", false, "include evaluation steps")
	_ = evalCmd.MarkFlagRequired("request")
}

func evaluateRequest(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(evalFlags.format)
	if err != nil {
		return err
	}

	cfg := config.GetConfig()
	logger := slog.Default()

	req, err := loadRequest(evalFlags.request, cmd.InOrStdin())
	if err != nil {
		return cli.NewCommandError("eval", err)
	}

	src, err := newRuleSource(cfg, evalFlags.rules, logger)
	if err != nil {
		return err
	}

	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
	if err != nil {
		return cli.NewCommandError("eval", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(ctx); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	engineCfg := engineConfig(cfg).WithWatch(false)
	if evalFlags.trace {
		engineCfg.WithTrace(true)
	}
	engine, err := pdp.NewEngine(engineCfg, src,
		pdp.WithLogger(logger),
		pdp.WithTracer(tracer),
	)
	if err != nil {
		return cli.NewCommandError("eval", err)
	}
	defer engine.Close()

	resp, err := engine.Evaluate(cmd.Context(), req)
	if err != nil {
		return cli.NewCommandError("eval", err)
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), evalResult{resp})
}

// loadRequest decodes a YAML request document from path, or from stdin
// when path is "-".
func loadRequest(path string, stdin io.Reader) (*pdp.Request, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read request: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var req pdp.Request
	if err := dec.Decode(&req); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("request %s is empty", path)
		}
		return nil, fmt.Errorf("failed to parse request %s: %w", path, err)
	}
	return &req, nil
}

// evalResult renders a response.
type evalResult struct {
	*pdp.Response
}

func (r evalResult) RenderText(w io.Writer) error {
	fmt.Fprintf(w, "Request %s\n\n", r.RequestID)

	tw := cli.NewTable(w)
	fmt.Fprintln(tw, "RULE SET\tRULE\tDECISION\tSTATUS")
	for _, d := range r.Decisions {
		status := "-"
		if d.Status != nil {
			status = d.Status.Code.Short() + ": " + d.Status.Message
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.RuleSet, d.RuleID, d.Decision, status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%d rule(s): %d Permit, %d Deny, %d NotApplicable, %d Indeterminate (%v)\n",
		len(r.Decisions),
		r.Count(pdp.DecisionPermit),
		r.Count(pdp.DecisionDeny),
		r.Count(pdp.DecisionNotApplicable),
		r.Count(pdp.DecisionIndeterminate),
		r.EvaluationTime,
	)

	if r.Trace != nil {
		fmt.Fprintln(w, "\nTrace:")
		for _, step := range r.Trace.Steps {
			fmt.Fprintf(w, "  %-15s %s (%v)\n", step.Type, step.Message, step.Duration)
		}
	}
	return nil
}
