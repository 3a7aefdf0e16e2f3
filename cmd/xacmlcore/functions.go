package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/xacmlcore/pkg/cli"
	"mercator-hq/xacmlcore/pkg/config"
	"mercator-hq/xacmlcore/pkg/xacml/function"
)

var functionsFlags struct {
	format string
	filter string
}

var functionsCmd = &cobra.Command{
	Use:   "functions",
	Short: "List the available functions",
	Long: `List every function rules can apply, with its return datatype.

Functions listed under functions.exclude in the config file are left out.
Generic higher-order functions such as map take their return datatype from
the applied function and are shown as "generic".

Examples:
  # All functions
  xacmlcore functions

  # Only string functions, as JSON
  xacmlcore functions --filter string --format json`,
	Args: cobra.NoArgs,
	RunE: listFunctions,
}

func init() {
	rootCmd.AddCommand(functionsCmd)

	functionsCmd.Flags().StringVar(&functionsFlags.format, "format", "text", "output format: text, json")
	functionsCmd.Flags().StringVar(&functionsFlags.filter, "filter", "", "only list identifiers containing this text")
}

// FunctionInfo describes one registered function.
type FunctionInfo struct {
	ID        string `json:"id"`
	Returns   string `json:"returns"`
	Signature string `json:"signature,omitempty"`
}

type functionList []FunctionInfo

func (l functionList) RenderText(w io.Writer) error {
	tw := cli.NewTable(w)
	fmt.Fprintln(tw, "FUNCTION\tRETURNS")
	for _, f := range l {
		fmt.Fprintf(tw, "%s\t%s\n", f.ID, f.Returns)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d function(s)\n", len(l))
	return err
}

func listFunctions(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(functionsFlags.format)
	if err != nil {
		return err
	}

	reg, err := newRegistry(config.GetConfig())
	if err != nil {
		return cli.NewCommandError("functions", err)
	}

	list := make(functionList, 0, reg.Len())
	for _, id := range reg.IDs() {
		if functionsFlags.filter != "" && !strings.Contains(id, functionsFlags.filter) {
			continue
		}
		info := FunctionInfo{ID: id, Returns: "generic"}
		if fn, ok := reg.Lookup(id); ok {
			info.Returns = fn.ReturnType().Short()
			if sig, ok := function.SignatureOf(fn); ok {
				info.Signature = sig.String()
			}
		}
		list = append(list, info)
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), list)
}
