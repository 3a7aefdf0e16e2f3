package main

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"mercator-hq/xacmlcore/pkg/cli"
)

// Build metadata, overridden with -ldflags "-X main.Version=...".
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var versionFormat string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cli.ParseFormat(versionFormat)
		if err != nil {
			return err
		}
		info := buildInfo{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		}
		return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), info)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().StringVar(&versionFormat, "format", "text", "output format: text, json")
}

type buildInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func (b buildInfo) RenderText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "xacmlcore %s\n", b.Version); err != nil {
		return err
	}
	tw := cli.NewTable(w)
	fmt.Fprintf(tw, "  commit:\t%s\n", b.GitCommit)
	fmt.Fprintf(tw, "  built:\t%s\n", b.BuildDate)
	fmt.Fprintf(tw, "  go:\t%s\n", b.GoVersion)
	fmt.Fprintf(tw, "  platform:\t%s\n", b.Platform)
	return tw.Flush()
}
