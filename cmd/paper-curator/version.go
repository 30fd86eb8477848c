package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of paper-curator",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), versionString(version, readRevision()))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// versionString formats the release, Go toolchain and VCS revision.
func versionString(release, revision string) string {
	s := fmt.Sprintf("paper-curator %s (%s", release, runtime.Version())
	if revision != "" {
		if len(revision) > 12 {
			revision = revision[:12]
		}
		s += ", rev " + revision
	}
	return s + ")"
}

func readRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			return setting.Value
		}
	}
	return ""
}
