package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/georisk/georisk/internal/report"
)

// Release builds inject these via -ldflags. Development builds leave
// them empty and fall back to the module build info the Go toolchain
// embeds.
var (
	version = ""
	commit  = ""
	date    = ""
)

// buildMeta is the resolved build identity printed by the version
// command.
type buildMeta struct {
	version  string
	commit   string
	date     string
	modified bool
}

// resolveBuildMeta fills any field not pinned through ldflags from the
// module build info, scanning the VCS settings in a single pass.
func resolveBuildMeta() buildMeta {
	meta := buildMeta{version: version, commit: commit, date: date}

	if info, ok := debug.ReadBuildInfo(); ok {
		if meta.version == "" {
			meta.version = info.Main.Version
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if meta.commit == "" {
					meta.commit = shortRevision(s.Value)
				}
			case "vcs.time":
				if meta.date == "" {
					meta.date = s.Value
				}
			case "vcs.modified":
				meta.modified = s.Value == "true"
			}
		}
	}

	if meta.version == "" {
		meta.version = "(devel)"
	}
	if meta.commit == "" {
		meta.commit = "unknown"
	}
	if meta.date == "" {
		meta.date = "unknown"
	}
	return meta
}

// shortRevision abbreviates a VCS revision to the conventional 7
// characters.
func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// commitLabel marks commits built from a dirty working tree, since a
// dataset produced by such a build is not reproducible from the commit
// alone.
func (m buildMeta) commitLabel() string {
	if m.modified && m.commit != "unknown" {
		return m.commit + " (modified)"
	}
	return m.commit
}

// getVersion returns the version string shown in --version output.
func getVersion() string {
	return resolveBuildMeta().version
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and dataset schema information",
		Long: `Print the georisk version, the commit and date it was built from, and
the schema version of the CSV dataset it produces. Quote this output
when reporting a discrepancy in a published dataset.`,
		Run: func(cmd *cobra.Command, _ []string) {
			meta := resolveBuildMeta()
			fmt.Fprintf(cmd.OutOrStdout(), "georisk version %s\n", meta.version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit:         %s\n", meta.commitLabel())
			fmt.Fprintf(cmd.OutOrStdout(), "  built:          %s\n", meta.date)
			fmt.Fprintf(cmd.OutOrStdout(), "  dataset schema: %s\n", report.DatasetSchemaVersion)
		},
	}
}
