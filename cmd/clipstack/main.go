// clipstack: clipboard history with pluggable content types.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go.clipstack.dev/clipstack/internal/logging"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "clipstack",
		Short: "Clipboard history with pluggable content types",
		Long: `clipstack keeps a persistent history of everything you copy. Items live
in named tabs; each tab is loaded, rendered and saved by content-type
modules (plain text, rich text, images, encrypted vault, sqlite).

Run "clipstack serve" to capture clipboard changes into the history tab.
Use "clipstack browse" for the interactive history, and
"clipstack copy/paste/status" as CLI tools.

Config file search order (first found wins):
  /etc/clipstack/clipstack.toml
  $HOME/.config/clipstack/clipstack.toml
  path supplied via --config

All flags can be set via CLIPSTACK_<FLAG> env vars or config-file keys.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCmd(),
		newBrowseCmd(),
		newCopyCmd(),
		newPasteCmd(),
		newStatusCmd(),
		newDoctorCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("clipstack %s\n", Version)
		},
	}
}

// resolveLogging sets up the global slog logger after flags are parsed.
func resolveLogging(interactive bool, formatStr, levelStr string) {
	format := logging.ParseFormat(formatStr)
	level := logging.ParseLevel(levelStr)
	if levelStr == "" {
		if interactive {
			level = logging.ParseLevel("debug")
		} else {
			level = logging.ParseLevel("info")
		}
	}
	logging.Setup(format, level)
}
