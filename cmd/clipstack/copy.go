package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.clipstack.dev/clipstack/internal/ipc"
	"go.clipstack.dev/clipstack/internal/message"
)

func newCopyCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Copy stdin into the history (like pbcopy)",
		Long: `Reads stdin and appends it as a new item to a tab (default "history").

If a clipstack daemon is running, the item is sent via the IPC socket and
also placed on the system clipboard. Without a daemon the item is written
straight into the tab store.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runCopy(v) },
	}

	f := cmd.Flags()
	f.String("mime", "text/plain", "MIME type of the data being copied")
	f.String("tab", message.HistoryTab, "tab to append to")
	f.String("source", defaultSource(), "source identifier")
	addStoreFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runCopy(v *viper.Viper) error {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	mime := v.GetString("mime")
	tab := v.GetString("tab")

	var wi message.Item
	if mime == "text/plain" {
		wi = message.NewTextItem(string(data))
	} else {
		wi = message.NewBinaryItem(mime, data)
	}

	if ipc.IsRunning() {
		_, err := requestDaemon(&message.Message{
			Type:   message.TypeAdd,
			Source: v.GetString("source"),
			Tab:    tab,
			Items:  []message.Item{wi},
		})
		if err == nil {
			return nil
		}
		slog.Warn("ipc copy failed, writing to store directly", "err", err)
	}

	// No daemon: append to the tab store directly.
	engine, _, err := newEngine(v)
	if err != nil {
		return err
	}
	t, err := engine.Open(tab)
	if err != nil {
		return err
	}
	return engine.AddItem(t, map[string][]byte{mime: data})
}
