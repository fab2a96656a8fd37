package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.clipstack.dev/clipstack/internal/ipc"
	"go.clipstack.dev/clipstack/internal/message"
)

func newPasteCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "paste",
		Short: "Print a history item to stdout (like pbpaste)",
		Long: `Retrieves an item from a tab (default: newest item of "history") and
writes it to stdout.

If the item has no representation matching --mime, nothing is printed
(exit 0). To retrieve an image:

  clipstack paste --mime image/png > screenshot.png`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runPaste(v) },
	}

	f := cmd.Flags()
	f.String("mime", "text/plain", "preferred MIME type to output")
	f.String("tab", message.HistoryTab, "tab to read from")
	f.Int("row", 0, "row to print (0 = newest)")
	addStoreFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runPaste(v *viper.Viper) error {
	mime := v.GetString("mime")
	tab := v.GetString("tab")
	row := v.GetInt("row")

	if ipc.IsRunning() {
		resp, err := requestDaemon(&message.Message{
			Type: message.TypeGet,
			Tab:  tab,
			MIME: mime,
			Rows: row,
		})
		if err != nil {
			return err
		}
		for _, wi := range resp.Items {
			if wi.MIME != mime {
				continue
			}
			b, err := wi.Decode()
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(b)
			return err
		}
		// Requested type not present — exit 0, print nothing (pbpaste behaviour).
		return nil
	}

	// No daemon: read the tab store directly.
	engine, _, err := newEngine(v)
	if err != nil {
		return err
	}
	t, err := engine.Open(tab)
	if err != nil {
		return err
	}
	it := t.Model.At(row)
	if it == nil || !it.Has(mime) {
		return nil
	}
	_, err = os.Stdout.Write(it.Data(mime))
	return err
}
