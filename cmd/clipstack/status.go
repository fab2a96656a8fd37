package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.clipstack.dev/clipstack/internal/ipc"
	"go.clipstack.dev/clipstack/internal/message"
)

func newStatusCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and tab status",
		Long: `Displays the running daemon's version and every tab with its item count
and backing store. Requires a running "clipstack serve".`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runStatus(v) },
	}

	f := cmd.Flags()
	f.Bool("json", false, "output raw JSON")
	addConfigFlag(cmd)

	return cmd
}

func runStatus(v *viper.Viper) error {
	if !ipc.IsRunning() {
		return fmt.Errorf("no clipstack daemon running on %s", ipc.SocketPath())
	}

	resp, err := requestDaemon(&message.Message{Type: message.TypeStatus})
	if err != nil {
		return err
	}

	if v.GetBool("json") {
		enc, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Println(string(enc))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Daemon:\t%s\n", resp.Source)
	fmt.Fprintf(w, "Version:\t%s\n", resp.Version)
	fmt.Fprintf(w, "Transport:\tipc (%s)\n", ipc.SocketPath())
	fmt.Fprintln(w)
	_ = w.Flush()

	if len(resp.Tabs) == 0 {
		fmt.Println("No tabs.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "TAB\tITEMS\tBACKEND\n")
	fmt.Fprintf(tw, "---\t-----\t-------\n")
	for _, t := range resp.Tabs {
		backend := t.Saver
		if backend == "" {
			backend = "-"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", t.Name, t.Items, backend)
	}
	return tw.Flush()
}
