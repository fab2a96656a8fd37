package main

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.clipstack.dev/clipstack/internal/clip"
	"go.clipstack.dev/clipstack/internal/item"
	"go.clipstack.dev/clipstack/internal/message"
	"go.clipstack.dev/clipstack/internal/monitor"
	"go.clipstack.dev/clipstack/internal/ui"
)

func newBrowseCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the clipboard history interactively",
		Long: `Opens the interactive history browser for a tab (default "history").

Keys: ↑/↓ select, enter copy, e edit, d delete, / search, q quit.
Hold Shift to interact with item content (select text, click links)
instead of the row list.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runBrowse(v) },
	}

	f := cmd.Flags()
	f.String("tab", message.HistoryTab, "tab to browse")
	addStoreFlags(cmd)
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runBrowse(v *viper.Viper) error {
	setupLogging(v)

	engine, reg, err := newEngine(v)
	if err != nil {
		return err
	}
	defer engine.Close()

	t, err := engine.Open(v.GetString("tab"))
	if err != nil {
		return err
	}

	backend := clip.New()
	defer backend.Close()

	b := ui.NewBrowser(engine, reg, t)
	b.OnCopy = func(data map[string][]byte) {
		if err := backend.Write(monitor.Items(data)); err != nil {
			slog.Warn("clipboard write failed", "err", err)
		}
	}
	b.OnOpenURL = openURL

	p := tea.NewProgram(b, tea.WithAltScreen(), tea.WithMouseAllMotion())

	// Forward loader notifications (vault lock/unlock etc.) into the UI.
	for _, l := range reg.Loaders() {
		if ch := l.Signaler(); ch != nil {
			go func(ch <-chan item.Notification) {
				for n := range ch {
					p.Send(ui.LoaderEvent(n))
				}
			}(ch)
		}
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("browser: %w", err)
	}
	return nil
}

// openURL hands a link to the desktop opener; failures are logged, not fatal.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		slog.Warn("open url failed", "url", url, "err", err)
	}
}
