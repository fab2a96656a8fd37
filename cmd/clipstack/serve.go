package main

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.clipstack.dev/clipstack/internal/app"
	"go.clipstack.dev/clipstack/internal/clip"
	"go.clipstack.dev/clipstack/internal/ipc"
	"go.clipstack.dev/clipstack/internal/message"
	"go.clipstack.dev/clipstack/internal/monitor"
	"go.clipstack.dev/clipstack/internal/tabs"
	"go.clipstack.dev/clipstack/internal/wire"
)

func newServeCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the clipboard history daemon",
		Long: `Starts the clipstack daemon. Every clipboard change is appended to the
"history" tab, capped at --max-items (oldest evicted first). The daemon
answers copy/paste/status/browse requests on a local IPC socket.

Config file search order:
  /etc/clipstack/clipstack.toml
  $HOME/.config/clipstack/clipstack.toml
  path supplied via --config

Precedence (lowest → highest): defaults → config file → CLIPSTACK_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runServe(v) },
	}

	f := cmd.Flags()
	f.Bool("no-monitor", false, "do not watch the system clipboard (IPC only)")
	f.String("source", defaultSource(), "name for this host in status output")
	addStoreFlags(cmd)
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

type server struct {
	engine *tabs.Engine
	mon    *monitor.Monitor
	source string
}

func runServe(v *viper.Viper) error {
	setupLogging(v)

	if !app.EnsureSingleInstance() {
		return fmt.Errorf("another clipstack daemon is already running on %s", ipc.SocketPath())
	}

	engine, _, err := newEngine(v)
	if err != nil {
		return err
	}

	slog.Info("clipstack daemon starting",
		"version", Version,
		"data_dir", v.GetString("data-dir"),
		"max_items", v.GetInt("max-items"),
	)

	// Warm the history tab so load errors surface at startup.
	if _, err := engine.Open(message.HistoryTab); err != nil {
		return err
	}

	srv := &server{engine: engine, source: v.GetString("source")}

	a := app.New()
	a.HandleSignals(os.Interrupt, syscall.SIGTERM)

	var backend clip.Backend
	if !v.GetBool("no-monitor") {
		backend = clip.New()
		srv.mon = monitor.New(backend, engine, message.HistoryTab)
		go srv.mon.Run()
	}

	ln, err := ipc.Listen()
	if err != nil {
		return fmt.Errorf("ipc listen: %w", err)
	}
	slog.Info("IPC socket listening", "path", ipc.SocketPath())
	go srv.serveIPC(ln)

	a.OnExit = func() {
		_ = ln.Close()
		if backend != nil {
			backend.Close()
		}
		engine.Close()
		_ = os.Remove(ipc.SocketPath())
		slog.Info("clipstack daemon stopped")
	}

	if code := a.Run(); code != 0 {
		return fmt.Errorf("daemon exited with code %d", code)
	}
	return nil
}

func (s *server) serveIPC(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		go s.handleConn(conn)
	}
}

func (s *server) handleConn(conn net.Conn) {
	defer conn.Close()
	wc := wire.New(conn, nil)

	msg, err := wc.ReadMsg()
	if err != nil {
		return
	}

	resp := s.handle(msg)
	if err := wc.WriteMsg(resp); err != nil {
		slog.Debug("ipc reply failed", "err", err)
	}
}

func (s *server) handle(msg *message.Message) *message.Message {
	switch msg.Type {
	case message.TypeAdd:
		return s.handleAdd(msg)
	case message.TypeGet:
		return s.handleGet(msg)
	case message.TypeList:
		return s.handleList(msg)
	case message.TypeStatus:
		return s.handleStatus()
	default:
		return errorMsg(fmt.Sprintf("unknown request type %q", msg.Type))
	}
}

func (s *server) handleAdd(msg *message.Message) *message.Message {
	if len(msg.Items) == 0 {
		return errorMsg("nothing to add")
	}
	t, err := s.engine.Open(msg.TabOf())
	if err != nil {
		return errorMsg(err.Error())
	}
	data := message.ItemsToMap(msg.Items)
	if err := s.engine.AddItem(t, data); err != nil {
		return errorMsg(err.Error())
	}
	slog.Debug("ipc: item added", "tab", t.Name, "source", msg.Source)

	// Mirror the new item to the system clipboard like a native copy.
	if s.mon != nil && msg.TabOf() == message.HistoryTab {
		s.mon.SetClipboard(monitor.Items(data))
	}
	return &message.Message{Type: message.TypeOK}
}

func (s *server) handleGet(msg *message.Message) *message.Message {
	t, err := s.engine.Open(msg.TabOf())
	if err != nil {
		return errorMsg(err.Error())
	}
	row := msg.Rows
	it := t.Model.At(row)
	if it == nil {
		return errorMsg(fmt.Sprintf("tab %q has no row %d", t.Name, row))
	}
	items := message.ItemsFromMap(it.DataMap())
	if msg.MIME != "" {
		filtered := items[:0]
		for _, wi := range items {
			if wi.MIME == msg.MIME {
				filtered = append(filtered, wi)
			}
		}
		items = filtered
	}
	return &message.Message{Type: message.TypeItems, Tab: t.Name, Items: items}
}

func (s *server) handleList(msg *message.Message) *message.Message {
	t, err := s.engine.Open(msg.TabOf())
	if err != nil {
		return errorMsg(err.Error())
	}
	maxRows := msg.Rows
	if maxRows <= 0 || maxRows > t.Model.Len() {
		maxRows = t.Model.Len()
	}
	entries := make([]message.Entry, 0, maxRows)
	for row := 0; row < maxRows; row++ {
		it := t.Model.At(row)
		entries = append(entries, message.Entry{
			Row:   row,
			Items: message.ItemsFromMap(it.DataMap()),
			Time:  it.Time,
		})
	}
	return &message.Message{Type: message.TypeItems, Tab: t.Name, Entries: entries}
}

func (s *server) handleStatus() *message.Message {
	names := s.engine.Names()
	infos := make([]message.TabInfo, 0, len(names))
	for _, name := range names {
		t, err := s.engine.Open(name)
		if err != nil {
			slog.Warn("status: tab unavailable", "tab", name, "err", err)
			infos = append(infos, message.TabInfo{Name: name})
			continue
		}
		infos = append(infos, message.TabInfo{
			Name:  name,
			Items: t.Model.Len(),
			Saver: fmt.Sprintf("%T", t.Saver),
		})
	}
	return &message.Message{
		Type:    message.TypeStatusResponse,
		Source:  s.source,
		Version: Version,
		Tabs:    infos,
	}
}

func errorMsg(text string) *message.Message {
	return &message.Message{Type: message.TypeError, Error: text}
}
