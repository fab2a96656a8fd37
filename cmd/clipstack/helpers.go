package main

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"go.clipstack.dev/clipstack/internal/ipc"
	"go.clipstack.dev/clipstack/internal/item"
	"go.clipstack.dev/clipstack/internal/message"
	"go.clipstack.dev/clipstack/internal/plugins/html"
	"go.clipstack.dev/clipstack/internal/plugins/image"
	"go.clipstack.dev/clipstack/internal/plugins/sqlite"
	"go.clipstack.dev/clipstack/internal/plugins/text"
	"go.clipstack.dev/clipstack/internal/plugins/vault"
	"go.clipstack.dev/clipstack/internal/tabs"
	"go.clipstack.dev/clipstack/internal/wire"
)

func getenv(key string) string  { return os.Getenv(key) }
func hostname() (string, error) { return os.Hostname() }

func isContainerID(s string) bool {
	if len(s) < 12 || len(s) > 64 {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}

// defaultSource returns a human-readable identifier for this host.
func defaultSource() string {
	for _, env := range []string{
		"CLIPSTACK_SOURCE",
		"CONTAINER_NAME",
		"COMPOSE_SERVICE",
		"SERVICE_NAME",
		"HOSTNAME_FRIENDLY",
	} {
		if v := getenv(env); v != "" {
			return v
		}
	}
	h, err := hostname()
	if err != nil {
		return "unknown"
	}
	if isContainerID(h) {
		return "container-" + h[:8]
	}
	return h
}

// newRegistry builds the loader chain in consultation order: vault and
// sqlite claim their configured tabs, image and html render their content
// types, and text is the universal fallback.
func newRegistry(v *viper.Viper) (*item.Registry, *vault.Loader, error) {
	reg := item.NewRegistry()

	var vl *vault.Loader
	if vaultTabs := v.GetStringSlice("vault-tabs"); len(vaultTabs) > 0 {
		vl = vault.New(vaultTabs)
		passphrase := v.GetString("vault-passphrase")
		if passphrase == "" {
			passphrase = os.Getenv("CLIPSTACK_VAULT_PASSPHRASE")
		}
		if passphrase != "" {
			if err := vl.Unlock(passphrase); err != nil {
				return nil, nil, err
			}
		}
		reg.Register(vl)
	}
	if sqliteTabs := v.GetStringSlice("sqlite-tabs"); len(sqliteTabs) > 0 {
		reg.Register(sqlite.New(v.GetString("data-dir"), sqliteTabs))
	}
	reg.Register(image.New())
	reg.Register(html.New())
	reg.Register(text.New())
	return reg, vl, nil
}

// newEngine builds the tab engine from store flags.
func newEngine(v *viper.Viper) (*tabs.Engine, *item.Registry, error) {
	reg, _, err := newRegistry(v)
	if err != nil {
		return nil, nil, err
	}
	return tabs.NewEngine(reg, v.GetString("data-dir"), v.GetInt("max-items")), reg, nil
}

// requestDaemon performs one request/response round trip with the running
// daemon over the IPC socket.
func requestDaemon(msg *message.Message) (*message.Message, error) {
	conn, err := ipc.Dial()
	if err != nil {
		return nil, fmt.Errorf("dial daemon: %w", err)
	}
	defer conn.Close()

	wc := wire.New(conn, nil)
	if err := wc.WriteMsg(msg); err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}
	resp, err := wc.ReadMsg()
	if err != nil {
		return nil, fmt.Errorf("receive: %w", err)
	}
	if resp.Type == message.TypeError {
		return nil, fmt.Errorf("daemon: %s", resp.Error)
	}
	return resp, nil
}
