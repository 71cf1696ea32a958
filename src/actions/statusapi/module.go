package statusapi

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"net"
	"net/http"
	"time"

	"github.com/stake-plus/multisig-comms/src/actions/core"
	"github.com/stake-plus/multisig-comms/src/api"
	sharedconfig "github.com/stake-plus/multisig-comms/src/config"
	"github.com/stake-plus/multisig-comms/src/multisig"
)

var _ core.Module = (*Module)(nil)

// Store is what the API reads.
type Store interface {
	api.CallReader
	multisig.CursorStore
}

// Module serves the read-only call status API.
type Module struct {
	cfg    *sharedconfig.StatusAPIConfig
	server *http.Server
	addr   net.Addr
	done   chan struct{}
}

func NewModule(cfg *sharedconfig.StatusAPIConfig, guildID string, scale *big.Int, store Store) *Module {
	handler := api.New(store, api.Options{
		JWTSecret:    cfg.JWTSecret,
		GuildID:      guildID,
		DisplayScale: scale,
		Cursor:       store,
		RateLimit:    120,
	})
	return &Module{
		cfg: cfg,
		server: &http.Server{
			Addr:              cfg.Listen,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (m *Module) Name() string { return "statusapi" }

func (m *Module) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", m.cfg.Listen)
	if err != nil {
		return fmt.Errorf("statusapi: listen %s: %w", m.cfg.Listen, err)
	}
	m.addr = ln.Addr()
	m.done = make(chan struct{})
	go func() {
		defer close(m.done)
		if err := m.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("statusapi: server stopped: %v", err)
		}
	}()
	log.Printf("statusapi: listening on %s", ln.Addr())
	return nil
}

// Addr is the bound listen address once started.
func (m *Module) Addr() string {
	if m.addr == nil {
		return ""
	}
	return m.addr.String()
}

func (m *Module) Stop(ctx context.Context) {
	if m.done == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("statusapi: shutdown: %v", err)
	}
	<-m.done
	m.done = nil
}
