// Package api assembles the MCP server over a capture backend and runs it
// on the configured transport.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/signal-slot/mcp-screenshot/internal/backend"
	"github.com/signal-slot/mcp-screenshot/internal/config"
	"github.com/signal-slot/mcp-screenshot/internal/logger"
	"github.com/signal-slot/mcp-screenshot/internal/tools"
)

const serverName = "mcp-screenshot"

// Server is an MCP server bound to one capture backend.
type Server struct {
	mcp *server.MCPServer
	cfg *config.Config
	log *zerolog.Logger
}

// New assembles the MCP server. Tool registration happens once, here; the
// tool set never changes for the life of the process, which is why the
// server advertises no listChanged capability.
func New(cfg *config.Config, b backend.Backend, version string) *Server {
	s := server.NewMCPServer(serverName, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("MCP server for taking screenshots, listing windows and monitors."),
	)
	tools.NewRegistry(b).Register(s)

	return &Server{mcp: s, cfg: cfg, log: logger.WithComponent("api")}
}

// Run serves until the context is canceled or the transport fails.
func (s *Server) Run(ctx context.Context) error {
	switch s.cfg.Transport {
	case config.TransportStdio:
		return s.runStdio(ctx)
	case config.TransportHTTP:
		return s.runHTTP(ctx)
	default:
		return fmt.Errorf("unknown transport %q", s.cfg.Transport)
	}
}

// runStdio speaks MCP over stdin/stdout. Logging is already pinned to
// stderr, so the protocol stream stays clean.
func (s *Server) runStdio(ctx context.Context) error {
	s.log.Info().Msg("serving MCP over stdio")
	return server.NewStdioServer(s.mcp).Listen(ctx, os.Stdin, os.Stdout)
}

func (s *Server) runHTTP(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.cfg.HTTPAddr,
		Handler: s.router(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.HTTPAddr).Msg("serving MCP over HTTP")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// router mounts the MCP endpoint next to a plain health check.
func (s *Server) router() *mux.Router {
	r := mux.NewRouter()
	r.Handle("/mcp", server.NewStreamableHTTPServer(s.mcp))
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}
