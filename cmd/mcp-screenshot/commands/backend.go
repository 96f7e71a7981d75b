package commands

import (
	"github.com/signal-slot/mcp-screenshot/internal/backend"
	"github.com/signal-slot/mcp-screenshot/internal/backend/desktop"
	"github.com/signal-slot/mcp-screenshot/internal/backend/kms"
	"github.com/signal-slot/mcp-screenshot/internal/config"
	"github.com/signal-slot/mcp-screenshot/internal/logger"
)

// openBackend commits to a capture backend for the lifetime of the process.
// Selection looks at the override and the environment only; constructing
// the chosen backend is what actually touches devices, so a machine that
// cannot capture fails here rather than on the first tool call.
func openBackend(cfg *config.Config) (backend.Backend, error) {
	sig := backend.DetectSignals(cfg.Backend)
	variant, err := backend.SelectVariant(sig)
	if err != nil {
		return nil, err
	}

	logger.WithComponent("backend").Info().
		Str("variant", string(variant)).
		Bool("display_server", sig.DisplayServer).
		Bool("active_kms", sig.ActiveKMS).
		Str("override", sig.Override).
		Msg("capture backend selected")

	switch variant {
	case backend.VariantKMS:
		return kms.New(cfg.Device)
	default:
		return desktop.New()
	}
}
