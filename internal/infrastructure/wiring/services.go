package wiring

import (
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/notewise/internal/infrastructure/config"
	"github.com/felixgeelhaar/notewise/pkg/application"
	domainai "github.com/felixgeelhaar/notewise/pkg/domain/ai"
)

// Options adjusts how services are built for one invocation.
type Options struct {
	// ConfigPath overrides the workspace config file.
	ConfigPath string
	// Fallback forces placeholder text on remote failures.
	Fallback bool
	Logger   *slog.Logger
}

// AppServices exposes the application layer wired to a workspace.
type AppServices struct {
	Workspace *Workspace
	Config    *config.AssistConfig
	Provider  domainai.Provider
	Assist    *application.AssistService
	Logger    *slog.Logger
}

// BuildAppServices resolves configuration for root and wires the assist service.
func BuildAppServices(root string, opts Options) (*AppServices, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := config.Resolve(root, opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load assist config: %w", err)
	}
	if opts.Fallback {
		cfg.Fallback = true
	}

	workspace, err := NewWorkspace(root)
	if err != nil {
		return nil, err
	}

	provider := NewAssistProvider(cfg, logger)
	logger.Debug("assist provider ready", "provider", provider.ID(), "fallback", cfg.Fallback)

	assist := application.NewAssistService(provider, logger, cfg.MaxTokens,
		application.WithRecorder(workspace.History))

	return &AppServices{
		Workspace: workspace,
		Config:    cfg,
		Provider:  provider,
		Assist:    assist,
		Logger:    logger,
	}, nil
}
