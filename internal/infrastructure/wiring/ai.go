package wiring

import (
	"log/slog"
	"os"

	"github.com/felixgeelhaar/notewise/internal/infrastructure/config"
	infraai "github.com/felixgeelhaar/notewise/pkg/ai"
	domainai "github.com/felixgeelhaar/notewise/pkg/domain/ai"
)

// NewAssistProvider builds the chat completion client from cfg and wraps it
// in the fallback decorator when cfg.Fallback is set.
func NewAssistProvider(cfg *config.AssistConfig, logger *slog.Logger) domainai.Provider {
	if logger == nil {
		logger = slog.Default()
	}

	client := infraai.NewChatClient(infraai.ClientConfig{
		BaseURL:          cfg.BaseURL,
		ModelID:          cfg.ModelID,
		Credential:       cfg.Credential(os.LookupEnv),
		CredentialHeader: cfg.CredentialHeader,
		ConnectTimeout:   cfg.ConnectTimeout(),
		ReadTimeout:      cfg.ReadTimeout(),
		Logger:           logger,
	})

	if !cfg.Fallback {
		return client
	}
	return infraai.NewFallbackProvider(client, logger)
}
