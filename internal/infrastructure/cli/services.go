package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/notewise/internal/infrastructure/wiring"
)

func serviceOptions() wiring.Options {
	return wiring.Options{
		ConfigPath: configPath,
		Fallback:   fallbackFlag,
		Logger:     slog.Default(),
	}
}

func loadServices(root string) (*wiring.AppServices, error) {
	services, err := wiring.BuildAppServices(root, serviceOptions())
	if err != nil {
		return nil, MapError(fmt.Errorf("failed to build services: %w", err))
	}
	return services, nil
}

func getProjectRoot() (string, error) {
	if projectPath != "" {
		abs, err := filepath.Abs(projectPath)
		if err != nil {
			return "", fmt.Errorf("invalid project path %q: %w", projectPath, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return "", fmt.Errorf("project path %q: %w", abs, err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("project path %q is not a directory", abs)
		}
		return abs, nil
	}
	return os.Getwd()
}

func loadServicesForCurrentDir() (*wiring.AppServices, error) {
	root, err := getProjectRoot()
	if err != nil {
		return nil, err
	}
	return loadServices(root)
}
