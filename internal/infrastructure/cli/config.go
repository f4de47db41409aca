package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/notewise/internal/infrastructure/config"
	"github.com/felixgeelhaar/notewise/pkg/storage"
)

var (
	cfgBaseURL  string
	cfgModelID  string
	cfgFallback bool
	cfgForce    bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the completion service configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write .notewise/assist.yaml with defaults",
	Long: `Write .notewise/assist.yaml. The credential is never stored in the file;
export it in the variable named by credential_env (default ` + config.DefaultCredentialEnv + `)
or put it in a .env file next to .notewise.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getProjectRoot()
		if err != nil {
			return fmt.Errorf("resolve project path: %w", err)
		}

		existing, err := config.LoadAssistConfig(root)
		if err != nil {
			return fmt.Errorf("failed to load assist config: %w", err)
		}
		if existing != nil && !cfgForce {
			return NewCLIError("config already exists", "Pass --force to overwrite .notewise/assist.yaml", nil)
		}

		cfg := config.DefaultAssistConfig()
		if cmd.Flags().Changed("base-url") {
			cfg.BaseURL = cfgBaseURL
		}
		if cmd.Flags().Changed("model") {
			cfg.ModelID = cfgModelID
		}
		cfg.Fallback = cfgFallback
		if err := cfg.Validate(); err != nil {
			return NewCLIError("invalid configuration", "Check --base-url and --model", err)
		}

		if err := config.SaveAssistConfig(root, cfg); err != nil {
			return fmt.Errorf("failed to save assist config: %w", err)
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "Wrote %s/%s\n", storage.NotewiseDir, storage.AssistConfigFile)
		_, _ = fmt.Fprintf(out, "Set %s to your credential before running actions.\n", cfg.CredentialEnv)
		return nil
	},
}

// configShowView is what `config show` prints; the credential value is
// reduced to whether it is set.
type configShowView struct {
	config.AssistConfig `yaml:",inline"`
	CredentialSet       bool `yaml:"credential_set"`
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getProjectRoot()
		if err != nil {
			return fmt.Errorf("resolve project path: %w", err)
		}
		cfg, err := config.Resolve(root, configPath)
		if err != nil {
			return NewCLIError("invalid configuration", "Fix .notewise/assist.yaml or the NOTEWISE_* variables", err)
		}
		if fallbackFlag {
			cfg.Fallback = true
		}

		view := configShowView{
			AssistConfig:  *cfg,
			CredentialSet: cfg.Credential(os.LookupEnv) != "",
		}
		data, err := yaml.Marshal(view)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		_, _ = fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	configInitCmd.Flags().StringVar(&cfgBaseURL, "base-url", "", "Chat completion endpoint")
	configInitCmd.Flags().StringVar(&cfgModelID, "model", "", "Model identifier sent as modelId")
	configInitCmd.Flags().BoolVar(&cfgFallback, "with-fallback", false, "Enable placeholder text on remote failures")
	configInitCmd.Flags().BoolVar(&cfgForce, "force", false, "Overwrite an existing config")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	RootCmd.AddCommand(configCmd)
}
