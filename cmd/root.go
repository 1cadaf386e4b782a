// Package cmd assembles the agentcore command tree.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/nullpath7/agentcore-cli/internal/config"
	"github.com/nullpath7/agentcore-cli/internal/observability"
)

var (
	cfgFile string
	// cfg is populated by the root PersistentPreRunE before any
	// subcommand runs.
	cfg *config.Config
)

// NewRootCommand creates a fresh command tree. Each invocation gets
// its own instance so flag state never leaks between executions.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "agentcore",
		Short:         "agentcore drives AgentCore managed services: agent runtimes, browser sandboxes, and code interpreters.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := initializeConfig()
			if err != nil {
				observability.InitializeLogger(config.LoggerConfig{
					Level: "info", Format: "console", ServiceName: "agentcore",
				})
				return err
			}
			cfg = loaded
			observability.InitializeLogger(cfg.Logger)
			observability.GetLogger().Debug("Starting agentcore", zap.String("version", Version))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml, then ~/.agentcore/config.yaml)")
	rootCmd.PersistentFlags().String("region", "", "AWS region for control and data plane endpoints")
	rootCmd.PersistentFlags().String("endpoint", "", "override for both control and data plane endpoints (local testing)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(
		newVersionCmd(),
		newInvokeCmd(),
		newRuntimeCmd(),
		newBrowserCmd(),
		newInterpreterCmd(),
		newBatchCmd(),
		newServeCmd(),
		newTokenCmd(),
	)
	return rootCmd
}

// Execute runs the command tree under a signal-aware context.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if logger := observability.GetLogger(); logger != nil {
			logger.Error("Command execution failed", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		return err
	}
	return nil
}

// initializeConfig reads the config file and environment into a
// validated Config.
func initializeConfig() (*config.Config, error) {
	v := viper.New()
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		if dir, err := config.DefaultConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("AGENTCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file; defaults and env vars suffice.
	}

	return config.NewConfigFromViper(v)
}

// getConfig returns the loaded configuration; commands call it inside
// RunE, after the pre-run has populated it.
func getConfig() *config.Config {
	if cfg == nil {
		return config.NewDefaultConfig()
	}
	return cfg
}

// applyGlobalFlags folds the persistent --region/--endpoint overrides
// into the loaded config.
func applyGlobalFlags(cmd *cobra.Command, c *config.Config) {
	if region, _ := cmd.Flags().GetString("region"); region != "" {
		c.ControlPlane.Region = region
		c.DataPlane.Region = region
	}
	if endpoint, _ := cmd.Flags().GetString("endpoint"); endpoint != "" {
		c.ControlPlane.Endpoint = endpoint
		c.DataPlane.Endpoint = endpoint
	}
}
