// File: cmd/root.go
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/viewlens/internal/config"
	"github.com/xkilldash9x/viewlens/internal/observability"
)

type contextKey string

const configKey contextKey = "config"

var cfgFile string

// NewRootCommand builds a fresh command tree. The interactive shell calls it
// once per line so flags never leak between invocations.
func NewRootCommand() *cobra.Command {
	cfgFile = ""

	cmd := &cobra.Command{
		Use:           "viewlens",
		Short:         "viewlens inspects mobile view-hierarchy snapshots.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			config.SetDefaults(v)

			if err := initializeConfig(cmd, v); err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "viewlens"})
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "viewlens"})
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			observability.InitializeLogger(cfg.Logger())
			observability.GetLogger().Debug("Starting viewlens", zap.String("version", Version))

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, configKey, cfg))
			return nil
		},
	}
	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml or ~/.viewlens/config.yaml)")
	cmd.SetVersionTemplate(`{{printf "viewlens version %s\n" .Version}}`)

	cmd.AddCommand(newInspectCmd())
	cmd.AddCommand(newCategoriesCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newFollowCmd())
	cmd.AddCommand(newSelectCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// Execute runs the command tree against os.Args.
func Execute(ctx context.Context) error {
	err := NewRootCommand().ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		observability.GetLogger().Error("Command execution failed", zap.Error(err))
	}
	observability.Sync()
	return err
}

// initializeConfig reads the config file and binds VIEWLENS_* environment
// variables. A missing default config file is not an error.
func initializeConfig(cmd *cobra.Command, v *viper.Viper) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		if home, err := homedir.Expand("~/.viewlens"); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	config.BindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// configFromContext returns the configuration stored by PersistentPreRunE.
func configFromContext(ctx context.Context) (*config.Config, error) {
	if ctx != nil {
		if cfg, ok := ctx.Value(configKey).(*config.Config); ok && cfg != nil {
			return cfg, nil
		}
	}
	return nil, errors.New("configuration not loaded")
}
