// Package cmd provides the entrypoint for the media-mapper cli.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/isometry/media-mapper/internal/config"
	"github.com/isometry/media-mapper/internal/helpers"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configFilePath string
	logger         *slog.Logger
)

type boundEnvVar[T argType] struct {
	Name, Description string
	Env, Short        *string
	Hidden            bool
}

// New returns the root command for the media-mapper.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "media-mapper",
		Short:        "Media services event normalizer and inventory API",
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			config.Global.Mode = strings.TrimSpace(config.Global.Mode)
			logger = helpers.NewLogger(config.Global.Logging.Verbosity, config.Global.Logging.CallerTrace).
				With("mode", config.Global.Mode)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch config.Global.Mode {
			case config.ModeService:
				return cmdService().RunE(cmd, args)
			case config.ModeLambdaEvents:
				return cmdLambdaEvents().RunE(cmd, args)
			case config.ModeLambdaAlarms:
				return cmdLambdaAlarms().RunE(cmd, args)
			case config.ModeLambdaAlarmRefresh:
				return cmdLambdaAlarmRefresh().RunE(cmd, args)
			case config.ModeLambdaAPI:
				return cmdLambdaAPI().RunE(cmd, args)
			default:
				return fmt.Errorf("invalid mode: %s", config.Global.Mode)
			}
		},
	}

	// Root command flags
	cmd.PersistentFlags().StringVarP(&configFilePath, "config", "c", "config.yaml", "path to the configuration file")

	// Configuration loading & defaults
	if err := errors.Join(
		config.LoadFromFile(configFilePath),
		config.SetDefaults(),
	); err != nil {
		panic(err)
	}

	// Dynamic flags
	setupDynamicFlags(cmd)

	// Subcommands
	cmd.AddCommand(
		cmdLambda(),
		cmdService(),
	)

	return cmd
}

func setupDynamicFlags(cmd *cobra.Command) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(replacer)
	bindEnvMap(cmd, envMapString)
	bindEnvMap(cmd, envMapBool)
	bindEnvMap(cmd, envMapCount)
	bindEnvMap(cmd, envMapInt64)
}
