package cmd

import (
	"net"
	"net/http"

	"github.com/isometry/media-mapper/internal/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func cmdService() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "service",
		Aliases: []string{"s", "serve", "standalone", "server"},
		Short:   "Serve the REST API as a standalone HTTP service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger = logger.With("entrypoint", "service")
			if err := setup(cmd, true, true); err != nil {
				return errors.Wrap(err, "failed to setup service")
			}

			logger.Debug("creating HTTP server...")
			s := &http.Server{
				Handler:           mapperRuntime,
				Addr:              net.JoinHostPort(config.Service.Addr, config.Service.Port),
				WriteTimeout:      config.Service.Timeout,
				ReadTimeout:       config.Service.Timeout,
				ReadHeaderTimeout: config.Service.Timeout,
				IdleTimeout:       config.Service.Timeout,
			}

			logger.Info("serving...", "address", s.Addr, "timeout", config.Service.Timeout.String())
			return s.ListenAndServe()
		},
	}

	bindEnvMap(cmd, svcEnvMapString)
	bindEnvMap(cmd, svcEnvMapDuration)
	return cmd
}
