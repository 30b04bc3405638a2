package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-recordforms/internal/config"
	"github.com/goliatone/go-recordforms/internal/logging"
)

// app carries what every subcommand needs once the root command ran.
type app struct {
	cfg    *config.Config
	logger *logrus.Logger
}

func newRootCmd() *cobra.Command {
	var (
		envFiles []string
		logLevel string
	)
	a := &app{}

	cmd := &cobra.Command{
		Use:           "recordforms",
		Short:         "Dynamic record forms for the ERP resource API",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(envFiles...)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			a.cfg, a.logger = cfg, logger
			return nil
		},
	}

	cmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "Env files to read before parsing the environment (default .env,.env.local)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override RECORDFORMS_LOG_LEVEL")

	cmd.AddCommand(newServeCmd(a), newRenderCmd(a), newFillCmd(a))
	return cmd
}
