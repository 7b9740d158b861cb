package main

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/angeloszaimis/hamster/config"
	"github.com/angeloszaimis/hamster/pkg/logger"
)

// app is what every subcommand receives once the root has loaded config.
type app struct {
	cfg *config.Config
	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	var (
		cfgFile  string
		envFile  string
		logLevel string
	)
	a := &app{}

	var root *cobra.Command
	root = &cobra.Command{
		Use:           "hamster",
		Short:         "Backend availability poller for the Pokemon site",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}

			v := config.New()
			if cfgFile != "" {
				v.SetConfigFile(cfgFile)
			}
			if err := v.BindPFlag("logging.level", root.PersistentFlags().Lookup("log-level")); err != nil {
				return err
			}

			cfg, err := config.LoadFrom(v)
			if err != nil {
				return err
			}

			a.cfg = cfg
			a.log = logger.New(cfg.Logging.Level, true, cfg.Server.Environment)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./config/config.yaml)")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")
	root.PersistentFlags().StringVar(&logLevel, "log-level", config.LogLevelInfo, "debug, info, warn or error")

	root.AddCommand(
		newServeCmd(a),
		newWaitCmd(a),
		newPublishCmd(a),
		newResetCmd(a),
	)
	return root
}
