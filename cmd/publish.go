package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/angeloszaimis/hamster/internal/envsource"
	"github.com/angeloszaimis/hamster/internal/session"
)

func newPublishCmd(a *app) *cobra.Command {
	var (
		origin string
		state  string
		file   string
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Write the backend's current origin into env.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				file = a.cfg.Site.EnvFile
			}

			st, err := session.ParseState(state)
			if err != nil {
				return err
			}

			if err := envsource.Publish(file, origin, st); err != nil {
				a.log.Error("Failed to publish origin", slog.String("file", file), slog.Any("err", err))
				return err
			}

			a.log.Info("Published origin",
				slog.String("file", file),
				slog.String("url", origin),
				slog.String("state", string(st)))
			return nil
		},
	}

	cmd.Flags().StringVar(&origin, "url", "", "backend origin, e.g. https://abcd.ngrok-free.app")
	cmd.Flags().StringVar(&state, "state", string(session.StateActive), "active or expired")
	cmd.Flags().StringVar(&file, "file", "", "env file to write (default site.env_file)")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}
