package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

func newResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget the persisted session",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, release, err := openStore(a.cfg)
			if err != nil {
				return err
			}
			defer release()

			if err := store.Delete(cmd.Context()); err != nil {
				return err
			}

			a.log.Info("Session cleared", slog.String("store", a.cfg.Session.Store))
			return nil
		},
	}
}
