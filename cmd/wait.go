package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/angeloszaimis/hamster/internal/handler"
	"github.com/angeloszaimis/hamster/internal/metrics"
	"github.com/angeloszaimis/hamster/internal/poller"
)

// Exit codes of the wait command.
const (
	exitRoot       = 0
	exitServerDown = 1
	exitUnknown    = 2
	exitCancelled  = 3
)

func newWaitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "wait",
		Short: "Poll until the backend answers, then print where a visitor would be sent",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			store, release, err := openStore(a.cfg)
			if err != nil {
				return err
			}
			defer release()

			p, err := buildPoller(a.cfg, a.log, metrics.Discard{})
			if err != nil {
				return err
			}

			out, err := p.Run(ctx, store)
			code := exitCode(out, err)
			switch {
			case code == exitCancelled:
				a.log.Info("Wait cancelled")
			case err != nil:
				a.log.Error("Wait failed", slog.Any("err", err))
			default:
				fmt.Fprintln(cmd.OutOrStdout(), targetFor(pagesFrom(a.cfg), out.Destination))
				a.log.Info("Wait finished",
					slog.String("destination", string(out.Destination)),
					slog.Int("attempts", out.Attempts))
			}

			if code != exitRoot {
				return &exitError{code: code}
			}
			return nil
		},
	}
}

func targetFor(pages handler.Pages, d poller.Destination) string {
	switch d {
	case poller.DestinationRoot:
		return pages.Root
	case poller.DestinationServerDown:
		return pages.ServerDown
	default:
		return pages.Unknown
	}
}

func exitCode(out poller.Outcome, err error) int {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return exitCancelled
	case err != nil:
		return exitUnknown
	}

	switch out.Destination {
	case poller.DestinationRoot:
		return exitRoot
	case poller.DestinationServerDown:
		return exitServerDown
	default:
		return exitUnknown
	}
}
