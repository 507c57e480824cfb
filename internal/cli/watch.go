// watch command: report maturity and spec changes until interrupted.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/theplant/speckit-extension/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch specifications and report maturity and spec changes",
		Long: "Watch the specification tree. Changes to maturity files drop the\n" +
			"cached record; each change is printed. Stops on interrupt.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.workspace()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w, err := watch.New(ws.SpecsRoot(), ws.Store(), a.logger)
			if err != nil {
				return err
			}
			if err := w.Start(ctx); err != nil {
				return err
			}
			return printEvents(ctx, cmd, w)
		},
	}
}

func printEvents(ctx context.Context, cmd *cobra.Command, w *watch.Watcher) error {
	for {
		select {
		case <-ctx.Done():
			<-w.Done()
			return nil
		case e, ok := <-w.Events():
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", e.Kind, e.Op, e.Path)
		}
	}
}
