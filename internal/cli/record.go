// record command: store a test run outcome from its exit code.
package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/theplant/speckit-extension/pkg/types"
)

func newRecordCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "record <feature> <scenario-id|test-name> <exit-code>",
		Short: "Record the outcome of a test run",
		Long: "Record the outcome of running a scenario's tests or a single test.\n" +
			"Exit code 0 records pass, anything else fail. Tests not yet in the\n" +
			"maturity record are added from the linked declarations.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, f, err := a.feature(args[0])
			if err != nil {
				return err
			}
			code, err := strconv.Atoi(args[2])
			if err != nil {
				return usageErrorf("exit code %q is not a number", args[2])
			}
			if err := ws.RecordRun(f.SpecPath, args[1], code, time.Now()); err != nil {
				return err
			}

			status := types.StatusFromExitCode(code)
			if a.flags.jsonMode {
				return printJSON(cmd, map[string]string{"feature": f.Name, "target": args[1], "status": string(status)})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", f.Name, args[1], status)
			return nil
		},
	}
}
