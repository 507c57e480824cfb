// version command.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

const modulePath = "github.com/theplant/speckit-extension"

// Version is the release version, overridden at link time.
var Version = "0.1.0"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the speckit version",
		Args:  cobra.NoArgs,
		// No configuration is needed to print the version.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "speckit v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
