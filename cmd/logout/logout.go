package logout

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carthage-creances/gardien/cmd/helpers"
)

var LogoutCmd = &cobra.Command{
	Use:           "logout",
	SilenceUsage:  true,
	SilenceErrors: true,
	Short:         "End the current session",
	Long: `
Usage: gardien logout

  Notifies the backend that the session is over, then clears the local
  session file and the in-memory credentials. Safe to run when no session
  exists.
`,
	RunE: run,
}

func run(cmd *cobra.Command, args []string) error {
	manager, err := helpers.Manager()
	if err != nil {
		return err
	}

	manager.Logout(cmd.Context())
	fmt.Println("Logged out.")
	return nil
}
