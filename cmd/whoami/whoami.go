package whoami

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carthage-creances/gardien/cmd/helpers"
	"github.com/carthage-creances/gardien/role"
)

var WhoamiCmd = &cobra.Command{
	Use:           "whoami",
	SilenceUsage:  true,
	SilenceErrors: true,
	Short:         "Show the identity behind the current session",
	Long: `
Usage: gardien whoami

  Resolves the identity attached to the stored session and prints it.
  Exits with an error when no usable session exists, so it can double as
  a session health check in scripts.
`,
	RunE: run,
}

func run(cmd *cobra.Command, args []string) error {
	manager, err := helpers.Manager()
	if err != nil {
		return err
	}

	res := manager.Current(cmd.Context())
	if !res.Usable() {
		return fmt.Errorf("no usable session (status: %s), run 'gardien login'", res.Status)
	}

	id := res.Identity
	helpers.PrintTable([]string{"Field", "Value"}, [][]any{
		{"Name", id.DisplayName()},
		{"Email", id.Email},
		{"Role", role.LabelFor(id.Role)},
		{"Home route", role.DestinationFor(id.Role)},
		{"Status", res.Status.String()},
	})

	return nil
}
