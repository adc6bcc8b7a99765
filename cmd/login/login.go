package login

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/carthage-creances/gardien/cmd/helpers"
	"github.com/carthage-creances/gardien/role"
)

var (
	LoginCmd = &cobra.Command{
		Use:           "login",
		SilenceUsage:  true,
		SilenceErrors: true,
		Short:         "Authenticate to the Carthage Créances backend",
		Long: `
Usage: gardien login --email EMAIL [--password PASSWORD]

  Authenticates a user against the backend and stores the resulting session
  (bearer token plus resolved identity) in the local session file. When the
  password flag is omitted it is read from standard input, which is the
  recommended way: flags end up in shell history.

  A successful login prints the resolved identity and the application area
  the role lands in:

      $ gardien login --email chef.dossier@carthage-creances.tn
`,
		RunE: run,
	}

	flagEmail    string
	flagPassword string
)

func init() {
	LoginCmd.Flags().StringVarP(&flagEmail, "email", "e", "", "Login email")
	LoginCmd.Flags().StringVarP(&flagPassword, "password", "p", "", "Password (read from stdin when omitted)")
}

func run(cmd *cobra.Command, args []string) error {
	if flagEmail == "" {
		return fmt.Errorf("email is required. Use -e or --email flag")
	}

	password := flagPassword
	if password == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	manager, err := helpers.Manager()
	if err != nil {
		return err
	}

	id, dest, err := manager.Login(cmd.Context(), flagEmail, password)
	if err != nil {
		return err
	}

	helpers.PrintTable([]string{"Field", "Value"}, [][]any{
		{"Name", id.DisplayName()},
		{"Email", id.Email},
		{"Role", role.LabelFor(id.Role)},
		{"Landing route", dest},
	})

	return nil
}
