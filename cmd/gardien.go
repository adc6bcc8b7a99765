package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/carthage-creances/gardien/cmd/helpers"
	"github.com/carthage-creances/gardien/cmd/login"
	"github.com/carthage-creances/gardien/cmd/logout"
	"github.com/carthage-creances/gardien/cmd/whoami"
)

var (
	flagConfig string

	gardienCmd = &cobra.Command{
		Use:   "gardien",
		Short: "Gardien manages authenticated sessions against the Carthage Créances backend",
		Long: `Gardien is the session and authorization client for the Carthage Créances
case-management platform. It authenticates users, keeps the bearer token and
the resolved identity in a single local session record, and computes the
application area each role lands in.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagConfig != "" {
				helpers.SetConfigPath(flagConfig)
			}
		},
	}
)

func Execute() {
	if err := gardienCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	gardienCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Path to the gardien configuration file")

	gardienCmd.AddCommand(login.LoginCmd)
	gardienCmd.AddCommand(logout.LogoutCmd)
	gardienCmd.AddCommand(whoami.WhoamiCmd)
}
