package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the authd CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authd",
		Short: "authd - cookie session authentication service",
		Long: `authd registers users, logs them in with signed session cookies,
and gates the user dashboard and administrator pages by role.
Configuration is read from the environment.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCmd())

	return cmd
}
