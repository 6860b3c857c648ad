package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "winterface",
		Short: "Admin web interface with address-based admission control",
		Long: "Serves the admin interface on the configured bind addresses and admits\n" +
			"clients by their network address: full access, restricted access or denied.\n\n" +
			"Process settings come from the environment (DB_DRIVER, DB_DSN, SETTINGS_FILE,\n" +
			"SETTINGS_WATCH, RESTART_DEBOUNCE, LOG_LEVEL, LOG_JSON).",
		SilenceUsage: true,
		// Running without a subcommand serves.
		RunE: runServe,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newCheckCmd())
	return root
}
