package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bcnelson/winterface/internal/access"
	"github.com/bcnelson/winterface/internal/storage/file"
)

type checkOptions struct {
	full     string
	allowed  string
	settings string
}

func newCheckCmd() *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check ADDR...",
		Short: "Show the tier each address would be admitted with",
		Long: "Classifies each address against the given host lists without starting the\n" +
			"server. Lists default to the built-in defaults; --settings reads them from a\n" +
			"settings file instead, and --full/--allowed override either.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.full, "full", "", "Full access host list (comma separated)")
	cmd.Flags().StringVar(&opts.allowed, "allowed", "", "Allowed host list (comma separated)")
	cmd.Flags().StringVar(&opts.settings, "settings", "", "Settings file to read the lists from")
	return cmd
}

func runCheck(cmd *cobra.Command, opts *checkOptions, args []string) error {
	cfg := access.New()

	if opts.settings != "" {
		if _, err := cfg.Load(cmd.Context(), file.New(opts.settings)); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("full") {
		if _, err := cfg.SetFullAccessHosts(opts.full); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("allowed") {
		if _, err := cfg.SetAllowedHosts(opts.allowed); err != nil {
			return err
		}
	}

	filter := access.NewFilter(cfg)
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, arg := range args {
		fmt.Fprintf(w, "%s\t%s\n", arg, filter.ClassifyRemote(arg))
	}
	return w.Flush()
}
