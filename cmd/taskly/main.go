// Package main implements the taskly CLI. With no subcommand it runs the
// terminal UI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

type rootOptions struct {
	configPath string
	userID     string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "taskly failed: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "taskly",
		Short: "A terminal to-do list with category and date filters and due-date reminders",
		Long: `taskly keeps a per-user to-do list in SQLite.

Run without arguments to open the terminal UI. Subcommands edit the same
store; a running UI picks their changes up by watching the database file,
or through NATS when changefeed.nats_url is set.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.config/taskly/config.yaml)")
	root.PersistentFlags().StringVar(&opts.userID, "user", "", "user id (overrides user.id)")

	root.AddCommand(
		newAddCmd(opts),
		newListCmd(opts),
		newDoneCmd(opts, "done", true),
		newDoneCmd(opts, "undo", false),
		newEditCmd(opts),
		newDeleteCmd(opts),
		newDueCmd(opts),
		newCategoriesCmd(opts),
		newDailyCmd(opts),
	)
	return root
}
