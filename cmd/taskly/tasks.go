package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/taskly/internal/commands"
	"github.com/sandeepkv93/taskly/internal/model"
	"github.com/sandeepkv93/taskly/internal/reminder"
)

const listTimeLayout = "2006-01-02 15:04"

func newAddCmd(opts *rootOptions) *cobra.Command {
	var (
		slot  int
		due   string
		notes string
	)
	cmd := &cobra.Command{
		Use:   "add <title...>",
		Short: "Add a task",
		Long: `Add a task to the store.

Examples:
  taskly add pay rent --slot 3 --due "2026-03-01 09:00"
  taskly add stretch --due +45m`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.close()
			svc, err := a.oneShotService(cmd.Context())
			if err != nil {
				return err
			}

			in := model.NewTask{Title: strings.Join(args, " "), Notes: notes}
			if slot != 0 {
				if in.Category, err = slotCategory(svc.Categories(), slot); err != nil {
					return err
				}
			}
			if due != "" {
				w, err := commands.ParseWhen(due)
				if err != nil {
					return err
				}
				in.DueDate = w.Resolve(time.Now(), a.engine.Calendar().Location)
			}
			task, err := svc.Add(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s %s %s\n", shortID(task.ID), task.Category, task.Title)
			return nil
		},
	}
	cmd.Flags().IntVar(&slot, "slot", 0, "category slot 1-4 (default: first)")
	cmd.Flags().StringVar(&due, "due", "", "due time: 2006-01-02 15:04, RFC3339 or +<duration>")
	cmd.Flags().StringVar(&notes, "notes", "", "markdown notes")
	return cmd
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var (
		view      string
		slot      int
		reminders bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending and completed tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.close()
			svc, err := a.oneShotService(cmd.Context())
			if err != nil {
				return err
			}

			mode := model.TemporalMode(strings.ToLower(view))
			if !mode.IsValid() {
				return fmt.Errorf("unknown view %q (all, today, week, overdue)", view)
			}
			f := model.FilterState{}.WithMode(mode)
			if slot != 0 {
				cat, err := slotCategory(svc.Categories(), slot)
				if err != nil {
					return err
				}
				f = f.WithCategory(cat)
			}
			part := svc.Views(f)
			loc := a.engine.Calendar().Location
			out := cmd.OutOrStdout()
			for _, sec := range part.Sections() {
				fmt.Fprintf(out, "%s (%d)\n", sec.Kind, len(sec.Tasks))
				for _, t := range sec.Tasks {
					writeTaskLine(out, t, loc)
					if reminders {
						for _, r := range reminder.PlanFor(t, time.Now()).Register {
							fmt.Fprintf(out, "    reminder %s at %s\n", r.ID, r.FireAt.In(loc).Format(listTimeLayout))
						}
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&view, "view", "all", "all, today, week or overdue")
	cmd.Flags().IntVar(&slot, "slot", 0, "only tasks in category slot 1-4")
	cmd.Flags().BoolVar(&reminders, "reminders", false, "show the reminders each task would get")
	return cmd
}

func newEditCmd(opts *rootOptions) *cobra.Command {
	var (
		title string
		notes string
		slot  int
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a task's title, notes or category",
		Long: `Change a task's title, notes or category. Only the flags given are
applied; --notes "" clears the notes.

Examples:
  taskly edit 3f2a --title "call the bank again"
  taskly edit 3f2a --slot 2 --notes "ask about fees"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("title") && !flags.Changed("notes") && !flags.Changed("slot") {
				return fmt.Errorf("nothing to change: pass --title, --notes or --slot")
			}
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.close()
			svc, err := a.oneShotService(cmd.Context())
			if err != nil {
				return err
			}
			task, err := svc.Resolve(args[0])
			if err != nil {
				return err
			}

			var patch model.Patch
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("notes") {
				patch.Notes = &notes
			}
			if flags.Changed("slot") {
				cat, err := slotCategory(svc.Categories(), slot)
				if err != nil {
					return err
				}
				patch.Category = &cat
			}
			task, err = svc.Update(cmd.Context(), task.ID, patch)
			if err != nil {
				return err
			}
			writeTaskLine(cmd.OutOrStdout(), task, a.engine.Calendar().Location)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&notes, "notes", "", "new markdown notes")
	cmd.Flags().IntVar(&slot, "slot", 0, "new category slot 1-4")
	return cmd
}

func newDoneCmd(opts *rootOptions, use string, done bool) *cobra.Command {
	short := "Mark a task done"
	if !done {
		short = "Mark a task not done"
	}
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.close()
			svc, err := a.oneShotService(cmd.Context())
			if err != nil {
				return err
			}
			task, err := svc.Resolve(args[0])
			if err != nil {
				return err
			}
			task, err = svc.SetDone(cmd.Context(), task.ID, done)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", use, task.Title)
			return nil
		},
	}
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.close()
			svc, err := a.oneShotService(cmd.Context())
			if err != nil {
				return err
			}
			task, err := svc.Resolve(args[0])
			if err != nil {
				return err
			}
			if err := svc.Delete(cmd.Context(), task.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", task.Title)
			return nil
		},
	}
}

func newDueCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "due <id> <when|none>",
		Short: "Set or clear a task's due time",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := commands.ParseWhen(strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.close()
			svc, err := a.oneShotService(cmd.Context())
			if err != nil {
				return err
			}
			task, err := svc.Resolve(args[0])
			if err != nil {
				return err
			}
			task, err = svc.SetDueDate(cmd.Context(), task.ID, w.Resolve(time.Now(), a.engine.Calendar().Location))
			if err != nil {
				return err
			}
			writeTaskLine(cmd.OutOrStdout(), task, a.engine.Calendar().Location)
			return nil
		},
	}
}

func newCategoriesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Show or edit the category set",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show the category slots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.close()
			s, err := a.settings.Load()
			if err != nil {
				return err
			}
			for i, c := range s.Categories {
				fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", i+1, c)
			}
			return nil
		},
	}, &cobra.Command{
		Use:   "set <slot> <symbol>",
		Short: "Replace the symbol in a slot (1-4)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("slot must be a number: %w", err)
			}
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.close()
			_, old, err := a.settings.SetCategory(slot-1, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "slot %d: %s -> %s\n", slot, old, args[1])
			return nil
		},
	})
	return cmd
}

func newDailyCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "daily <on|off>",
		Short:     "Turn the 08:00 daily check-in reminder on or off",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var enabled bool
			switch strings.ToLower(args[0]) {
			case "on":
				enabled = true
			case "off":
			default:
				return fmt.Errorf("expected on or off, got %q", args[0])
			}
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.close()
			if _, err := a.settings.SetDailyReminder(enabled); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "daily reminder %s\n", strings.ToLower(args[0]))
			return nil
		},
	}
}

// slotCategory maps a one-based slot to its symbol.
func slotCategory(cats model.Categories, slot int) (string, error) {
	if slot < 1 || slot > len(cats) {
		return "", fmt.Errorf("slot must be 1-%d, got %d", len(cats), slot)
	}
	return cats[slot-1], nil
}

func writeTaskLine(w io.Writer, t model.Task, loc *time.Location) {
	check := "[ ]"
	if t.Done {
		check = "[x]"
	}
	line := fmt.Sprintf("  %s %s %s %s", shortID(t.ID), check, t.Category, t.Title)
	if t.HasDueDate() {
		line += "  due " + t.DueDate.In(loc).Format(listTimeLayout)
	}
	fmt.Fprintln(w, line)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
