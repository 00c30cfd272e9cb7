package cli

import (
	"errors"
	"fmt"

	"github.com/neurolens/neurolens/internal/cli/formatter"
	"github.com/neurolens/neurolens/internal/domain"
	"github.com/spf13/cobra"
)

// errJournalDisabled is returned by journal commands when no journal is wired.
var errJournalDisabled = errors.New("journal is disabled (set journal.enabled in the config)")

func newJournalCmd(app *App) *cobra.Command {
	var (
		limit   int
		session string
	)

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show recent mood journal entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Journal == nil {
				return errJournalDisabled
			}
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}

			var (
				entries []*domain.JournalEntry
				err     error
			)
			if session != "" {
				entries, err = app.Journal.ListBySession(cmd.Context(), session)
				if len(entries) > limit {
					entries = entries[len(entries)-limit:]
				}
			} else {
				entries, err = app.Journal.ListRecent(cmd.Context(), limit)
			}
			if err != nil {
				return fmt.Errorf("listing journal: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatJournal(entries, app.now()))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of entries to show")
	cmd.Flags().StringVar(&session, "session", "", "Only show entries from one chat session, oldest first")

	cmd.AddCommand(
		newJournalShowCmd(app),
		newJournalDeleteCmd(app),
	)

	return cmd
}

func newJournalShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one journal entry with its advice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Journal == nil {
				return errJournalDisabled
			}
			e, err := app.Journal.GetByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatJournalEntry(e, app.now()))
			return nil
		},
	}
}

func newJournalDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one journal entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Journal == nil {
				return errJournalDisabled
			}
			e, err := app.Journal.GetByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := app.Journal.Delete(cmd.Context(), e.ID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.StyleGreen.Render("Deleted "+e.ID))
			return nil
		},
	}
}

func newMoodCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mood",
		Short: "Mood insights from the journal",
	}
	cmd.AddCommand(newMoodStatsCmd(app))
	return cmd
}

func newMoodStatsCmd(app *App) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Count journal entries per mood",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Journal == nil {
				return errJournalDisabled
			}
			if days <= 0 {
				return fmt.Errorf("--days must be positive, got %d", days)
			}
			counts, err := app.Journal.CountByEmotion(cmd.Context(), days, app.now())
			if err != nil {
				return fmt.Errorf("counting moods: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatMoodStats(counts, days))
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "Window size in days")

	return cmd
}
