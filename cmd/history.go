package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/examgen/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent paper generations, diagrams and exports",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		return withEventRepo(cmd, func(repo *store.SQLEventRepo) error {
			events, err := repo.QueryQuizEvents(cmd.Context(), store.QueryOpts{Limit: limit})
			if err != nil {
				return fmt.Errorf("query events: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintln(out, "No papers generated yet.")
				return nil
			}

			fmt.Fprintf(out, "%-5s  %-19s  %-5s  %-16s  %-30s  %s\n",
				"ID", "Timestamp", "Epoch", "Event", "Title", "Detail")
			rule(out, 100)
			for _, e := range events {
				detail := e.Detail
				if e.QuestionID != "" {
					detail = strings.TrimSpace("Q" + e.QuestionID + " " + detail)
				}
				fmt.Fprintf(out, "%-5d  %-19s  %-5d  %-16s  %-30s  %s\n",
					e.ID,
					e.Timestamp.Local().Format(timeLayout),
					e.Epoch,
					e.Kind,
					truncate(e.Title, 30),
					truncate(detail, 40),
				)
			}
			return nil
		})
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
}
