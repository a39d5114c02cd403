package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/studyup/studyup/internal/conversation"
	"github.com/studyup/studyup/internal/history"
	historyscreen "github.com/studyup/studyup/internal/screens/history"
)

var historyCmd = &cobra.Command{
	Use:   "history [conversation-id]",
	Short: "List past runs and conversations, or show one transcript",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		ctx := context.Background()
		out := cmd.OutOrStdout()

		if len(args) == 1 {
			turns, err := history.Transcript(ctx, s.EventRepo(), args[0])
			if err != nil {
				return err
			}
			if len(turns) == 0 {
				return fmt.Errorf("no turns recorded for %s", args[0])
			}
			for _, t := range turns {
				who := "You"
				if t.Speaker == conversation.SpeakerAI {
					who = "AI"
				}
				fmt.Fprintf(out, "%-4s %s\n", who+":", t.Text)
				if t.AudioFeedback != "" {
					fmt.Fprintf(out, "     > %s\n", t.AudioFeedback)
				}
			}
			return nil
		}

		entries, err := history.Recent(ctx, s.EventRepo(), limit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(out, "No history yet.")
			return nil
		}
		fmt.Fprintln(out, strings.Repeat("─", 72))
		for _, e := range entries {
			line := historyscreen.Describe(e)
			if e.Kind == history.EntryConversation {
				line += "  [" + e.ID + "]"
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Maximum number of entries to show")
}
