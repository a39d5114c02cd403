package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/studyup/studyup/internal/screens/home"
)

var weaknessCmd = &cobra.Command{
	Use:   "weakness",
	Short: "Rank question types by wrong answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		launch, _ := cmd.Flags().GetBool("review")

		d, err := setup(cmd)
		if err != nil {
			return err
		}
		defer d.close()

		if launch {
			return d.runApp(cmd.Context(), home.WeakReviewScreen(d.svc))
		}

		ranking, err := d.svc.Review.Ranking(cmd.Context())
		if err != nil {
			return fmt.Errorf("rank weaknesses: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(ranking) == 0 {
			fmt.Fprintln(out, "No wrong answers yet.")
			return nil
		}

		fmt.Fprintf(out, "%-4s  %-14s  %-5s  %-6s  %s\n", "Rank", "Type", "Wrong", "Share", "Accuracy")
		fmt.Fprintln(out, strings.Repeat("─", 48))
		for _, r := range ranking {
			acc := "-"
			if r.AccuracyRate > 0 {
				acc = fmt.Sprintf("%.0f%%", r.AccuracyRate*100)
			}
			fmt.Fprintf(out, "%-4d  %-14s  %-5d  %5.0f%%  %s\n",
				r.PriorityRank, r.DisplayName, r.Count, r.Share*100, acc)
		}
		return nil
	},
}

func init() {
	weaknessCmd.Flags().Bool("review", false, "Start a review of the weakest type")
}
