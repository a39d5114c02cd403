package cmd

import (
	"github.com/spf13/cobra"

	"github.com/studyup/studyup/internal/question"
	"github.com/studyup/studyup/internal/screens/home"
	"github.com/studyup/studyup/internal/screens/practice"
)

var studyCmd = &cobra.Command{
	Use:   "study",
	Short: "Start a study run",
	Long:  "Start a study run. Without --type a type picker is shown first.",
	RunE: func(cmd *cobra.Command, args []string) error {
		typeFlag, _ := cmd.Flags().GetString("type")
		diffFlag, _ := cmd.Flags().GetString("difficulty")
		count, _ := cmd.Flags().GetInt("count")

		d, err := setup(cmd)
		if err != nil {
			return err
		}
		defer d.close()

		if typeFlag == "" {
			return d.runApp(cmd.Context(), home.StudyScreen(d.svc))
		}

		t, err := question.ParseType(typeFlag)
		if err != nil {
			return err
		}
		difficulty := d.svc.Difficulty
		if diffFlag != "" {
			if difficulty, err = question.ParseDifficulty(diffFlag); err != nil {
				return err
			}
		}
		if count <= 0 {
			count = d.svc.Count
		}

		start := practice.NewStudy(d.svc.Runner, t, d.svc.FetchContext(difficulty), count)
		d.log.Info().Str("type", string(t)).Str("difficulty", string(difficulty)).Int("count", count).Msg("study from command line")
		return d.runApp(cmd.Context(), start)
	},
}

func init() {
	studyCmd.Flags().String("type", "", "Question type, e.g. word, synonym, fill-in-blank")
	studyCmd.Flags().String("difficulty", "", "BEGINNER, INTERMEDIATE or ADVANCED (default from config)")
	studyCmd.Flags().Int("count", 0, "Questions per run (default from config)")
}
