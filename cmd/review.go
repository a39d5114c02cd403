package cmd

import (
	"github.com/spf13/cobra"

	"github.com/studyup/studyup/internal/question"
	"github.com/studyup/studyup/internal/screens/home"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review questions you answered wrongly",
	RunE: func(cmd *cobra.Command, args []string) error {
		typeFlag, _ := cmd.Flags().GetString("type")

		var t question.Type
		if typeFlag != "" {
			parsed, err := question.ParseType(typeFlag)
			if err != nil {
				return err
			}
			t = parsed
		}

		d, err := setup(cmd)
		if err != nil {
			return err
		}
		defer d.close()
		return d.runApp(cmd.Context(), home.ReviewScreen(d.svc, t))
	},
}

func init() {
	reviewCmd.Flags().String("type", "", "Only review this question type")
}
