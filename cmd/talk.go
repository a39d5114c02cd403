package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/studyup/studyup/internal/conversation"
	"github.com/studyup/studyup/internal/screens/talk"
)

var errOffline = errors.New("conversations need a backend: set api.base_url or STUDYUP_API_BASE_URL")

var talkCmd = &cobra.Command{
	Use:       "talk [general|scenario|custom]",
	Short:     "Hold a spoken conversation with the AI tutor",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"general", "scenario", "custom"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			kind    conversation.Kind
			hasKind bool
		)
		if len(args) == 1 {
			k, err := conversation.ParseKind(args[0])
			if err != nil {
				return err
			}
			kind, hasKind = k, true
		}

		d, err := setup(cmd)
		if err != nil {
			return err
		}
		defer d.close()

		m := d.svc.Conversations
		if m == nil {
			return errOffline
		}
		level := string(d.svc.Difficulty)
		if hasKind {
			return d.runApp(cmd.Context(), talk.NewWithKind(m, d.svc.UserID, level, kind))
		}
		return d.runApp(cmd.Context(), talk.New(m, d.svc.UserID, level))
	},
}
