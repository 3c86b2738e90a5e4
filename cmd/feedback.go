package cmd

import (
	"github.com/habedi/meterctl/pkg/clierr"
	"github.com/habedi/meterctl/pkg/validation"
	"github.com/spf13/cobra"
)

func feedbackCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Read and answer user feedback",
	}

	cmd.AddCommand(
		feedbackListCmd(a),
		feedbackRespondCmd(a),
	)
	return cmd
}

func feedbackListCmd(a *app) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List feedback entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateFeedbackStatus(status); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			c, err := a.apiClient(cmd.Context())
			if err != nil {
				return err
			}
			items, err := c.ListFeedback(cmd.Context(), status)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				cmd.Println("No feedback found.")
				return nil
			}

			table := newTable(cmd, []string{"ID", "From", "Status", "Message", "Created"})
			table.SetColMinWidth(3, 40)
			for _, f := range items {
				table.Append([]string{f.ID, orDash(f.UserEmail), f.Status, orDash(f.Message), orDash(f.CreatedAt)})
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status [open, responded, closed]")
	return cmd
}

func feedbackRespondCmd(a *app) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "respond <feedback-id>",
		Short: "Reply to a feedback entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateNonEmptyString("message", message); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			c, err := a.apiClient(cmd.Context())
			if err != nil {
				return err
			}
			item, err := c.RespondToFeedback(cmd.Context(), args[0], message)
			if err != nil {
				return err
			}
			cmd.Printf("Responded to feedback %s (status: %s).\n", item.ID, orDash(item.Status))
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "Response text")
	return cmd
}
