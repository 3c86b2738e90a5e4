package cmd

import (
	"github.com/habedi/meterctl/pkg/clierr"
	"github.com/spf13/cobra"
)

func keysCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage user API keys",
	}

	cmd.AddCommand(
		keysListCmd(a),
		keysRotateCmd(a),
		keysRevokeCmd(a),
	)
	return cmd
}

func keysListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <user-id>",
		Short: "List a user's API keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.apiClient(cmd.Context())
			if err != nil {
				return err
			}
			keys, err := c.ListAPIKeys(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				cmd.Println("No API keys found for this user.")
				return nil
			}

			table := newTable(cmd, []string{"ID", "Name", "Prefix", "Active", "Created", "Last Used"})
			for _, k := range keys {
				table.Append([]string{k.ID, orDash(k.Name), orDash(k.Prefix), yesNo(k.IsActive), orDash(k.CreatedAt), orDash(k.LastUsedAt)})
			}
			table.Render()
			return nil
		},
	}
}

func keysRotateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rotate <key-id>",
		Short: "Issue a new secret for an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.apiClient(cmd.Context())
			if err != nil {
				return err
			}
			key, err := c.RotateAPIKey(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cmd.Printf("Rotated key %s.\n", key.ID)
			if key.Key != "" {
				cmd.Println("New secret (shown only once):", key.Key)
			}
			return nil
		},
	}
}

func keysRevokeCmd(a *app) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "revoke <key-id>",
		Short: "Permanently revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return clierr.New(clierr.Validation, "revoking a key cannot be undone; pass --yes to confirm", nil)
			}
			c, err := a.apiClient(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.RevokeAPIKey(cmd.Context(), args[0]); err != nil {
				return err
			}
			cmd.Printf("Revoked key %s.\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&confirmed, "yes", "y", false, "Confirm the revocation")
	return cmd
}
