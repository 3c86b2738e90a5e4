package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/habedi/meterctl/client"
	"github.com/habedi/meterctl/pkg/clierr"
	"github.com/habedi/meterctl/pkg/pool"
	"github.com/habedi/meterctl/pkg/validation"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func usersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect and manage platform users",
	}

	cmd.AddCommand(
		usersListCmd(a),
		usersShowCmd(a),
		usersToggleCmd(a, true),
		usersToggleCmd(a, false),
	)
	return cmd
}

func usersListCmd(a *app) *cobra.Command {
	var opts client.ListUsersOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateUserStatus(opts.Status); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			c, err := a.apiClient(cmd.Context())
			if err != nil {
				return err
			}
			page, err := c.ListUsers(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if len(page.Items) == 0 {
				cmd.Println("No users found.")
				return nil
			}

			table := newTable(cmd, []string{"ID", "Email", "Name", "Role", "Active", "Created"})
			for _, u := range page.Items {
				table.Append([]string{u.ID, u.Email, orDash(u.FullName), orDash(u.Role), yesNo(u.IsActive), orDash(u.CreatedAt)})
			}
			table.Render()
			cmd.Printf("Showing %d of %d users.\n", len(page.Items), page.Total)
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.Page, "page", "p", 1, "Page number")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 20, "Users per page")
	cmd.Flags().StringVarP(&opts.Search, "search", "s", "", "Filter by email or name")
	cmd.Flags().StringVar(&opts.Status, "status", "", "Filter by status [active, inactive]")
	return cmd
}

func usersShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show a user and their API keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.apiClient(cmd.Context())
			if err != nil {
				return err
			}
			user, err := c.GetUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cmd.Println("ID:", user.ID)
			cmd.Println("Email:", user.Email)
			cmd.Println("Name:", orDash(user.FullName))
			cmd.Println("Role:", orDash(user.Role))
			cmd.Println("Active:", yesNo(user.IsActive))
			cmd.Println("Created:", orDash(user.CreatedAt))
			cmd.Println("Last login:", orDash(user.LastLoginAt))

			keys, err := c.ListAPIKeys(cmd.Context(), user.ID)
			if err != nil {
				return err
			}
			cmd.Println("API keys:", len(keys))
			return nil
		},
	}
}

// usersToggleCmd builds "users enable" or "users disable". Several IDs are
// processed concurrently; failures are reported per ID.
func usersToggleCmd(a *app, active bool) *cobra.Command {
	var threads int
	verb, short := "disable", "Disable one or more user accounts"
	if active {
		verb, short = "enable", "Enable one or more user accounts"
	}

	cmd := &cobra.Command{
		Use:   verb + " <user-id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateThreadCount(threads); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			c, err := a.apiClient(cmd.Context())
			if err != nil {
				return err
			}
			return setUsersActive(cmd, c, args, active, threads)
		},
	}

	cmd.Flags().IntVarP(&threads, "threads", "t", 4, "Number of concurrent requests [1-20]")
	return cmd
}

func setUsersActive(cmd *cobra.Command, c *client.Client, ids []string, active bool, threads int) error {
	verb, done := "Disabling", "Disabled"
	if active {
		verb, done = "Enabling", "Enabled"
	}
	bar := progressbar.NewOptions(len(ids),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription(verb+" users..."),
		progressbar.OptionSetWidth(20),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	worker := func(ctx context.Context, id string) error {
		if _, err := c.SetUserActive(ctx, id, active); err != nil {
			return fmt.Errorf("user %s: %w", id, err)
		}
		return nil
	}
	errs := pool.Run(cmd.Context(), ids, threads, worker, pool.OnDone(func(id string, err error) {
		_ = bar.Add(1)
		if err != nil {
			log.Debug().Err(err).Str("user_id", id).Msg("Failed to update user")
		}
	}))
	_ = bar.Finish()

	for _, err := range errs {
		cmd.PrintErrln("Error:", err)
	}
	cmd.Printf("%s %d of %d users.\n", done, len(ids)-len(errs), len(ids))
	if len(errs) > 0 {
		return clierr.New(clierr.API, fmt.Sprintf("%d of %d updates failed", len(errs), len(ids)), errors.Join(errs...))
	}
	return nil
}
