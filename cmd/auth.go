package cmd

import (
	"errors"
	"net/http"

	"github.com/habedi/meterctl/client"
	"github.com/habedi/meterctl/pkg/clierr"
	"github.com/habedi/meterctl/pkg/validation"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// loginCmd signs an administrator in and stores the session.
func loginCmd(a *app) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with an admin account",
		Long:  "Sign in with an admin account. The account must hold admin privileges; the session is stored in the configured credential store.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrompter(cmd)
			var err error
			if email == "" {
				if email, err = p.input("Email: "); err != nil {
					return err
				}
			}
			if err := validation.ValidateEmail(email); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			password, err := p.password("Password: ")
			if err != nil {
				return err
			}
			if err := validation.ValidateNonEmptyString("password", password); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}

			c, err := a.apiClient(cmd.Context())
			if err != nil {
				return err
			}
			result, err := c.Login(cmd.Context(), email, password)
			var apiErr *client.APIError
			if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusBadRequest) {
				return clierr.New(clierr.Auth, apiErr.Message, err)
			}
			if err != nil {
				return err
			}
			log.Info().Str("email", email).Msg("Admin login succeeded")
			if result.User != nil && result.User.Role != "" {
				cmd.Printf("Logged in as %s (%s).\n", result.User.Email, result.User.Role)
			} else {
				cmd.Printf("Logged in as %s.\n", email)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Admin email (prompted when omitted)")
	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.apiClient(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.Logout(cmd.Context()); err != nil {
				return err
			}
			cmd.Println("Logged out.")
			return nil
		},
	}
}

// whoamiCmd prints the cached profile without calling the API.
func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in administrator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.apiClient(cmd.Context())
			if err != nil {
				return err
			}
			user, err := c.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			if user == nil {
				return clierr.New(clierr.Auth, "Not logged in. Run 'meterctl login' first.", nil)
			}
			cmd.Println("Email:", user.Email)
			cmd.Println("Name:", orDash(user.FullName))
			cmd.Println("Role:", orDash(user.Role))
			cmd.Println("API:", c.BaseURL)
			return nil
		},
	}
}
