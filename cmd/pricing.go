package cmd

import (
	"strconv"

	"github.com/spf13/cobra"
)

func pricingCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pricing",
		Short: "Inspect and sync model pricing",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List the prices used for billing",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := a.apiClient(cmd.Context())
				if err != nil {
					return err
				}
				entries, err := c.ListPricing(cmd.Context())
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					cmd.Println("No pricing entries found. Use `meterctl pricing sync` to fetch them.")
					return nil
				}

				table := newTable(cmd, []string{"Model", "Provider", "Input / 1K", "Output / 1K", "Updated"})
				for _, e := range entries {
					table.Append([]string{
						e.Model,
						orDash(e.Provider),
						strconv.FormatFloat(e.InputPricePer1K, 'f', -1, 64),
						strconv.FormatFloat(e.OutputPricePer1K, 'f', -1, 64),
						orDash(e.UpdatedAt),
					})
				}
				table.Render()
				return nil
			},
		},
		&cobra.Command{
			Use:   "sync",
			Short: "Pull current prices from the providers",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := a.apiClient(cmd.Context())
				if err != nil {
					return err
				}
				result, err := c.SyncPricing(cmd.Context())
				if err != nil {
					return err
				}
				cmd.Printf("Pricing synced: %d added, %d updated, %d unchanged.\n", result.Added, result.Updated, result.Unchanged)
				if result.Message != "" {
					cmd.Println(result.Message)
				}
				return nil
			},
		},
	)
	return cmd
}
