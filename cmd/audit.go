package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/habedi/meterctl/client"
	"github.com/habedi/meterctl/pkg/clierr"
	"github.com/habedi/meterctl/pkg/validation"
	"github.com/spf13/cobra"
)

func auditCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Browse the admin audit log",
	}
	cmd.AddCommand(auditListCmd(a))
	return cmd
}

func auditListCmd(a *app) *cobra.Command {
	var (
		opts     client.AuditLogOptions
		enhanced bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List audit log entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.apiClient(cmd.Context())
			if err != nil {
				return err
			}
			if enhanced {
				page, err := c.ListEnhancedAuditLogs(cmd.Context(), opts)
				if err != nil {
					return err
				}
				renderEnhancedAuditLogs(cmd, page)
				return nil
			}
			page, err := c.ListAuditLogs(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if len(page.Items) == 0 {
				cmd.Println("No audit log entries found.")
				return nil
			}
			table := newTable(cmd, []string{"Time", "User", "Action", "Resource", "IP"})
			for _, l := range page.Items {
				table.Append([]string{l.CreatedAt, orDash(l.UserID), l.Action, orDash(l.Resource), orDash(l.IPAddress)})
			}
			table.Render()
			cmd.Printf("Showing %d of %d entries.\n", len(page.Items), page.Total)
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.Page, "page", "p", 1, "Page number")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 50, "Entries per page")
	cmd.Flags().StringVar(&opts.UserID, "user", "", "Only entries for this user ID")
	cmd.Flags().StringVar(&opts.Action, "action", "", "Only entries with this action")
	cmd.Flags().BoolVar(&enhanced, "enhanced", false, "Use the enhanced view with actors and change sets")
	return cmd
}

func renderEnhancedAuditLogs(cmd *cobra.Command, page *client.EnhancedAuditLogPage) {
	if len(page.Logs) == 0 {
		cmd.Println("No audit log entries found.")
		return
	}
	table := newTable(cmd, []string{"Time", "Actor", "Action", "Resource", "Changes"})
	for _, l := range page.Logs {
		actor := "-"
		if l.Actor != nil {
			actor = orDash(l.Actor.Email)
		}
		resource := l.ResourceType
		if l.ResourceID != "" {
			resource += "/" + l.ResourceID
		}
		table.Append([]string{l.CreatedAt, actor, l.Action, orDash(resource), summarizeChanges(l.Changes)})
	}
	table.Render()
	cmd.Printf("Page %d, showing %d of %d entries.\n", page.Page, len(page.Logs), page.Total)
}

// summarizeChanges lists the changed fields in a stable order.
func summarizeChanges(changes map[string]any) string {
	if len(changes) == 0 {
		return "-"
	}
	fields := make([]string, 0, len(changes))
	for k := range changes {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return strings.Join(fields, ", ")
}

func statsCmd(a *app) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show platform usage statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateDays(days); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			c, err := a.apiClient(cmd.Context())
			if err != nil {
				return err
			}
			stats, err := c.UsageStats(cmd.Context(), days)
			if err != nil {
				return err
			}
			cmd.Printf("Usage over the last %d days\n", days)
			cmd.Println("Requests:", stats.TotalRequests)
			cmd.Println("Tokens:", stats.TotalTokens)
			cmd.Println("Cost:", fmt.Sprintf("%.2f", stats.TotalCost))
			cmd.Println("Active users:", stats.ActiveUsers)
			if len(stats.Daily) > 0 {
				table := newTable(cmd, []string{"Date", "Requests", "Tokens", "Cost"})
				for _, d := range stats.Daily {
					table.Append([]string{d.Date, fmt.Sprint(d.Requests), fmt.Sprint(d.Tokens), fmt.Sprintf("%.2f", d.Cost)})
				}
				table.Render()
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", 30, "Window size in days [1-365]")
	return cmd
}
