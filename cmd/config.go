package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/habedi/meterctl/config"
	"github.com/habedi/meterctl/pkg/clierr"
	"github.com/spf13/cobra"
)

func configCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and write the configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the configuration after defaults, file and environment are applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			out, err := config.Dump(cfg)
			if err != nil {
				return err
			}
			cmd.Print(out)
			return nil
		},
	}, configInitCmd(a))
	return cmd
}

// configInitCmd writes the effective configuration so later invocations need
// neither flags nor environment variables.
func configInitCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to the config file",
		Long: "Write the configuration resolved from defaults, the environment and --api-url " +
			"to the config file. The redis password is never written.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DiscoverPath(a.configPath)
			if !force {
				if _, err := os.Stat(path); err == nil {
					return clierr.New(clierr.Validation, fmt.Sprintf("%s already exists (use --force to overwrite)", path), nil)
				} else if !errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("failed to check %s: %w", path, err)
				}
			}

			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if err := config.Save(cfg, path); err != nil {
				return clierr.New(clierr.Internal, "failed to write configuration: "+err.Error(), err)
			}
			cmd.Printf("Wrote configuration to %s.\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}
