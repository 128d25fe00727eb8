// Package validate checks the devserve configuration without starting a server.
package validate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/akoskinen/devserve/internal/conf"
)

// Command creates the validate command
func Command(settings *conf.Settings) *cobra.Command {
	var generateConfig string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if generateConfig != "" {
				if err := conf.SaveDefaultConfig(generateConfig); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", generateConfig)
				return nil
			}

			if err := conf.ValidateSettings(settings); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration OK\n")
			fmt.Fprintf(cmd.OutOrStdout(), "  root:  %s\n", settings.Server.Root)
			fmt.Fprintf(cmd.OutOrStdout(), "  allow: %v\n", settings.Server.Allow)
			if len(settings.Server.Deny) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "  deny:  %v\n", settings.Server.Deny)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&generateConfig, "generate-config", "", "Write the default configuration to the given path and exit")

	return cmd
}
