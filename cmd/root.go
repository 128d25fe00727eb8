// Package cmd assembles the devserve command tree.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/akoskinen/devserve/cmd/serve"
	"github.com/akoskinen/devserve/cmd/validate"
	"github.com/akoskinen/devserve/internal/conf"
	"github.com/akoskinen/devserve/internal/logging"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "devserve",
		Short: "devserve development asset server",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if settings.Debug {
				logging.SetLevel(slog.LevelDebug)
			}
		},
	}

	if err := setupFlags(rootCmd, settings); err != nil {
		// flags are defined statically, this only fails on programmer error
		panic(err)
	}

	rootCmd.AddCommand(
		serve.Command(settings),
		validate.Command(settings),
	)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Server.Root, "root", viper.GetString("server.root"), "Project root directory to serve")
	rootCmd.PersistentFlags().StringVar(&settings.Server.Host, "host", viper.GetString("server.host"), "Interface to listen on")
	rootCmd.PersistentFlags().StringVarP(&settings.Server.Port, "port", "p", viper.GetString("server.port"), "Port to listen on")
	rootCmd.PersistentFlags().BoolVar(&settings.Server.Strict, "strict", viper.GetBool("server.strict"), "Enforce the filesystem access boundary")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}
