// Package serve starts the development asset server.
package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/akoskinen/devserve/internal/conf"
	"github.com/akoskinen/devserve/internal/httpcontroller"
	"github.com/akoskinen/devserve/internal/logging"
)

const shutdownTimeout = 10 * time.Second

// Command creates the serve command
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve project files over HTTP",
		Long:  "Start the development asset server and serve files under the configured project root, subject to the filesystem access boundary.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runServer(settings)
		},
	}

	return cmd
}

func runServer(settings *conf.Settings) error {
	// Flags may have overridden loaded values, validate the effective settings.
	if err := conf.ValidateSettings(settings); err != nil {
		return err
	}

	server, err := httpcontroller.New(settings)
	if err != nil {
		return fmt.Errorf("error creating server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logging.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("error during shutdown: %w", err)
	}
	return nil
}
