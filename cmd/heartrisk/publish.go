package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Krimson/heart-risk/internal/app"
)

func newPublishModelCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "publish-model <artifact.json>",
		Short: "Store a forest artifact in PostgreSQL as the next version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read artifact: %w", err)
			}

			store, err := app.PostgresStore(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			artifact, err := store.Publish(cmd.Context(), payload)
			if err != nil {
				return err
			}

			c.logger.Info("model published",
				slog.String("name", artifact.Name),
				slog.Int("version", artifact.Version))
			fmt.Fprintf(cmd.OutOrStdout(), "%s v%d\n", artifact.Name, artifact.Version)
			return nil
		},
	}
}
