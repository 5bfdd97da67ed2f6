package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Krimson/heart-risk/internal/config"
	"github.com/Krimson/heart-risk/internal/logging"
)

// cli общее состояние подкоманд после PersistentPreRunE.
type cli struct {
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "heartrisk",
		Short:         "Heart disease risk classroom demo",
		Long:          "heartrisk scores a clinical observation with a pre-trained forest and flags implausible inputs. Not a medical device.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.logger = logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
			slog.SetDefault(c.logger)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "Path to config.yaml (overrides CONFIG_PATH env var)")

	root.AddCommand(newServeCmd(c))
	root.AddCommand(newEvaluateCmd(c))
	root.AddCommand(newEncodeCmd(c))
	root.AddCommand(newPublishModelCmd(c))
	return root
}
