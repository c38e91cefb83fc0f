package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"xray-assistant/config"
)

type rootOptions struct {
	offline bool
	cfg     *config.Config
}

// NewRoot собирает дерево команд
func NewRoot() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "xray-assistant",
		Short:         "Dental X-ray analysis assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			opts.cfg = cfg

			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: cfg.SlogLevel(),
			})))
			return nil
		},
	}

	root.PersistentFlags().BoolVar(&opts.offline, "offline", false, "Use canned model answers instead of Gemini")

	root.AddCommand(
		newServeCmd(opts),
		newAnalyzeCmd(opts),
		newAnnotateCmd(opts),
	)

	return root
}
