package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	logLevel string
	log      *logrus.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{log: logrus.New()}

	cmd := &cobra.Command{
		Use:   "blocks",
		Short: "Discover and inspect Blocks plugins",
		Long: `blocks finds plugin directories, reads the manifest embedded in each
plugin archive and loads the plugin in an interpreter of its own.`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, err := logrus.ParseLevel(opts.logLevel)
			if err != nil {
				return err
			}
			opts.log.SetLevel(level)
			opts.log.SetOutput(cmd.ErrOrStderr())
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warning", "log level (trace, debug, info, warning, error)")

	cmd.AddCommand(newListCommand(opts))
	cmd.AddCommand(newInspectCommand(opts))

	return cmd
}
