package main

import (
	"github.com/spf13/cobra"
)

type options struct {
	configPath    string
	embeddedRedis bool
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "authd",
		Short:         "Operate the school authentication core",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file; env vars override it")
	cmd.PersistentFlags().BoolVar(&opts.embeddedRedis, "embedded-redis", false, "use an in-process Redis instead of redis.addr")

	cmd.AddCommand(
		newMigrateCommand(opts),
		newLockoutCommand(opts),
		newTokenCommand(opts),
		newServeCommand(opts),
	)
	return cmd
}
