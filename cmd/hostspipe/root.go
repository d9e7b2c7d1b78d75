package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/turbot/hostspipe/logging"
)

const (
	appName = "hostspipe"

	flagConfig      = "config"
	flagLogLevel    = "log-level"
	flagMetricsAddr = "metrics-addr"
)

var exitCode int

// Build the cobra command that handles our command line tool.
func rootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "hostspipe COMMAND [args]",
		Short:         "Fetch domain lists and publish them as hosts files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// bind the flags of the command being run, so flags of the same name on other commands do not collide
			if err := viper.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			logging.InitializeWithLevel(appName, viper.GetString(flagLogLevel))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().String(flagConfig, "hostspipe.hcl", "Path to the list config file")
	rootCmd.PersistentFlags().String(flagLogLevel, "info", "Log level: debug, info, warn, error or off")

	viper.SetEnvPrefix(appName)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(
		runCmd(),
		validateCmd(),
	)

	return rootCmd
}

func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := rootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		rootCmd.PrintErrln("Error:", err)
		exitCode = 1
	}
	return exitCode
}
