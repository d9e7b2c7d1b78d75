package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/turbot/hostspipe/config"
)

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [flags]",
		Short: "Parse and validate the config file without fetching any lists",
		Args:  cobra.NoArgs,
		RunE:  runValidateCmd,
	}
}

func runValidateCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(viper.GetString(flagConfig))
	if err != nil {
		return err
	}
	for _, l := range cfg.Lists {
		d := l.Descriptor()
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s\n", l.Name, d.Location(), l.OutputFileName())
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d lists ok\n", len(cfg.Lists))
	return nil
}
