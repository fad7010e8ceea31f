package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	cmd := newRootCmd(os.Stdout)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(out *os.File) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "vellum",
		Short:         "vellum is an AI-assistant CLI with a plugin subsystem",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.AddCommand(newPluginCmd(out))
	return cmd
}
