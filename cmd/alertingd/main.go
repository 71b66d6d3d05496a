package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configFile string

func main() {
	root := &cobra.Command{
		Use:   "alertingd",
		Short: "Threshold-based alerting engine for the log analytics platform",
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to an optional TOML config overlay")

	root.AddCommand(serveCmd())
	root.AddCommand(validateRulesCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
