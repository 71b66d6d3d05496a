package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"prosimcorp.com/alerting/internal/config"
	"prosimcorp.com/alerting/internal/logging"
	"prosimcorp.com/alerting/internal/ruleset"
)

// validateRulesCmd loads and validates every rule file without starting
// the scheduler or connecting to OpenSearch, for use in CI to catch a
// broken rule file before it reaches a running service.
func validateRulesCmd() *cobra.Command {
	var rulesDir string

	cmd := &cobra.Command{
		Use:   "validate-rules",
		Short: "Load and validate alert rule files, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			dir := rulesDir
			if dir == "" {
				dir = cfg.AlertRulesDir
			}

			logger := logging.New(cfg.LogLevel, cfg.Environment)
			loader := ruleset.New(dir, logger)
			valid, failures := loader.Validate()

			fmt.Printf("%d valid rule(s) in %s\n", len(valid), dir)
			if len(failures) > 0 {
				for path, ferr := range failures {
					fmt.Printf("  %s: %v\n", path, ferr)
				}
				return fmt.Errorf("%d rule file(s) failed validation", len(failures))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rulesDir, "rules-dir", "", "override the configured alert rules directory")
	return cmd
}
