package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/profile-enricher/internal/config"
	"github.com/jonathan/profile-enricher/internal/observability"
)

var topicsCommand = &cobra.Command{
	Use:   "topics",
	Short: "Canonicalize profile topic labels against an alias table",
	Long: `Runs only the topic canonicalization pass: every profile's raw topic labels are normalized and resolved through the multilingual alias table. Unresolved labels are dropped, never guessed.

The output is a JSON mapping from handle to canonical topics.`,
	RunE: runTopicsCmd,
}

var (
	topicsProfiles   string
	topicsAliasTable string
	topicsOutput     string
	topicsStrict     bool
	topicsVerbose    bool
)

func init() {
	topicsCommand.Flags().StringVarP(&topicsProfiles, "profiles", "p", "", "Path to profiles JSON file")
	topicsCommand.Flags().StringVarP(&topicsAliasTable, "alias-table", "a", "", "Path to topic alias table JSON file")
	topicsCommand.Flags().StringVarP(&topicsOutput, "output", "o", "", "Path to write the handle -> topics JSON mapping (default stdout only)")
	topicsCommand.Flags().BoolVar(&topicsStrict, "strict-aliases", false, "Abort on alias table conflicts instead of keeping the first-seen mapping")
	topicsCommand.Flags().BoolVarP(&topicsVerbose, "verbose", "v", false, "Print detailed debug information")

	_ = topicsCommand.MarkFlagRequired("profiles")
	_ = topicsCommand.MarkFlagRequired("alias-table")

	rootCmd.AddCommand(topicsCommand)
}

func runTopicsCmd(_ *cobra.Command, _ []string) error {
	logger, err := newLogger(topicsVerbose)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck // stdout sync errors are not actionable

	profiles, err := loadProfiles(topicsProfiles)
	if err != nil {
		return err
	}

	cfg := config.Config{AliasTable: topicsAliasTable, StrictAliases: topicsStrict}
	canon, err := buildCanonicalizer(cfg, logger)
	if err != nil {
		return err
	}

	byHandle := make(map[string][]string)
	for _, p := range profiles {
		if canonical := canon.Canonicalize(p.Topics); len(canonical) > 0 {
			byHandle[p.Key()] = canonical
		}
	}

	observability.NewPrinter(os.Stdout).PrintTopicReport(byHandle, canon.Stats(), canon.Conflicts())

	if topicsOutput != "" {
		data, err := json.MarshalIndent(byHandle, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal topics: %w", err)
		}
		if err := os.WriteFile(topicsOutput, data, 0o644); err != nil {
			return fmt.Errorf("failed to write topics file: %w", err)
		}
		fmt.Printf("Topics written to %s\n", topicsOutput)
	}
	return nil
}
