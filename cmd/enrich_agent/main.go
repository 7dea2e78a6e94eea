// Package main provides the entry point for the profile enricher CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "enrich_agent",
	Short: "Social profile enricher",
	Long:  "Profile Enricher resolves social profiles to verified public identities via search and LLM verification, and canonicalizes their topic labels against a multilingual alias table.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
