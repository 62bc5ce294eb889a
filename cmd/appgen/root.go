package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	envFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "appgen",
	Short: "Generate single-file HTML apps from a description",
	Long: `Appgen sends a description to a language model and writes back a
complete, self-contained HTML document.

Provider settings come from the environment (LLM_PROVIDER, LLM_MODEL,
GENERATION_TIMEOUT_MS, ...) and from an optional .env file.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log each attempt to stderr")
}
