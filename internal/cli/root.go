// Package cli implements the medingest command line interface using Cobra.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "medingest",
	Short: "Ingest medical documents into a Qdrant vector collection",
	Long: `medingest runs the document ingestion pipeline from the command line:
extract text, normalize it, segment it along the heading hierarchy, then
embed each segment with Ollama and store the vectors in Qdrant.

Usage:
  medingest run <dir> [flags]
  medingest collections <list|stats|clear|delete> [name]`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
