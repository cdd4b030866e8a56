package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "studios",
		Short: "Seasonal studio booking service",
	}

	rootCmd.AddCommand(
		serveCmd(),
		migrateCmd(),
		quoteCmd(),
		exportCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
