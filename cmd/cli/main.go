package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &clientOptions{}

	rootCmd := &cobra.Command{
		Use:           "branchledger-cli",
		Short:         "BranchLedger CLI tool",
		Long:          `A command line interface for the BranchLedger bookkeeping API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the BranchLedger API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("BRANCHLEDGER_TOKEN"), "Bearer token")

	rootCmd.AddCommand(
		accountsCmd(opts),
		importCmd(opts),
		reportCmd(opts),
		tokenCmd(),
	)

	return rootCmd
}
