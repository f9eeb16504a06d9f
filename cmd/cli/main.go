package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	token   string
	timeout time.Duration
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "checkledger-cli",
		Short:         "CheckLedger CLI tool",
		Long:          `A command line interface for interacting with the CheckLedger API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the CheckLedger API")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("CHECKLEDGER_TOKEN"), "Bearer token (defaults to $CHECKLEDGER_TOKEN)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		accountCmd(),
		creditCmd(),
		debitCmd(),
		transferCmd(),
		reverseCmd(),
		historyCmd(),
		reportCmd(),
		reconcileCmd(),
		simulateCmd(),
		tokenCmd(),
	)

	return rootCmd
}

func newClient() *apiClient {
	return &apiClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
