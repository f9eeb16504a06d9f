package main

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/checkledger/internal/adapter/http/dto"
)

const idempotencyKeyHeader = "Idempotency-Key"

func accountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}

	var initialBalance string
	createCmd := &cobra.Command{
		Use:   "create <holder-name>",
		Short: "Open an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.AccountResponse
			req := dto.CreateAccountRequest{HolderName: args[0], InitialBalance: initialBalance}
			if err := newClient().do(cmd.Context(), http.MethodPost, "/api/v1/accounts", nil, req, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	createCmd.Flags().StringVar(&initialBalance, "initial-balance", "", "Opening balance, e.g. 100.00")

	getCmd := &cobra.Command{
		Use:   "get <account-id>",
		Short: "Show an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.AccountResponse
			if err := newClient().do(cmd.Context(), http.MethodGet, accountPath(args[0]), nil, nil, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	balanceCmd := &cobra.Command{
		Use:   "balance <account-id>",
		Short: "Show the current balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.BalanceResponse
			if err := newClient().do(cmd.Context(), http.MethodGet, accountPath(args[0], "balance"), nil, nil, &resp); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), resp.Balance)
			return err
		},
	}

	availableCmd := &cobra.Command{
		Use:   "available <account-id> <amount>",
		Short: "Check whether an amount can be debited",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.AvailabilityResponse
			query := url.Values{"amount": {args[1]}}
			if err := newClient().do(cmd.Context(), http.MethodGet, accountPath(args[0], "availability"), query, nil, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.AddCommand(createCmd, getCmd, balanceCmd, availableCmd)
	return cmd
}

func postingCmd(use, short, path string) *cobra.Command {
	var description, idempotencyKey string
	cmd := &cobra.Command{
		Use:   use + " <account-id> <amount>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.PostingResponse
			req := dto.PostEntryRequest{Amount: args[1], Description: description}
			if err := newClient().do(cmd.Context(), http.MethodPost, accountPath(args[0], path), nil, req, &resp,
				idempotencyKeyHeader, idempotencyKey); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Entry description")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency key for safe retries")
	return cmd
}

func creditCmd() *cobra.Command {
	return postingCmd("credit", "Credit an account", "credits")
}

func debitCmd() *cobra.Command {
	return postingCmd("debit", "Debit an account", "debits")
}

func transferCmd() *cobra.Command {
	var description, idempotencyKey string
	cmd := &cobra.Command{
		Use:   "transfer <source-id> <destination-id> <amount>",
		Short: "Move money between two accounts",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.TransferResponse
			req := dto.CreateTransferRequest{
				SourceAccountID:      args[0],
				DestinationAccountID: args[1],
				Amount:               args[2],
				Description:          description,
			}
			if err := newClient().do(cmd.Context(), http.MethodPost, "/api/v1/transfers", nil, req, &resp,
				idempotencyKeyHeader, idempotencyKey); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Transfer description")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency key for safe retries")
	return cmd
}

func reverseCmd() *cobra.Command {
	var idempotencyKey string
	cmd := &cobra.Command{
		Use:   "reverse <account-id> <entry-key>",
		Short: "Reverse a credit or debit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.ReversalResponse
			req := dto.ReverseRequest{EntryKey: args[1]}
			if err := newClient().do(cmd.Context(), http.MethodPost, accountPath(args[0], "reversals"), nil, req, &resp,
				idempotencyKeyHeader, idempotencyKey); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency key for safe retries")
	return cmd
}

func historyCmd() *cobra.Command {
	var (
		limit     int
		cursor    string
		entryType string
		all       bool
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "history <account-id>",
		Short: "List entries, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient()
			var entries []*dto.EntryResponse
			next := cursor
			for {
				query := url.Values{"limit": {strconv.Itoa(limit)}}
				if next != "" {
					query.Set("cursor", next)
				}
				if entryType != "" {
					query.Set("type", entryType)
				}

				var page dto.ListEntriesResponse
				if err := client.do(cmd.Context(), http.MethodGet, accountPath(args[0], "entries"), query, nil, &page); err != nil {
					return err
				}
				entries = append(entries, page.Entries...)
				next = page.NextCursor
				if !all || next == "" {
					break
				}
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), dto.ListEntriesResponse{Entries: entries, NextCursor: next})
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CREATED\tTYPE\tAMOUNT\tBALANCE\tREVERSED\tDESCRIPTION")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%s\n",
					e.CreatedAt.Format(time.RFC3339), e.Type, e.Amount, e.BalanceAfter, e.Reversed, truncate(e.Description, 40))
			}
			if next != "" {
				fmt.Fprintf(w, "\nnext cursor: %s\n", next)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Page size")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Continue after this cursor")
	cmd.Flags().StringVar(&entryType, "type", "", "Only credit or debit entries")
	cmd.Flags().BoolVar(&all, "all", false, "Follow cursors until the log is exhausted")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func reportCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "report <account-id>",
		Short: "Summarize the last days of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.ReportResponse
			query := url.Values{"days": {strconv.Itoa(days)}}
			if err := newClient().do(cmd.Context(), http.MethodGet, accountPath(args[0], "report"), query, nil, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "Report period in days")
	return cmd
}

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile <account-id>",
		Short: "Replay the entry log against the recorded balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.ReconciliationResponse
			if err := newClient().do(cmd.Context(), http.MethodGet, accountPath(args[0], "reconciliation"), nil, nil, &resp); err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), resp); err != nil {
				return err
			}
			if !resp.IsReconciled {
				return fmt.Errorf("account %s is not reconciled: difference %s", resp.AccountID, resp.Difference)
			}
			return nil
		},
	}
}
