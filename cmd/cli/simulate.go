package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/iho/checkledger/internal/adapter/http/dto"
)

// simulationAmounts are drawn at random; negative values are debits.
var simulationAmounts = []int{100, -50, 200, -150}

type simulationResult struct {
	Credits  int64
	Debits   int64
	Rejected int64
	Balance  string
	Recon    dto.ReconciliationResponse
}

func simulateCmd() *cobra.Command {
	var workers, operations int
	cmd := &cobra.Command{
		Use:   "simulate <account-id>",
		Short: "Post random credits and debits concurrently, then reconcile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := simulate(cmd.Context(), newClient(), args[0], workers, operations)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "credits: %d, debits: %d, rejected: %d\n", res.Credits, res.Debits, res.Rejected)
			fmt.Fprintf(out, "final balance: %s\n", res.Balance)
			fmt.Fprintf(out, "reconciled: %t (entries: %d, difference: %s)\n",
				res.Recon.IsReconciled, res.Recon.EntryCount, res.Recon.Difference)
			if !res.Recon.IsReconciled {
				return errors.New("reconciliation failed after simulation")
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 10, "Concurrent workers")
	cmd.Flags().IntVar(&operations, "operations", 50, "Total operations to post")
	return cmd
}

// simulate fires operations random postings at accountID from at most
// workers goroutines. Debits refused for insufficient funds are counted, not
// treated as failures.
func simulate(ctx context.Context, client *apiClient, accountID string, workers, operations int) (*simulationResult, error) {
	if workers < 1 {
		return nil, fmt.Errorf("workers must be at least 1")
	}

	var res simulationResult
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 0; i < operations; i++ {
		amount := simulationAmounts[rand.IntN(len(simulationAmounts))]
		g.Go(func() error {
			path, counter := "credits", &res.Credits
			if amount < 0 {
				path, counter = "debits", &res.Debits
				amount = -amount
			}

			req := dto.PostEntryRequest{Amount: strconv.Itoa(amount), Description: "simulation"}
			err := client.do(gctx, http.MethodPost, accountPath(accountID, path), nil, req, nil)

			var apiErr *apiError
			switch {
			case err == nil:
				atomic.AddInt64(counter, 1)
			case errors.As(err, &apiErr) && apiErr.Status == http.StatusUnprocessableEntity:
				atomic.AddInt64(&res.Rejected, 1)
			default:
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var balance dto.BalanceResponse
	if err := client.do(ctx, http.MethodGet, accountPath(accountID, "balance"), nil, nil, &balance); err != nil {
		return nil, err
	}
	res.Balance = balance.Balance

	if err := client.do(ctx, http.MethodGet, accountPath(accountID, "reconciliation"), nil, nil, &res.Recon); err != nil {
		return nil, err
	}
	return &res, nil
}
