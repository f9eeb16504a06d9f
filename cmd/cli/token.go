package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/checkledger/internal/infrastructure/auth"
)

func tokenCmd() *cobra.Command {
	var (
		secret string
		role   string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token <operator>",
		Short: "Mint a bearer token for the API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return errors.New("a signing secret is required (--secret or $JWT_SECRET)")
			}
			signed, err := auth.NewJWTManager(secret, ttl).Generate(args[0], auth.Role(role))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), signed)
			return err
		},
	}
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "Signing secret (defaults to $JWT_SECRET)")
	cmd.Flags().StringVar(&role, "role", string(auth.RoleOperator), "operator or viewer")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
