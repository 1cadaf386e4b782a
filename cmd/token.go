package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nullpath7/agentcore-cli/internal/auth"
)

func newTokenCmd() *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Mint and inspect workload access tokens for the local emulator",
	}
	tokenCmd.AddCommand(newTokenMintCmd(), newTokenDecodeCmd())
	return tokenCmd
}

func newTokenMintCmd() *cobra.Command {
	mintCmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint a bearer token signed with the emulator secret",
		Long: `Mint signs a short-lived HS256 token with the secret from
AGENTCORE_SERVE_SECRET. Export the result as AGENTCORE_BEARER_TOKEN to
authenticate invoke commands against a secured emulator.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := getConfig()
			if c.Serve.AuthSecret == "" {
				return fmt.Errorf("AGENTCORE_SERVE_SECRET is not set")
			}

			workload, _ := cmd.Flags().GetString("workload")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			if ttl == 0 {
				ttl = c.Serve.TokenTTL
			}

			token, err := auth.Mint(c.Serve.AuthSecret, c.Serve.AuthIssuer, workload, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	mintCmd.Flags().StringP("workload", "w", "agentcore-cli", "workload name embedded in the token")
	mintCmd.Flags().Duration("ttl", 0, "token lifetime (defaults to serve.token_ttl)")
	return mintCmd
}

func newTokenDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <token>",
		Short: "Print the claims of a token without verifying it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			claims, err := auth.Decode(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Workload: %s\n", claims.Workload)
			fmt.Fprintf(out, "Issuer:   %s\n", claims.Issuer)
			fmt.Fprintf(out, "Subject:  %s\n", claims.Subject)
			if claims.IssuedAt != nil {
				fmt.Fprintf(out, "Issued:   %s\n", claims.IssuedAt.Format(time.RFC3339))
			}
			if claims.ExpiresAt != nil {
				fmt.Fprintf(out, "Expires:  %s", claims.ExpiresAt.Format(time.RFC3339))
				if time.Now().After(claims.ExpiresAt.Time) {
					fmt.Fprint(out, " (expired)")
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}
