package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/rizzmate/backend/internal/service/admin"
)

func newTransactionsCmd(c *cli) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "Show recent credit transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			txs, err := c.admin.RecentTransactions(cmd.Context(), c.caller(), limit)
			if err != nil {
				return err
			}
			if c.jsonOut {
				return writeJSON(cmd.OutOrStdout(), txs)
			}
			for _, tx := range txs {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d\t%s\n",
					tx.CreatedAt.Format(time.RFC3339), tx.UserID, tx.CreditsUsed, tx.ActionType)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", admin.DefaultTransactionLimit, "maximum number of transactions")
	return cmd
}
