package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/rizzmate/backend/internal/model/credit"
	"github.com/zhouzirui/rizzmate/backend/internal/service/admin"
)

func newAccountsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage credit profiles",
	}

	cmd.AddCommand(
		newAccountsListCmd(c),
		newAccountsBalanceCmd(c),
		newAccountsProvisionCmd(c),
		newAccountsSetCreditsCmd(c),
		newAccountsToggleAdminCmd(c),
	)

	return cmd
}

func newAccountsListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all profiles, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			accounts, err := c.admin.ListAccounts(cmd.Context(), c.caller())
			if err != nil {
				return err
			}
			if c.jsonOut {
				return writeJSON(cmd.OutOrStdout(), accounts)
			}
			for _, a := range accounts {
				printAccount(cmd.OutOrStdout(), a)
			}
			return nil
		},
	}
}

func newAccountsBalanceCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <user-id>",
		Short: "Print a balance, provisioning the profile on first sight",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			credits, err := c.ledger.FetchBalance(cmd.Context(), credit.Identity{UserID: args[0]})
			if err != nil {
				return err
			}
			if c.jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"userId": args[0], "credits": credits})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d\n", credits)
			return err
		},
	}
}

func newAccountsProvisionCmd(c *cli) *cobra.Command {
	var email, name string
	cmd := &cobra.Command{
		Use:   "provision <user-id>",
		Short: "Create a profile with the default balance if it does not exist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := c.ledger.Ensure(cmd.Context(), credit.Identity{UserID: args[0], Email: email, FullName: name})
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), account)
		},
	}
	cmd.Flags().StringVar(&email, "user-email", "", "email stored on the new profile")
	cmd.Flags().StringVar(&name, "name", "", "full name stored on the new profile")
	return cmd
}

func newAccountsSetCreditsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "set-credits <user-id> <credits>",
		Short: "Overwrite a balance and record the adjustment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := admin.ParseCredits(args[1])
			if err != nil {
				return err
			}
			account, err := c.admin.SetCredits(cmd.Context(), c.caller(), args[0], n)
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), account)
		},
	}
}

func newAccountsToggleAdminCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle-admin <user-id>",
		Short: "Flip a profile's admin flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := c.admin.ToggleAdmin(cmd.Context(), c.caller(), args[0])
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), account)
		},
	}
}

func (c *cli) print(w io.Writer, a credit.Account) error {
	if c.jsonOut {
		return writeJSON(w, a)
	}
	printAccount(w, a)
	return nil
}

func printAccount(w io.Writer, a credit.Account) {
	role := "user"
	if a.IsAdmin {
		role = "admin"
	}
	_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", a.UserID, a.Email, a.Credits, role)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
