package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/zhouzirui/rizzmate/backend/internal/app"
	"github.com/zhouzirui/rizzmate/backend/internal/config"
	"github.com/zhouzirui/rizzmate/backend/internal/model/credit"
	"github.com/zhouzirui/rizzmate/backend/internal/service/admin"
	"github.com/zhouzirui/rizzmate/backend/internal/service/credits"
)

type cli struct {
	db     *gorm.DB
	admin  *admin.Service
	ledger *credits.Ledger

	asUser  string
	asEmail string
	jsonOut bool
}

// wire opens the database on first use so that help and flag errors never
// touch it.
func (c *cli) wire() error {
	if c.db != nil {
		return nil
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	db, err := app.Open(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	c.db = db
	c.admin = app.NewAdminService(db, cfg.Credits)
	c.ledger = app.NewLedger(db, cfg.Credits)
	return nil
}

// close 在命令结束后调用，RunE 出错时同样需要执行
func (c *cli) close() {
	if c.db != nil {
		app.Close(c.db)
	}
}

func (c *cli) caller() credit.Identity {
	return credit.Identity{UserID: c.asUser, Email: c.asEmail}
}

func newRootCmd() (*cobra.Command, *cli) {
	c := &cli{}
	rootCmd := &cobra.Command{
		Use:           "rizzctl",
		Short:         "RizzMate admin CLI: inspect and adjust credit balances",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return c.wire()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&c.asUser, "as", "", "user ID of the admin performing the action")
	flags.StringVar(&c.asEmail, "email", "", "email of the acting admin, used for bootstrap provisioning")
	flags.BoolVar(&c.jsonOut, "json", false, "print JSON instead of tab-separated text")

	rootCmd.AddCommand(
		newAccountsCmd(c),
		newTransactionsCmd(c),
	)

	return rootCmd, c
}
