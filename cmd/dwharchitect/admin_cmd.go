package main

import (
	"context"
	"fmt"
	"time"

	"github.com/clouddwh/architect/internal/client"
	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administer accounts (requires the admin key)",
}

var adminAccountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List all accounts",
	Args:  cobra.NoArgs,
	RunE:  runAdminAccounts,
}

var adminUnlockCmd = &cobra.Command{
	Use:   "unlock <account-id>",
	Short: "Unlock an account so it can sign in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetLocked(cmd, args[0], false)
	},
}

var adminLockCmd = &cobra.Command{
	Use:   "lock <account-id>",
	Short: "Lock an account and end its sessions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetLocked(cmd, args[0], true)
	},
}

func init() {
	adminCmd.PersistentFlags().StringVar(&adminKey, "admin-key", "", "administrator key (env DWH_ADMIN_KEY)")
	adminCmd.AddCommand(adminAccountsCmd, adminUnlockCmd, adminLockCmd)
	rootCmd.AddCommand(adminCmd)
}

func runAdminAccounts(cmd *cobra.Command, args []string) error {
	c, err := adminClient(cmd)
	if err != nil {
		return err
	}
	accounts, err := call(cmd, c.Accounts)
	if err != nil {
		return err
	}

	tw := newTable(cmd.OutOrStdout())
	fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tLOCKED\tLAST LOGIN")
	for _, a := range accounts {
		last := "never"
		if a.Data.State.LastLogin != nil {
			last = a.Data.State.LastLogin.Local().Format(time.DateTime)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n", a.ID, a.Data.Profile.Email, a.Data.Common.Name, a.Data.State.Locked, last)
	}
	return tw.Flush()
}

func runSetLocked(cmd *cobra.Command, id string, locked bool) error {
	c, err := adminClient(cmd)
	if err != nil {
		return err
	}
	acc, err := call(cmd, func(ctx context.Context) (*client.Account, error) {
		return c.SetLocked(ctx, id, locked)
	})
	if err != nil {
		return err
	}
	verb := "Unlocked"
	if acc.Data.State.Locked {
		verb = "Locked"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", verb, acc.Data.Profile.Email, acc.ID)
	return nil
}
