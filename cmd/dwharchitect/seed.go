package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/clouddwh/architect/internal/account"
	"github.com/clouddwh/architect/internal/config"
	"github.com/clouddwh/architect/internal/document"
	"github.com/clouddwh/architect/internal/identity"
	"github.com/clouddwh/architect/internal/project"
	"github.com/spf13/cobra"
)

const demoEmail = "demo@clouddwh.example"

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with an unlocked demo account and project",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func demoDefinition(owner project.Member) project.Definition {
	desc := "Sample warehouse layout to explore the editor"
	return project.Definition{
		Name:        "Demo Warehouse",
		Description: &desc,
		Owner:       owner,
		Attributes: []project.Attribute{
			{Key: "region", Type: project.AttributeString, Value: "eu-central-1"},
			{Key: "nodes", Type: project.AttributeNumber, Value: 2},
			{Key: "encrypted", Type: project.AttributeBoolean, Value: true},
		},
	}
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return errors.New("seeding needs database.url; in-memory data would vanish on exit")
	}

	ctx := context.Background()
	st, err := newStack(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	// Check if seed has already run.
	if _, err := st.accounts.GetByEmail(ctx, demoEmail); err == nil {
		slog.Info("demo data already exists, skipping seed")
		return nil
	} else if !errors.Is(err, account.ErrNotFound) {
		return fmt.Errorf("checking existing accounts: %w", err)
	}

	password, err := randomPassword()
	if err != nil {
		return err
	}

	auth := identity.NewAuth(st.provider)
	acc, err := st.accounts.Create(ctx, auth, account.Registration{
		FirstName:       "Demo",
		LastName:        "User",
		Email:           demoEmail,
		Password:        password,
		PasswordConfirm: password,
		Language:        account.DefaultLanguage,
	})
	if err != nil {
		return fmt.Errorf("creating demo account: %w", err)
	}
	if err := st.accounts.Logout(ctx, auth); err != nil {
		return err
	}
	if _, err := st.accounts.SetLocked(ctx, acc.ID, false); err != nil {
		return fmt.Errorf("unlocking demo account: %w", err)
	}
	slog.Info("created demo account", "id", acc.ID, "email", demoEmail)

	owner := project.Member{ID: acc.ID, Name: acc.Data.Common.Name, Role: project.RoleOwner}
	p, err := st.projects.Create(document.WithActor(ctx, owner.Name), demoDefinition(owner))
	if err != nil {
		return fmt.Errorf("creating demo project: %w", err)
	}
	slog.Info("created demo project", "id", p.ID, "name", p.Data.Common.Name)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n=== Demo Data Seeded ===\n")
	fmt.Fprintf(out, "Account:   %s (%s)\n", demoEmail, acc.ID)
	fmt.Fprintf(out, "Password:  %s\n", password)
	fmt.Fprintf(out, "Project:   %s (%s)\n", p.Data.Common.Name, p.ID)
	fmt.Fprintf(out, "\nTry it:\n")
	fmt.Fprintf(out, "  dwharchitect login --email %s\n", demoEmail)
	fmt.Fprintf(out, "  dwharchitect project list\n")
	return nil
}

func randomPassword() (string, error) {
	b := make([]byte, 9)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}
	return hex.EncodeToString(b), nil
}
