package main

import (
	"context"
	"fmt"
	"time"

	"github.com/clouddwh/architect/internal/account"
	"github.com/clouddwh/architect/internal/client"
	"github.com/spf13/cobra"
)

var (
	regFirstName string
	regLastName  string
	regEmail     string
	regLanguage  string
	regDark      bool
	loginEmail   string
	resetEmail   string
	resetToken   string
	clearActive  bool
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account (it stays locked until an administrator unlocks it)",
	Args:  cobra.NoArgs,
	RunE:  runRegister,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and remember the session",
	Args:  cobra.NoArgs,
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

var useCmd = &cobra.Command{
	Use:   "use [project-id]",
	Short: "Select the active project",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runUse,
}

var resetCmd = &cobra.Command{
	Use:   "password-reset",
	Short: "Mail a password-reset link",
	Args:  cobra.NoArgs,
	RunE:  runRequestReset,
}

var resetConfirmCmd = &cobra.Command{
	Use:   "confirm",
	Short: "Set a new password with a reset token",
	Args:  cobra.NoArgs,
	RunE:  runConfirmReset,
}

func init() {
	registerCmd.Flags().StringVar(&regFirstName, "first-name", "", "first name")
	registerCmd.Flags().StringVar(&regLastName, "last-name", "", "last name")
	registerCmd.Flags().StringVar(&regEmail, "email", "", "email address")
	registerCmd.Flags().StringVar(&regLanguage, "language", string(account.DefaultLanguage), "interface language, en-US or de-DE")
	registerCmd.Flags().BoolVar(&regDark, "dark", false, "prefer the dark theme")

	loginCmd.Flags().StringVar(&loginEmail, "email", "", "email address")
	_ = loginCmd.MarkFlagRequired("email")

	resetCmd.Flags().StringVar(&resetEmail, "email", "", "email address")
	_ = resetCmd.MarkFlagRequired("email")
	resetConfirmCmd.Flags().StringVar(&resetToken, "token", "", "token from the reset mail")
	_ = resetConfirmCmd.MarkFlagRequired("token")
	resetCmd.AddCommand(resetConfirmCmd)

	useCmd.Flags().BoolVar(&clearActive, "clear", false, "clear the active project")

	rootCmd.AddCommand(registerCmd, loginCmd, logoutCmd, whoamiCmd, useCmd, resetCmd)
}

func runRegister(cmd *cobra.Command, args []string) error {
	password, err := readPassword(cmd, "Password: ")
	if err != nil {
		return err
	}
	confirm, err := readPassword(cmd, "Repeat password: ")
	if err != nil {
		return err
	}

	reg := account.Registration{
		FirstName:       regFirstName,
		LastName:        regLastName,
		Email:           regEmail,
		Password:        password,
		PasswordConfirm: confirm,
		Dark:            regDark,
		Language:        account.Language(regLanguage),
	}
	type registered struct {
		acc     *client.Account
		message string
	}
	res, err := call(cmd, func(ctx context.Context) (registered, error) {
		acc, msg, err := anonClient().Register(ctx, reg)
		return registered{acc, msg}, err
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (%s)\n%s\n", res.acc.Data.Profile.Email, res.acc.ID, res.message)
	return nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	password, err := readPassword(cmd, "Password: ")
	if err != nil {
		return err
	}
	res, err := call(cmd, func(ctx context.Context) (*client.LoginResult, error) {
		return anonClient().Login(ctx, loginEmail, password)
	})
	if err != nil {
		return err
	}

	s := &client.Session{
		Server:    serverURL,
		Token:     res.Token,
		AccountID: res.Account.ID,
		Email:     res.Account.Data.Profile.Email,
		Language:  string(res.Account.Data.Preferences.Language),
		SignedIn:  time.Now().UTC(),
	}
	if err := client.SaveSession(sessionPath, s); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s, %d project(s) visible\n", res.Account.Data.Common.Name, len(res.Projects))
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	c, _, err := sessionClient(cmd)
	if err != nil {
		return err
	}
	// The server answers 204 for unknown tokens too, so any failure here
	// is transport-level and the local session is dropped regardless.
	_, callErr := call(cmd, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.Logout(ctx)
	})
	if err := client.RemoveSession(sessionPath); err != nil {
		return err
	}
	if callErr != nil {
		return callErr
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	c, _, err := sessionClient(cmd)
	if err != nil {
		return err
	}
	me, err := call(cmd, c.Me)
	if err != nil {
		return err
	}

	acc := me.Account.Data
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Name:       %s\n", me.Name)
	fmt.Fprintf(out, "Email:      %s\n", acc.Profile.Email)
	fmt.Fprintf(out, "Language:   %s\n", acc.Preferences.Language)
	fmt.Fprintf(out, "Dark theme: %t\n", acc.Preferences.Dark)
	if acc.State.LastLogin != nil {
		fmt.Fprintf(out, "Last login: %s\n", acc.State.LastLogin.Local().Format(time.RFC1123))
	}
	active := "-"
	for _, p := range me.Projects {
		if acc.State.ActiveProjectID != nil && p.ID == *acc.State.ActiveProjectID {
			active = fmt.Sprintf("%s (%s)", p.Data.Common.Name, p.ID)
		}
	}
	fmt.Fprintf(out, "Active:     %s\n", active)
	fmt.Fprintf(out, "Projects:   %d\n", len(me.Projects))
	return nil
}

func runUse(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !clearActive {
		return fmt.Errorf("give a project id or --clear")
	}
	c, _, err := sessionClient(cmd)
	if err != nil {
		return err
	}
	var id *string
	if !clearActive {
		id = &args[0]
	}
	if _, err := call(cmd, func(ctx context.Context) (*client.Account, error) {
		return c.SetActiveProject(ctx, id)
	}); err != nil {
		return err
	}
	if id == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "Active project cleared")
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Active project is now %s\n", *id)
	}
	return nil
}

func runRequestReset(cmd *cobra.Command, args []string) error {
	msg, err := call(cmd, func(ctx context.Context) (string, error) {
		return anonClient().RequestReset(ctx, resetEmail)
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}

func runConfirmReset(cmd *cobra.Command, args []string) error {
	password, err := readPassword(cmd, "New password: ")
	if err != nil {
		return err
	}
	msg, err := call(cmd, func(ctx context.Context) (string, error) {
		return anonClient().ConfirmReset(ctx, resetToken, password)
	})
	if err != nil {
		return err
	}
	_ = client.RemoveSession(sessionPath)
	fmt.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}
