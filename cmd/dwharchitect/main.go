package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/clouddwh/architect/internal/client"
	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	serverURL   string
	sessionPath string
	language    string
	adminKey    string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:           "dwharchitect",
	Short:         "Cloud DWH Architect server and client",
	Long:          "dwharchitect serves the Cloud DWH Architect API (accounts, sign-in sessions and data-warehouse projects) and talks to a running server from the command line.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	defaultServer := os.Getenv("DWH_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:8080"
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: built-in defaults plus DWH_* environment)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServer, "API server URL for client commands (env DWH_SERVER)")
	rootCmd.PersistentFlags().StringVar(&sessionPath, "session", client.DefaultSessionPath(), "file that keeps the signed-in session")
	rootCmd.PersistentFlags().StringVar(&language, "lang", os.Getenv("DWH_LANG"), "message language, en-US or de-DE (env DWH_LANG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log client failures in detail")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
