// Command credvault runs the credential vault service and its helper commands.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container
)

var rootCmd = &cobra.Command{
	Use:   "credvault",
	Short: "Multi-tenant credential vault",
	Long: `credvault stores client credentials encrypted at rest and exports them
as password-protected workbooks.

Run "credvault serve" to start the HTTP API.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(newServeCmd(), newPasswordCmd())

	if err := rootCmd.Execute(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}
