package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ztrans-apps/crm-sub001/config"
)

/* crmctl - operator CLI for the delivery pipeline
 * Usage: go run ./cmd/cli [command]
 */

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "crmctl",
	Short: "CRM delivery pipeline CLI",
	Long: `crmctl manages the CRM delivery pipeline from the terminal.

Run database migrations, validate and seed webhook subscriptions,
generate signing secrets and inspect dead-lettered jobs.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", os.Getenv("CRM_CONFIG"), "config file (default: environment only)")
	rootCmd.AddCommand(migrateCmd, webhooksCmd, secretCmd, signatureCmd, deadCmd)
}

// loadConfig is called by the commands that need the database or Redis
func loadConfig() error {
	if cfg != nil {
		return nil
	}
	c, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	cfg = c
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
