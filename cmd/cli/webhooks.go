package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/ztrans-apps/crm-sub001/store/postgres"
	"github.com/ztrans-apps/crm-sub001/subscriptions"
)

var webhooksCmd = &cobra.Command{
	Use:   "webhooks",
	Short: "Webhook subscription files",
}

var webhooksValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a subscriptions file",
	Long:  "Validate a subscriptions YAML file and print the webhooks it defines. Exit code 1 means invalid.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file := "webhooks.yaml"
		if len(args) > 0 {
			file = args[0]
		}

		fmt.Printf("Validating subscriptions file: %s\n", file)
		loader := subscriptions.NewLoader()
		if err := loader.Load(file); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}

		list := loader.List()
		fmt.Printf("✓ VALIDATION PASSED\n\nLoaded %d webhook(s):\n", len(list))
		for i, w := range list {
			fmt.Printf("\n%d. Webhook: %s (%s)\n", i+1, w.Name, w.ID)
			fmt.Printf("   Tenant:      %s\n", w.TenantID)
			fmt.Printf("   URL:         %s\n", w.URL)
			fmt.Printf("   Events:      %s\n", strings.Join(w.Events, ", "))
			fmt.Printf("   Active:      %t\n", w.IsActive)
			fmt.Printf("   Retry Count: %d\n", w.RetryCount)
			fmt.Printf("   Timeout:     %dms\n", w.TimeoutMS)
			fmt.Printf("   Signed:      %t\n", w.Secret != "")
		}
		return nil
	},
}

var webhooksSeedCmd = &cobra.Command{
	Use:   "seed <file>",
	Short: "Upsert the webhooks of a subscriptions file into the database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}

		loader := subscriptions.NewLoader()
		if err := loader.Load(args[0]); err != nil {
			return err
		}

		ctx := context.Background()
		db, err := postgres.Open(ctx, cfg.Database.URL, postgres.DefaultPoolConfig())
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := loader.Seed(ctx, postgres.NewWebhookRepository(db))
		if err != nil {
			return err
		}
		fmt.Printf("✓ %d webhook(s) seeded\n", n)
		return nil
	},
}

func init() {
	webhooksCmd.AddCommand(webhooksValidateCmd, webhooksSeedCmd)
}
