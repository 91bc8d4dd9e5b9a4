package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ztrans-apps/crm-sub001/queue/redis"
)

var deadCmd = &cobra.Command{
	Use:   "dead <queue>",
	Short: "List dead-lettered jobs of a queue",
	Long:  "List the most recent jobs that used up their attempts, e.g. crmctl dead webhooks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt64("limit")

		q, err := redis.Connect(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		ctx := context.Background()
		defer q.Close(ctx)

		jobs, err := q.DeadJobs(ctx, args[0], limit)
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			fmt.Fprintf(os.Stderr, "no dead jobs in %s\n", args[0])
			return nil
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(jobs)
	},
}

func init() {
	deadCmd.Flags().Int64("limit", 20, "maximum number of jobs to print")
}
