package main

import (
	"context"
	"fmt"
	"time"

	"budget/internal/log"
	"budget/internal/services"

	"github.com/spf13/cobra"
)

var flagEvery time.Duration

var recurringCmd = &cobra.Command{
	Use:   "recurring",
	Short: "Recurring transaction commands",
}

var recurringProcessCmd = &cobra.Command{
	Use:   "process",
	Short: "Create transactions for due recurring templates",
	Long: "Fires every active template whose next date is today or earlier, once per template.\n" +
		"With --every the command keeps running and repeats on that interval until interrupted.",
	RunE: runRecurringProcess,
}

func init() {
	addUserFlag(recurringProcessCmd)
	recurringProcessCmd.Flags().DurationVar(&flagEvery, "every", 0, "Repeat on this interval (e.g. 1h) instead of running once")
	recurringCmd.AddCommand(recurringProcessCmd)
	rootCmd.AddCommand(recurringCmd)
}

func runRecurringProcess(cmd *cobra.Command, _ []string) error {
	userID, err := requireUser()
	if err != nil {
		return err
	}
	return withServices(cmd.Context(), func(ctx context.Context, svc *services.Services) error {
		if flagEvery <= 0 {
			res, err := svc.Processor.ProcessDue(ctx, userID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "due %d, created %d, skipped %d, failed %d\n",
				res.Due, res.Created, res.Skipped, res.Failed)
			return nil
		}
		return processEvery(ctx, svc.Processor, userID, flagEvery)
	})
}

// processEvery runs the processor immediately and then on every tick until
// ctx is cancelled.
func processEvery(ctx context.Context, p *services.RecurringProcessor, userID int64, every time.Duration) error {
	scheduler := logger.WithComponent(log.ComponentScheduler)
	scheduler.Info("Recurring processor configured", "interval", every, log.FieldUserID, userID)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		if res, err := p.ProcessDue(ctx, userID); err != nil {
			scheduler.Error("Recurring processing failed", log.FieldError, err)
		} else {
			scheduler.Info("Recurring processing complete",
				"created", res.Created,
				"next_check", time.Now().Add(every).Format("15:04:05"))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
