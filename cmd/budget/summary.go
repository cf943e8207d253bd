package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"budget/internal/cli"
	"budget/internal/core"
	"budget/internal/services"

	"github.com/spf13/cobra"
)

var flagMonth string

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show one month: expenses by category, budgets and the monthly plan",
	RunE:  runSummary,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show totals per month and per year",
	RunE:  runHistory,
}

func init() {
	addUserFlag(summaryCmd)
	addUserFlag(historyCmd)
	summaryCmd.Flags().StringVarP(&flagMonth, "month", "m", "", "Month as YYYY-MM (default current month)")
	rootCmd.AddCommand(summaryCmd, historyCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	userID, err := requireUser()
	if err != nil {
		return err
	}
	month, err := core.ParseMonth(flagMonth, time.Now())
	if err != nil {
		return err
	}

	return withServices(cmd.Context(), func(ctx context.Context, svc *services.Services) error {
		report, err := svc.Analytics.MonthReport(ctx, userID, month)
		if err != nil {
			return err
		}
		lines, err := svc.Budgets.CategoryReport(ctx, userID, month)
		if err != nil {
			return err
		}
		plan, err := svc.Budgets.MonthlySummary(ctx, userID, month)
		hasPlan := err == nil
		if err != nil && !errors.Is(err, core.ErrNotFound) {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, cli.RenderTitle("Budget "+core.MonthKey(month.Time)))
		fmt.Fprintln(out)
		fmt.Fprint(out, cli.RenderAnalytics(report))
		if len(lines) > 0 {
			fmt.Fprintln(out)
			fmt.Fprint(out, renderBudgetLines(lines))
		}
		if hasPlan {
			fmt.Fprintln(out)
			fmt.Fprint(out, renderPlan(plan))
		}
		return nil
	})
}

func runHistory(cmd *cobra.Command, _ []string) error {
	userID, err := requireUser()
	if err != nil {
		return err
	}
	return withServices(cmd.Context(), func(ctx context.Context, svc *services.Services) error {
		h, err := svc.Analytics.History(ctx, userID)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), cli.RenderHistory(h))
		return nil
	})
}

func renderBudgetLines(lines []core.CategoryBudgetLine) string {
	t := cli.Table{
		Title:   "Category budgets",
		Headers: []string{"Category", "Limit", "Spent", "Left"},
	}
	for _, l := range lines {
		left := cli.FormatAmount(l.Left)
		if l.Exceeded {
			left = cli.Warn(left)
		}
		t.Rows = append(t.Rows, []string{
			l.Category.Name,
			cli.FormatAmount(l.Limit) + " " + l.Currency.Code,
			cli.FormatAmount(l.Spent),
			left,
		})
	}
	return cli.RenderTable(t)
}

func renderPlan(s core.MonthlySummary) string {
	return cli.RenderTable(cli.Table{
		Title:   "Monthly plan (" + s.Currency.Code + ")",
		Headers: []string{"", "Plan", "Actual", "Progress"},
		Rows: [][]string{
			{"Income", cli.FormatAmount(s.IncomePlanBase), cli.FormatAmount(s.ActualIncome), cli.FormatPercent(s.IncomeProgress)},
			{"Expenses", cli.FormatAmount(s.ExpensePlanBase), cli.FormatAmount(s.ActualExpenses), cli.FormatPercent(s.ExpenseProgress)},
			cli.Separator,
			{"Balance", cli.FormatAmount(s.BalancePlan), cli.FormatAmount(s.BalanceActual), ""},
		},
	})
}
