package main

import (
	"context"
	"errors"
	"fmt"

	"budget/internal/cli"
	"budget/internal/config"
	"budget/internal/services"

	"github.com/spf13/cobra"
)

var flagCurrenciesFile string

var currenciesCmd = &cobra.Command{
	Use:   "currencies",
	Short: "Currency commands",
}

var currenciesSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create or update currencies from a TOML file",
	RunE:  runCurrenciesSeed,
}

var currenciesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List currencies and their rates",
	RunE:  runCurrenciesList,
}

func init() {
	currenciesSeedCmd.Flags().StringVarP(&flagCurrenciesFile, "file", "f", "", "Seed file (default CURRENCIES_FILE)")
	currenciesCmd.AddCommand(currenciesSeedCmd, currenciesListCmd)
	rootCmd.AddCommand(currenciesCmd)
}

func runCurrenciesSeed(cmd *cobra.Command, _ []string) error {
	path := flagCurrenciesFile
	if path == "" {
		path = appConfig.CurrenciesFile
	}
	if path == "" {
		return errors.New("no currencies file: pass --file or set CURRENCIES_FILE")
	}
	return withServices(cmd.Context(), func(ctx context.Context, svc *services.Services) error {
		return seedCurrencies(ctx, svc, path)
	})
}

func seedCurrencies(ctx context.Context, svc *services.Services, path string) error {
	seed, err := config.LoadCurrencies(path)
	if err != nil {
		return err
	}
	created, updated, err := svc.Catalog.SeedCurrencies(ctx, seed)
	if err != nil {
		return fmt.Errorf("seed currencies: %w", err)
	}
	logger.Info("Currencies seeded", "file", path, "created", created, "updated", updated)
	return nil
}

func runCurrenciesList(cmd *cobra.Command, _ []string) error {
	return withServices(cmd.Context(), func(ctx context.Context, svc *services.Services) error {
		currencies, err := svc.Catalog.ListCurrencies(ctx)
		if err != nil {
			return err
		}
		t := cli.Table{Headers: []string{"Code", "Name", "Symbol", "Rate"}}
		for _, c := range currencies {
			t.Rows = append(t.Rows, []string{c.Code, c.Name, c.Symbol, c.Rate.StringFixed(4)})
		}
		fmt.Fprint(cmd.OutOrStdout(), cli.RenderTable(t))
		return nil
	})
}
