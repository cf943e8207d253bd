package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"budget/internal/services"

	"github.com/spf13/cobra"
)

var flagOut string

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import transactions from a Date,Category,Amount,Description CSV",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export transactions as CSV",
	RunE:  runExport,
}

func init() {
	addUserFlag(importCmd)
	addUserFlag(exportCmd)
	exportCmd.Flags().StringVarP(&flagOut, "out", "o", "", "Output file (default stdout)")
	rootCmd.AddCommand(importCmd, exportCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	userID, err := requireUser()
	if err != nil {
		return err
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	return withServices(cmd.Context(), func(ctx context.Context, svc *services.Services) error {
		res, err := svc.Transfer.Import(ctx, userID, f)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d, skipped %d\n", res.Imported, res.Skipped)
		return nil
	})
}

func runExport(cmd *cobra.Command, _ []string) (err error) {
	userID, err := requireUser()
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if flagOut != "" {
		f, err := os.Create(flagOut)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}

	return withServices(cmd.Context(), func(ctx context.Context, svc *services.Services) error {
		return svc.Transfer.Export(ctx, userID, w)
	})
}
