package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/PTCGO-Assets/internal/charts"
	"github.com/ramonehamilton/PTCGO-Assets/internal/storage"
)

var (
	reportOutput string
	reportOpen   bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render an HTML report of the variant sizes recorded in the ledger",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "report file (defaults to ledger.report)")
	reportCmd.Flags().BoolVar(&reportOpen, "open", false, "open the report in a browser")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Ledger.Enabled {
		return errors.New("the ledger is disabled")
	}

	db, err := storage.Open(storage.DefaultConfig(cfg.Ledger.Path))
	if err != nil {
		return err
	}
	defer db.Close()
	ledger := storage.NewLedger(db)

	ctx := cmd.Context()
	sizes, err := ledger.VariantSizes(ctx)
	if err != nil {
		return err
	}
	files, bytes, err := ledger.DownloadTotals(ctx)
	if err != nil {
		return err
	}

	output := reportOutput
	if output == "" {
		output = cfg.Ledger.Report
	}
	if err := charts.WriteSizeReport(output, sizes, charts.DefaultChartConfig()); err != nil {
		return err
	}

	cmd.Printf("Sources: %d files, %d bytes\n", files, bytes)
	for _, s := range sizes {
		cmd.Printf("%-24s %-5s %6d files %12d bytes\n", s.Family, s.Format, s.Files, s.Bytes)
	}
	cmd.Printf("Report written to %s\n", output)

	if reportOpen {
		return charts.OpenInBrowser(output)
	}
	return nil
}
