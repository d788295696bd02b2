package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/typetrace/typetrace/internal/export"
	"github.com/typetrace/typetrace/internal/metrics"
)

var (
	exportRange  string
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export raw records and stats (json, csv, yaml)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tr, err := metrics.Parse(exportRange)
		if err != nil {
			return err
		}
		format, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		start, end := tr.Bounds(time.Now())
		stats, err := st.Stats(start, end)
		if err != nil {
			return err
		}
		records, err := st.Records(start, end)
		if err != nil {
			return err
		}

		out := os.Stdout
		if exportOutput != "" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("create output file: %w", err)
			}
			defer f.Close()
			out = f
		}

		doc := &export.Document{
			ExportedAt: time.Now().UTC(),
			Range:      tr.Label(),
			Stats:      stats,
			Records:    records,
		}
		if err := export.Write(out, format, doc); err != nil {
			return err
		}
		if exportOutput != "" {
			fmt.Fprintf(os.Stderr, "Exported %d records to %s\n", len(records), exportOutput)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportRange, "range", "r", "30d", "time range (today, week, 30d, all, ...)")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "output format (json, csv, yaml)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to file instead of stdout")
}
