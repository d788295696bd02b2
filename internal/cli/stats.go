package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/typetrace/typetrace/internal/metrics"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	valueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

func init() {
	for _, period := range []struct {
		use   string
		short string
	}{
		{"today", "Show today's typing stats"},
		{"yesterday", "Show yesterday's typing stats"},
		{"week", "Show this week's typing stats (Monday start)"},
		{"month", "Show this month's typing stats"},
		{"year", "Show this year's typing stats"},
	} {
		keyword := period.use
		rootCmd.AddCommand(&cobra.Command{
			Use:   keyword,
			Short: period.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				tr, err := metrics.Parse(keyword)
				if err != nil {
					return err
				}
				return runStats(tr)
			},
		})
	}

	rootCmd.AddCommand(rangeCmd)
	rangeCmd.Flags().StringVar(&rangeFrom, "from", "", "start date (YYYY-MM-DD)")
	rangeCmd.Flags().StringVar(&rangeTo, "to", "", "end date, inclusive (YYYY-MM-DD)")
}

var (
	rangeFrom string
	rangeTo   string
)

var rangeCmd = &cobra.Command{
	Use:   "range [keyword]",
	Short: "Show stats for a named range (7d, 30d, last-week, ...) or --from/--to dates",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tr, err := resolveRange(args)
		if err != nil {
			return err
		}
		return runStats(tr)
	},
}

func resolveRange(args []string) (metrics.TimeRange, error) {
	if rangeFrom != "" || rangeTo != "" {
		if rangeFrom == "" || rangeTo == "" {
			return metrics.TimeRange{}, fmt.Errorf("--from and --to must be given together")
		}
		start, err := time.ParseInLocation("2006-01-02", rangeFrom, time.Local)
		if err != nil {
			return metrics.TimeRange{}, fmt.Errorf("invalid --from date: %w", err)
		}
		end, err := time.ParseInLocation("2006-01-02", rangeTo, time.Local)
		if err != nil {
			return metrics.TimeRange{}, fmt.Errorf("invalid --to date: %w", err)
		}
		return metrics.Custom(start, end.AddDate(0, 0, 1)), nil
	}
	if len(args) == 1 {
		return metrics.Parse(args[0])
	}
	return metrics.Parse("7d")
}

func runStats(tr metrics.TimeRange) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := metrics.New(st).Stats(tr)
	if err != nil {
		return err
	}

	fmt.Println(headerStyle.Render("Typing stats") + dimStyle.Render("  ("+tr.Label()+")"))
	fmt.Println()
	printStat("Characters", metrics.FormatCount(stats.TotalChars))
	printStat("Words", metrics.FormatCount(stats.TotalWords))
	printStat("Paragraphs", metrics.FormatCount(stats.TotalParagraphs))
	printStat("Backspaces", metrics.FormatCount(stats.TotalBackspaces))
	printStat("Net characters", metrics.FormatCount(stats.NetChars))
	printStat("Active time", metrics.FormatDuration(stats.ActiveMinutes))
	if stats.AvgWPM != nil {
		printStat("Average WPM", fmt.Sprintf("%.1f", *stats.AvgWPM))
	}
	if stats.PeakWPM != nil {
		printStat("Peak WPM", fmt.Sprintf("%.1f", *stats.PeakWPM))
	}
	return nil
}

func printStat(label, value string) {
	fmt.Printf("  %s %s\n",
		labelStyle.Render(fmt.Sprintf("%-16s", label)),
		valueStyle.Render(value))
}
