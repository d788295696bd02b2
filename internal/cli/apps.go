package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/typetrace/typetrace/internal/metrics"
)

var appsRange string

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "Per-application typing breakdown",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tr, err := metrics.Parse(appsRange)
		if err != nil {
			return err
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		apps, err := metrics.New(st).AppStats(tr)
		if err != nil {
			return err
		}
		if len(apps) == 0 {
			fmt.Println(dimStyle.Render("No typing recorded in this range."))
			return nil
		}

		fmt.Println(headerStyle.Render("Applications") + dimStyle.Render("  ("+tr.Label()+")"))
		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "APP\tCLASS\tCHARS\tWORDS\tSHARE")
		for _, a := range apps {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				a.AppName,
				a.AppClass,
				metrics.FormatCount(a.TotalChars),
				metrics.FormatCount(a.TotalWords),
				fmt.Sprintf("%5.1f%% %s", a.Percentage, bar(a.Percentage)),
			)
		}
		return w.Flush()
	},
}

// bar renders a ten character share bar.
func bar(pct float64) string {
	filled := int(pct / 10)
	if filled > 10 {
		filled = 10
	}
	return valueStyle.Render(strings.Repeat("█", filled)) +
		dimStyle.Render(strings.Repeat("░", 10-filled))
}

func init() {
	rootCmd.AddCommand(appsCmd)
	appsCmd.Flags().StringVarP(&appsRange, "range", "r", "today", "time range (today, week, 30d, ...)")
}
