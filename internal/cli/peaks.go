package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/typetrace/typetrace/internal/metrics"
)

var (
	peaksRange string
	peaksLimit int
)

var peaksCmd = &cobra.Command{
	Use:   "peaks",
	Short: "Busiest typing minutes in a range",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tr, err := metrics.Parse(peaksRange)
		if err != nil {
			return err
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		peaks, err := metrics.New(st).PeakTimes(tr, peaksLimit)
		if err != nil {
			return err
		}
		if len(peaks) == 0 {
			fmt.Println(dimStyle.Render("No typing recorded in this range."))
			return nil
		}

		fmt.Println(headerStyle.Render("Peak minutes") + dimStyle.Render("  ("+tr.Label()+")"))
		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tCHARS\tWORDS")
		for _, p := range peaks {
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				p.Timestamp.Local().Format("Mon Jan 2 15:04"),
				metrics.FormatCount(p.CharCount),
				metrics.FormatCount(p.WordCount))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(peaksCmd)
	peaksCmd.Flags().StringVarP(&peaksRange, "range", "r", "week", "time range (today, week, 30d, ...)")
	peaksCmd.Flags().IntVarP(&peaksLimit, "limit", "n", 10, "number of minutes to show")
}
