package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/typetrace/typetrace/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the daemon and show the latest browser context",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(headerStyle.Render("typetrace status"))
		fmt.Println()

		client := &http.Client{Timeout: 2 * time.Second}
		resp, err := client.Get("http://" + cfg.Collector.Address + "/healthz")
		if err != nil {
			printStat("Daemon", "not running")
		} else {
			defer resp.Body.Close()
			var health struct {
				Status string `json:"status"`
				Uptime string `json:"uptime"`
			}
			if json.NewDecoder(resp.Body).Decode(&health) == nil && health.Status == "ok" {
				printStat("Daemon", "running (up "+health.Uptime+")")
			} else {
				printStat("Daemon", "unhealthy")
			}
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		printStat("Database", cfg.Storage.Path)

		bc, err := st.LatestBrowserContext()
		switch {
		case errors.Is(err, store.ErrNotFound):
			printStat("Browser", "no context recorded")
		case err != nil:
			return err
		default:
			printStat("Browser", bc.BrowserName)
			printStat("Current page", bc.Title)
			printStat("URL", bc.URL)
			printStat("Last update", bc.LastUpdated.Local().Format(time.RFC1123))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
