package cli

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"
)

// daemonProcess is the command name pgrep and pkill match on.
const daemonProcess = "typetraced"

var (
	lookupDaemon = func() (string, bool) {
		out, err := exec.Command("pgrep", "-x", daemonProcess).Output()
		pid := strings.TrimSpace(string(out))
		return pid, err == nil && pid != ""
	}
	spawnDaemon = func() error {
		return exec.Command(daemonProcess, "--config", configPath).Start()
	}
	killDaemon = func() error {
		return exec.Command("pkill", "-x", daemonProcess).Run()
	}
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the typetraced daemon in the background",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if pid, running := lookupDaemon(); running {
			fmt.Println(dimStyle.Render("daemon already running, pid " + pid))
			return nil
		}
		if err := spawnDaemon(); err != nil {
			return fmt.Errorf("start %s: %w", daemonProcess, err)
		}
		fmt.Println("daemon started")
		return nil
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the typetraced daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, running := lookupDaemon(); !running {
			fmt.Println(dimStyle.Render("daemon is not running"))
			return nil
		}
		if err := killDaemon(); err != nil {
			return fmt.Errorf("stop %s: %w", daemonProcess, err)
		}
		fmt.Println("daemon stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd, stopCmd)
}
