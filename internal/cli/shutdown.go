package cli

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
)

func init() {
	shutdownCmd.Flags().BoolVar(&shutdownForce, "force", false, "Send SIGKILL instead of SIGTERM")
	rootCmd.AddCommand(shutdownCmd)
}

var shutdownForce bool

var shutdownCmd = &cobra.Command{
	Use:   "shutdown",
	Short: "Stop the running ridged instance",
	Long: `Looks up the running instance's PID via the shared status area
(through the debug HTTP surface) and signals it: SIGTERM for a graceful
shutdown (the default), SIGKILL with --force.`,
	RunE: runShutdown,
}

func runShutdown(cmd *cobra.Command, args []string) error {
	snap, err := fetchStatus()
	if err != nil {
		return err
	}
	if snap.PID <= 0 {
		return fmt.Errorf("shutdown: no running instance found")
	}

	proc, err := os.FindProcess(snap.PID)
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	sig := syscall.SIGTERM
	kind := "graceful"
	if shutdownForce {
		sig = syscall.SIGKILL
		kind = "forceful"
	}
	if err := proc.Signal(sig); err != nil {
		return fmt.Errorf("shutdown: signal pid %d: %w", snap.PID, err)
	}

	fmt.Printf("sent %s shutdown signal to pid %d\n", kind, snap.PID)
	return nil
}
