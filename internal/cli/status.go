package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/ridgedb/ridge/internal/daemon"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report the running ridged instance's shared status area",
	Long:  `Fetches /status from the debug HTTP surface and prints it.`,
	RunE:  runStatus,
}

// statusSnapshot mirrors debugsvc's /status response shape.
type statusSnapshot struct {
	State          string   `json:"state"`
	PID            int      `json:"pid"`
	DatabaseName   string   `json:"database_name"`
	ActiveSessions []uint64 `json:"active_sessions"`
	Healthy        bool     `json:"healthy"`
}

func fetchStatus() (statusSnapshot, error) {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return statusSnapshot{}, err
	}

	client := &http.Client{Timeout: 5 * time.Second}
	url := fmt.Sprintf("http://%s:%d/status", cfg.Telemetry.Host, cfg.Telemetry.Port)
	resp, err := client.Get(url)
	if err != nil {
		return statusSnapshot{}, fmt.Errorf("status: %w (is ridged running?)", err)
	}
	defer resp.Body.Close()

	var snap statusSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return statusSnapshot{}, fmt.Errorf("status: decode response: %w", err)
	}
	return snap, nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	snap, err := fetchStatus()
	if err != nil {
		return err
	}

	fmt.Printf("state:           %s\n", snap.State)
	fmt.Printf("pid:             %d\n", snap.PID)
	fmt.Printf("database_name:   %s\n", snap.DatabaseName)
	fmt.Printf("active_sessions: %d\n", len(snap.ActiveSessions))
	fmt.Printf("healthy:         %v\n", snap.Healthy)
	return nil
}
