package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/liteclaw/webbridge/internal/config"
	"github.com/liteclaw/webbridge/internal/gateway"
)

const (
	defaultGatewayHost = "127.0.0.1"
	statusTimeout      = 2 * time.Second
)

// NewStatusCommand creates the status subcommand.
func NewStatusCommand() *cobra.Command {
	var (
		host       string
		port       int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show gateway status",
		Long:  `Display the state of a running gateway, including its channel drivers and request counters.`,
		Example: `  webbridge status
  webbridge status --host 127.0.0.1 --port 8080 --json`,
		Run: func(cmd *cobra.Command, args []string) {
			actualPort := port
			if actualPort == 0 {
				if cfg, err := config.Load(); err == nil {
					actualPort = cfg.Gateway.Port
				} else {
					actualPort = config.Default().Gateway.Port
				}
			}
			runStatus(cmd.OutOrStdout(), host, actualPort, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&host, "host", defaultGatewayHost, "Gateway host")
	cmd.Flags().IntVar(&port, "port", 0, "Gateway port (default: from config file)")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}

func runStatus(out io.Writer, host string, port int, jsonOutput bool) {
	status, err := fetchGatewayStatus(host, port)

	if jsonOutput {
		if err != nil {
			data, _ := json.Marshal(map[string]any{"running": false, "error": err.Error()})
			fmt.Fprintln(out, string(data))
			return
		}
		data, _ := json.MarshalIndent(status, "", "  ")
		fmt.Fprintln(out, string(data))
		return
	}

	fmt.Fprintln(out, "webbridge status")
	fmt.Fprintln(out, "================")
	fmt.Fprintln(out)

	if err != nil {
		fmt.Fprintln(out, "Gateway:   ✗ Not running")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Start the gateway with: webbridge serve")
		return
	}

	fmt.Fprintf(out, "Gateway:   ✓ Running on %s:%d\n", host, port)
	fmt.Fprintf(out, "Version:   %s\n", status.Version)
	fmt.Fprintf(out, "Uptime:    %s\n", status.Uptime)
	fmt.Fprintf(out, "Endpoint:  POST %s\n", status.ChatPath)
	fmt.Fprintf(out, "Requests:  %d total, %d failed\n", status.Requests.Total, status.Requests.Failed)
	fmt.Fprintln(out)

	if len(status.Channels) > 0 {
		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"Driver", "Type", "Configured", "Matched"})
		table.SetBorder(false)
		table.SetAutoWrapText(false)

		rows := make([][]string, 0, len(status.Channels))
		for _, ch := range status.Channels {
			rows = append(rows, []string{
				ch.Name,
				string(ch.Type),
				strconv.FormatBool(ch.Configured),
				strconv.FormatInt(ch.Matched, 10),
			})
		}
		table.AppendBulk(rows)
		table.Render()
		fmt.Fprintln(out)
	} else {
		fmt.Fprintln(out, "Channels:  0 registered")
	}

	fmt.Fprintf(out, "Memory:    %s alloc, %s sys\n",
		formatBytes(status.Memory.Alloc),
		formatBytes(status.Memory.Sys))
	fmt.Fprintf(out, "Runtime:   %s (%s/%s)\n", status.GoVersion, status.OS, status.Arch)
	fmt.Fprintln(out)
}

func fetchGatewayStatus(host string, port int) (*gateway.StatusResponse, error) {
	url := fmt.Sprintf("http://%s/api/status", net.JoinHostPort(host, strconv.Itoa(port)))

	var status gateway.StatusResponse
	resp, err := resty.New().
		SetTimeout(statusTimeout).
		R().
		SetResult(&status).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to gateway: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode())
	}

	return &status, nil
}

func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
