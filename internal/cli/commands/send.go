package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"

	"github.com/liteclaw/webbridge/internal/config"
	"github.com/liteclaw/webbridge/internal/web"
	"github.com/liteclaw/webbridge/pkg/utils"
)

const (
	sendTimeout      = 30 * time.Second
	previewURLLength = 48
)

type sendOptions struct {
	host       string
	port       int
	path       string
	userID     string
	sender     string
	message    string
	attachment string
	files      []string
	fields     map[string]string
	jsonOutput bool
}

// NewSendCommand creates the send subcommand.
func NewSendCommand() *cobra.Command {
	opts := sendOptions{}
	var fields []string

	cmd := &cobra.Command{
		Use:   "send [message]",
		Short: "Send a chat message to a running gateway",
		Long:  `Post a message, optionally with file attachments, to the chat endpoint and print the replies.`,
		Example: `  webbridge send "ping"
  webbridge send --attachment image --file cat.png --file dog.png
  webbridge send "hello" --user alice --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.message = args[0]
			}
			if opts.message == "" && len(opts.files) == 0 {
				return fmt.Errorf("message or --file is required")
			}
			if len(opts.files) > 0 && opts.attachment == "" {
				return fmt.Errorf("--attachment is required with --file")
			}

			cfg, err := config.Load()
			if err != nil {
				cfg = config.Default()
			}
			if opts.port == 0 {
				opts.port = cfg.Gateway.Port
			}
			if opts.path == "" {
				opts.path = cfg.Web.Path
			}

			opts.fields = cfg.Web.MatchingMap()
			for _, kv := range fields {
				key, value, ok := strings.Cut(kv, "=")
				if !ok || key == "" {
					return fmt.Errorf("invalid --field %q, expected key=value", kv)
				}
				opts.fields[key] = value
			}

			return runSend(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.host, "host", defaultGatewayHost, "Gateway host")
	cmd.Flags().IntVar(&opts.port, "port", 0, "Gateway port (default: from config)")
	cmd.Flags().StringVar(&opts.path, "path", "", "Chat endpoint path (default: from config)")
	cmd.Flags().StringVarP(&opts.userID, "user", "u", "cli", "User id sent as userId")
	cmd.Flags().StringVar(&opts.sender, "sender", "", "Sender id (default: user id)")
	cmd.Flags().StringVarP(&opts.attachment, "attachment", "a", "", "Attachment kind: image, audio, video or file")
	cmd.Flags().StringArrayVarP(&opts.files, "file", "f", nil, "File to upload (repeatable, order is kept)")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "Extra body field key=value (repeatable)")
	cmd.Flags().BoolVarP(&opts.jsonOutput, "json", "j", false, "Print the raw response envelope")

	return cmd
}

func runSend(out io.Writer, opts sendOptions) error {
	endpoint := fmt.Sprintf("http://%s%s", net.JoinHostPort(opts.host, strconv.Itoa(opts.port)), opts.path)

	form := map[string]string{}
	for k, v := range opts.fields {
		form[k] = v
	}
	form[web.FieldMessage] = opts.message
	form[web.FieldUserID] = opts.userID
	form[web.FieldSender] = utils.CoalesceString(opts.sender, opts.userID)
	if opts.attachment != "" {
		form[web.FieldAttachment] = opts.attachment
	}

	client := resty.New().SetTimeout(sendTimeout)
	req := client.R()

	if len(opts.files) > 0 {
		req.SetFormData(form)
		for _, path := range opts.files {
			if !utils.IsRegularFile(path) {
				return fmt.Errorf("not a file: %s", path)
			}
			fh, err := os.Open(path)
			if err != nil {
				return err
			}
			defer fh.Close()
			req.SetMultipartField("file[]", filepath.Base(path), "application/octet-stream", fh)
		}
	} else {
		req.SetHeader("Content-Type", "application/json").SetBody(form)
	}

	resp, err := req.Post(endpoint)
	if err != nil {
		return fmt.Errorf("cannot reach gateway: %w", err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return fmt.Errorf("no driver accepted the request (check web.matchingData)")
	}

	var env web.Envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return fmt.Errorf("unexpected response (%s): %s", resp.Status(), utils.Truncate(resp.String(), 200))
	}

	if opts.jsonOutput {
		fmt.Fprintln(out, strings.TrimSpace(resp.String()))
		return nil
	}

	renderEnvelope(out, env)
	if env.Status >= http.StatusBadRequest {
		return fmt.Errorf("gateway answered with status %d", env.Status)
	}
	return nil
}

func renderEnvelope(out io.Writer, env web.Envelope) {
	r := lipgloss.NewRenderer(out)
	botStyle := r.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"})
	dimStyle := r.NewStyle().Faint(true)
	errStyle := r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F5F"))

	if env.Error != "" {
		fmt.Fprintln(out, errStyle.Render(fmt.Sprintf("✗ %d %s", env.Status, env.Error)))
	}
	if len(env.Messages) == 0 {
		fmt.Fprintln(out, dimStyle.Render("(no replies)"))
		return
	}

	for _, msg := range env.Messages {
		switch msg["type"] {
		case "text":
			fmt.Fprintf(out, "%s %v\n", botStyle.Render("bot>"), msg["text"])
			if att, ok := msg["attachment"].(map[string]any); ok {
				fmt.Fprintln(out, dimStyle.Render("     📎 "+describeAttachment(att)))
			}
		case "actions":
			fmt.Fprintf(out, "%s %v\n", botStyle.Render("bot>"), msg["text"])
			actions, _ := msg["actions"].([]any)
			for _, a := range actions {
				if button, ok := a.(map[string]any); ok {
					fmt.Fprintf(out, "     [%v] → %v\n", button["text"], button["value"])
				}
			}
		case "typing_indicator":
			fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("     … typing (%vs)", msg["timeout"])))
		default:
			data, _ := json.Marshal(msg)
			fmt.Fprintln(out, dimStyle.Render("     "+string(data)))
		}
	}
}

func describeAttachment(att map[string]any) string {
	if att["type"] == "location" {
		return fmt.Sprintf("location %v,%v", att["latitude"], att["longitude"])
	}
	url, _ := att["url"].(string)
	return fmt.Sprintf("%v %s", att["type"], utils.Truncate(url, previewURLLength))
}
