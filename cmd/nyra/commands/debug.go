package commands

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/nyra-ai/nyra/internal/redact"
)

// debugCmd is the parent command for debug subcommands
var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Debug and diagnostic commands",
	Long:  `Commands for debugging and diagnosing issues with NYRA.`,
}

// debugFlagsCmd prints resolved flag values for debugging
var debugFlagsCmd = &cobra.Command{
	Use:   "flags",
	Short: "Print resolved flag values for debugging",
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		configPath, _ := cmd.Flags().GetString("config")
		baseURL, _ := cmd.Flags().GetString("base-url")
		onDevice, _ := cmd.Flags().GetString("on-device")
		asJSON, _ := cmd.Flags().GetBool("json")
		plain, _ := cmd.Flags().GetBool("plain")

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Resolved Flag Values:")
		fmt.Fprintf(out, "  --verbose:   %v\n", verbose)
		fmt.Fprintf(out, "  --config:    %q\n", configPath)
		fmt.Fprintf(out, "  --base-url:  %q\n", baseURL)
		fmt.Fprintf(out, "  --on-device: %q\n", onDevice)
		fmt.Fprintf(out, "  --json:      %v\n", asJSON)
		fmt.Fprintf(out, "  --plain:     %v\n", plain)
		return nil
	},
}

// debugConfigCmd prints the configuration after every source was applied
var debugConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved configuration and paths",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := *app.Config
		cfg.BaseURL = redact.URL(cfg.BaseURL)
		if len(cfg.Headers) > 0 {
			h := make(http.Header, len(cfg.Headers))
			for k, v := range cfg.Headers {
				h.Set(k, v)
			}
			cfg.Headers = make(map[string]string, len(h))
			for k, v := range redact.Headers(h) {
				cfg.Headers[k] = v[0]
			}
		}

		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Config file: %s\n", app.ConfigPath)
		fmt.Fprintf(out, "Chats dir:   %s\n", app.Paths.ChatsDir)
		fmt.Fprintf(out, "Journal:     %s\n", app.Journal.Path())
		fmt.Fprintf(out, "Client ID:   %s\n", app.ClientID)
		fmt.Fprintf(out, "On-device:   %s\n\n", app.RuntimeLabel())
		fmt.Fprintln(out, string(data))
		return nil
	},
}

func init() {
	debugCmd.AddCommand(debugFlagsCmd)
	debugCmd.AddCommand(debugConfigCmd)
}
