package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nyra-ai/nyra/internal/ui"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Show on-device runtime availability",
	RunE: func(cmd *cobra.Command, args []string) error {
		r := app.Probe.Report()
		out := cmd.OutOrStdout()

		if raw, _ := cmd.Flags().GetBool("json"); raw {
			data, err := json.MarshalIndent(r, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		fmt.Fprintf(out, "%s %s\n", ui.Color(ui.Bold, "Runtime:"), r.Runtime)
		fmt.Fprintf(out, "%s %s\n", ui.Color(ui.Bold, "State:  "), r.State)
		fmt.Fprintf(out, "  available:  %s\n", yesNo(r.Available))
		fmt.Fprintf(out, "  ready:      %s\n", yesNo(r.Ready))
		fmt.Fprintf(out, "  summarizer: %s\n", yesNo(r.Summarizer))
		fmt.Fprintf(out, "  translator: %s\n", yesNo(r.Translator))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

func yesNo(b bool) string {
	if b {
		return ui.Color(ui.Green, "yes")
	}
	return ui.Color(ui.Dim, "no")
}
