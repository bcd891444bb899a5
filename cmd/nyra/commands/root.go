package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/nyra-ai/nyra/internal/ui"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

// app is built once flags are parsed and shared by every subcommand.
var app *App

var rootCmd = &cobra.Command{
	Use:   "nyra",
	Short: "NYRA - hybrid on-device and cloud AI assistant",
	Long: `NYRA runs AI writing tools against an on-device model when one is available
and against the NYRA backend otherwise.

Tools (on-device capable): prompt, summarize, translate
Tools (cloud):            write, proofread, rewrite
Backend capabilities:     generate, analyze, multi-agent, optimize-sql,
                          analytics, save, get, health, raw

Use "nyra [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if skipsApp(cmd) {
			return nil
		}
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		app = a
		return nil
	},
}

// Execute runs the root command. Ctrl+C cancels the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	defer closeApp()
	return rootCmd.ExecuteContext(ctx)
}

// closeApp runs after every command, including failed ones.
func closeApp() {
	if app != nil {
		app.Close()
		app = nil
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().String("config", "", "Config file (default: ~/.nyra/config.json)")
	rootCmd.PersistentFlags().String("base-url", "", "Backend base URL (overrides config and NYRA_BASE_URL)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().String("on-device", "", "On-device runtime: ollama, echo or disabled")
	rootCmd.PersistentFlags().Bool("json", false, "Print the backend JSON payload instead of the extracted text")
	rootCmd.PersistentFlags().Bool("plain", false, "Print results without decoration")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(debugCmd)
}

func skipsApp(cmd *cobra.Command) bool {
	return cmd == versionCmd || !cmd.HasParent() || cmd.Name() == "help"
}

// versionCmd shows version info
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "NYRA\n")
		fmt.Fprintf(out, "  Version:  %s\n", Version)
		fmt.Fprintf(out, "  Commit:   %s\n", Commit)
		fmt.Fprintf(out, "  Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

// reportedError marks an error the display has already shown.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

// IsReported reports whether err was already shown to the user.
func IsReported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}

func displayFor(cmd *cobra.Command) *ui.TerminalDisplay {
	plain, _ := cmd.Flags().GetBool("plain")
	raw, _ := cmd.Flags().GetBool("json")

	opts := ui.DisplayOptions{
		Plain: plain || !ui.IsTTY(),
		Raw:   raw,
	}
	if ui.IsStderrTTY() {
		opts.Progress = cmd.ErrOrStderr()
	}
	return ui.NewTerminalDisplay(cmd.OutOrStdout(), opts)
}
