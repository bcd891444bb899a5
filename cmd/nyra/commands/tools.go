package commands

import (
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nyra-ai/nyra/internal/api"
	"github.com/nyra-ai/nyra/internal/orchestrate"
)

var promptCmd = &cobra.Command{
	Use:   "prompt [text]",
	Short: "Generate text, on-device when available",
	Long: `Generate text from a prompt. The on-device runtime is used when it is
available; if it fails the request falls back to the cloud backend.

Reads the prompt from stdin when no argument is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := orchestrate.PromptInput{Prompt: inputText(cmd, args)}
		if cmd.Flags().Changed("temperature") {
			t, _ := cmd.Flags().GetFloat64("temperature")
			in.Temperature = &t
		}
		in.MaxTokens, _ = cmd.Flags().GetInt("max-tokens")

		_, err := app.Handlers(displayFor(cmd)).Prompt(cmd.Context(), in)
		return reported(err)
	},
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize [text]",
	Short: "Summarize text, on-device when available",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := orchestrate.SummarizeInput{Text: inputText(cmd, args)}
		in.Type, _ = cmd.Flags().GetString("type")
		in.Length, _ = cmd.Flags().GetString("length")

		_, err := app.Handlers(displayFor(cmd)).Summarize(cmd.Context(), in)
		return reported(err)
	},
}

var translateCmd = &cobra.Command{
	Use:   "translate [text]",
	Short: "Translate text, on-device when available",
	Example: `  nyra translate --to en --from fr "bonjour"
  echo "hola" | nyra translate --to en`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := orchestrate.TranslateInput{Text: inputText(cmd, args)}
		in.Target, _ = cmd.Flags().GetString("to")
		in.Source, _ = cmd.Flags().GetString("from")

		_, err := app.Handlers(displayFor(cmd)).Translate(cmd.Context(), in)
		return reported(err)
	},
}

var writeCmd = &cobra.Command{
	Use:   "write [context]",
	Short: "Write content from a brief",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := orchestrate.WriteInput{Context: inputText(cmd, args)}
		in.Tone, _ = cmd.Flags().GetString("tone")
		in.ContentType, _ = cmd.Flags().GetString("content-type")

		_, err := app.Handlers(displayFor(cmd)).Write(cmd.Context(), in)
		return reported(err)
	},
}

var proofreadCmd = &cobra.Command{
	Use:   "proofread [text]",
	Short: "Check grammar, spelling and style",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := orchestrate.ProofreadInput{Text: inputText(cmd, args)}
		in.Checks = api.ProofreadChecks{
			Grammar:  disabledFlag(cmd, "no-grammar"),
			Spelling: disabledFlag(cmd, "no-spelling"),
			Style:    disabledFlag(cmd, "no-style"),
		}

		_, err := app.Handlers(displayFor(cmd)).Proofread(cmd.Context(), in)
		return reported(err)
	},
}

var rewriteCmd = &cobra.Command{
	Use:   "rewrite [text]",
	Short: "Rewrite text towards a goal and tone",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := orchestrate.RewriteInput{Text: inputText(cmd, args)}
		in.Goal, _ = cmd.Flags().GetString("goal")
		in.Tone, _ = cmd.Flags().GetString("tone")

		_, err := app.Handlers(displayFor(cmd)).Rewrite(cmd.Context(), in)
		return reported(err)
	},
}

func init() {
	promptCmd.Flags().Float64("temperature", api.DefaultPromptTemperature, "Sampling temperature")
	promptCmd.Flags().Int("max-tokens", 0, "Maximum tokens to generate (backend default when 0)")

	summarizeCmd.Flags().String("type", "", "Summary type: tldr, key-points, headline")
	summarizeCmd.Flags().String("length", "", "Summary length: short, medium, long")

	translateCmd.Flags().String("to", "", "Target language code (required)")
	translateCmd.Flags().String("from", "", "Source language code (default: auto)")
	_ = translateCmd.MarkFlagRequired("to")

	writeCmd.Flags().String("tone", "", "Tone: professional, casual, creative, technical")
	writeCmd.Flags().String("content-type", "", "Content type: email, article, report")

	proofreadCmd.Flags().Bool("no-grammar", false, "Skip the grammar check")
	proofreadCmd.Flags().Bool("no-spelling", false, "Skip the spelling check")
	proofreadCmd.Flags().Bool("no-style", false, "Skip the style check")

	rewriteCmd.Flags().String("goal", "", "Goal: improve, simplify, formalize, shorten")
	rewriteCmd.Flags().String("tone", "", "Target tone")

	rootCmd.AddCommand(promptCmd, summarizeCmd, translateCmd, writeCmd, proofreadCmd, rewriteCmd)
}

// inputText joins args, or reads stdin when there are none and it is not a terminal.
func inputText(cmd *cobra.Command, args []string) string {
	if len(args) > 0 {
		return strings.Join(args, " ")
	}
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return ""
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// disabledFlag maps a --no-X flag onto an explicit check toggle; nil keeps the default.
func disabledFlag(cmd *cobra.Command, name string) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	off, _ := cmd.Flags().GetBool(name)
	enabled := !off
	return &enabled
}
