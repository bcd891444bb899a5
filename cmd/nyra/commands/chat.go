package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/user"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nyra-ai/nyra/internal/chatmem"
	nlog "github.com/nyra-ai/nyra/internal/log"
	"github.com/nyra-ai/nyra/internal/ondevice"
	"github.com/nyra-ai/nyra/internal/orchestrate"
	"github.com/nyra-ai/nyra/internal/ui"
)

const healthCheckTimeout = 5 * time.Second

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Interactive chat with conversation memory",
	Long: `Start an interactive chat session. Every turn goes through the prompt tool,
so replies come from the on-device model when it is available and from the
backend otherwise. Older turns are folded into a running summary that is
kept in ~/.nyra/chats.

Examples:
  # Interactive mode
  nyra chat

  # Single message mode
  nyra chat "explain the difference between TCP and UDP"
`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	mem, err := chatmem.Load(chatmem.FilePath(app.Paths.ChatsDir, app.ClientID))
	if err != nil {
		return err
	}
	session := &chatSession{
		handlers: app.Handlers(newChatDisplay(out, cmd.ErrOrStderr())),
		memory:   mem,
		out:      out,
	}

	// Single-shot mode
	if len(args) > 0 {
		return reported(session.send(ctx, strings.Join(args, " ")))
	}

	currentUser := "user"
	if u, err := user.Current(); err == nil {
		currentUser = u.Username
	}
	printHeader := func() {
		fmt.Fprint(out, ui.RenderHeader(Version, currentUser, app.Transport.BaseURL(), app.RuntimeLabel()))
		fmt.Fprint(out, ui.RenderHelpLines())
	}
	printHeader()
	checkBackend(ctx, out)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, ui.RenderUserPrompt())
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch strings.ToLower(input) {
		case "exit", "quit", "q":
			fmt.Fprintln(out, ui.RenderDim("Goodbye!"))
			return nil
		case "clear":
			fmt.Fprint(out, "\033[H\033[2J")
			printHeader()
			continue
		case "reset":
			if err := mem.Clear(); err != nil {
				fmt.Fprintln(out, ui.RenderError(err))
				continue
			}
			fmt.Fprintln(out, ui.RenderSuccess("Conversation history cleared."))
			continue
		}

		// The display already rendered any failure.
		_ = session.send(ctx, input)
		fmt.Fprintln(out)

		if ctx.Err() != nil {
			return nil
		}
	}

	return scanner.Err()
}

// checkBackend warns when the backend is unreachable; on-device replies still work.
func checkBackend(ctx context.Context, out io.Writer) {
	hctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	if _, err := app.Client.Health(hctx); err != nil {
		fmt.Fprintln(out, ui.Color(ui.Yellow, "Backend unreachable: "+err.Error()))
		fmt.Fprintln(out)
	}
}

type chatSession struct {
	handlers *orchestrate.Handlers
	memory   *chatmem.Memory
	out      io.Writer
}

// send runs one turn and folds old turns into the summary when the history is full.
func (s *chatSession) send(ctx context.Context, input string) error {
	res, err := s.handlers.Prompt(ctx, orchestrate.PromptInput{Prompt: s.memory.Context(input)})
	if err != nil {
		return err
	}

	s.memory.Add("user", input)
	s.memory.Add("assistant", res.Text)

	if s.memory.NeedsCompaction() {
		if err := s.memory.Compact(ctx, summarizeHistory); err != nil && !errors.Is(err, chatmem.ErrCompactionInProgress) {
			logger := nlog.WithComponent("chat")
			logger.Warn().Err(err).Msg("chat history compaction failed")
		}
	}
	if err := s.memory.Save(); err != nil {
		logger := nlog.WithComponent("chat")
		logger.Warn().Err(err).Msg("failed to save chat history")
	}
	return nil
}

// summarizeHistory folds old turns into the summary, on-device when possible.
func summarizeHistory(ctx context.Context, current string, messages []chatmem.Message) (string, error) {
	var sb strings.Builder
	if current != "" {
		sb.WriteString("Previous summary: ")
		sb.WriteString(current)
		sb.WriteString("\n\n")
	}
	sb.WriteString(chatmem.Transcript(messages))
	text := sb.String()

	if app.Probe.Ready() {
		summary, err := app.Probe.Summarize(ctx, text, ondevice.SummarizeOptions{Type: "key-points", Length: "short"})
		if err == nil {
			return summary, nil
		}
		logger := nlog.WithComponent("chat")
		logger.Debug().Err(err).Msg("on-device summary failed, using backend")
	}

	env, err := app.Client.Summarize(ctx, text, "key-points", "short")
	if err != nil {
		return "", err
	}
	return orchestrate.ExtractText(env), nil
}

// chatDisplay renders replies as chat messages tagged with where they ran.
type chatDisplay struct {
	out      io.Writer
	progress io.Writer
	spinner  *ui.Spinner
}

func newChatDisplay(out, progress io.Writer) *chatDisplay {
	d := &chatDisplay{out: out}
	if ui.IsStderrTTY() {
		d.progress = progress
	}
	return d
}

func (d *chatDisplay) ShowLoading(_ orchestrate.Tool, message string) {
	if d.progress == nil {
		return
	}
	d.spinner = ui.NewSpinnerTo(d.progress, message)
	d.spinner.Start()
}

func (d *chatDisplay) ShowResult(_ orchestrate.Tool, result orchestrate.Result) {
	d.stop()
	fmt.Fprintf(d.out, "%s %s\n", ui.RenderMessage("assistant", result.Text), ui.RenderBadge(string(result.Status)))
}

func (d *chatDisplay) ShowError(_ orchestrate.Tool, message string) {
	d.stop()
	fmt.Fprintln(d.out, ui.Color(ui.Red, message))
}

func (d *chatDisplay) stop() {
	if d.spinner != nil {
		d.spinner.Stop()
		d.spinner = nil
	}
}
