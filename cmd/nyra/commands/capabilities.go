package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nyra-ai/nyra/internal/api"
	"github.com/nyra-ai/nyra/internal/orchestrate"
	"github.com/nyra-ai/nyra/internal/transport"
	"github.com/nyra-ai/nyra/internal/ui"
)

// Backend capabilities that never run on-device.

var generateCmd = &cobra.Command{
	Use:   "generate [prompt]",
	Short: "Generate text with the cloud model",
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt := inputText(cmd, args)
		if prompt == "" {
			return fmt.Errorf("prompt is required")
		}
		opts := api.GenerationOptions{}
		if cmd.Flags().Changed("temperature") {
			t, _ := cmd.Flags().GetFloat64("temperature")
			opts.Temperature = &t
		}
		opts.MaxTokens, _ = cmd.Flags().GetInt("max-tokens")

		return runCapability(cmd, "Generating...", func(ctx context.Context) (transport.Envelope, error) {
			return app.Client.Generate(ctx, prompt, opts)
		})
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Review a DevOps configuration file",
	Long: `Send a Dockerfile, Kubernetes manifest, Terraform module or similar to the
backend for a security, performance and best-practice review.

Reads stdin when no file is given.`,
	Example: `  nyra analyze --type dockerfile Dockerfile
  kubectl get deploy web -o yaml | nyra analyze --type kubernetes`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var code string
		if len(args) == 1 {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			code = string(data)
		} else {
			code = inputText(cmd, nil)
		}
		if strings.TrimSpace(code) == "" {
			return fmt.Errorf("configuration content is required")
		}
		configType, _ := cmd.Flags().GetString("type")

		return runCapability(cmd, "Analyzing configuration...", func(ctx context.Context) (transport.Envelope, error) {
			return app.Client.AnalyzeDevOps(ctx, code, configType)
		})
	},
}

var multiAgentCmd = &cobra.Command{
	Use:   "multi-agent [task]",
	Short: "Run a task through a pipeline of agents",
	RunE: func(cmd *cobra.Command, args []string) error {
		task := inputText(cmd, args)
		if task == "" {
			return fmt.Errorf("task is required")
		}
		agents, _ := cmd.Flags().GetStringSlice("agents")

		return runCapability(cmd, "Coordinating agents...", func(ctx context.Context) (transport.Envelope, error) {
			return app.Client.MultiAgent(ctx, task, agents)
		})
	},
}

var optimizeSQLCmd = &cobra.Command{
	Use:   "optimize-sql [query]",
	Short: "Analyze a SQL query and suggest optimizations",
	RunE: func(cmd *cobra.Command, args []string) error {
		query := inputText(cmd, args)
		if query == "" {
			return fmt.Errorf("query is required")
		}
		return runCapability(cmd, "Analyzing query...", func(ctx context.Context) (transport.Envelope, error) {
			return app.Client.OptimizeSQL(ctx, query)
		})
	},
}

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Show backend interaction analytics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCapability(cmd, "Loading analytics...", app.Client.Analytics)
	},
}

var saveCmd = &cobra.Command{
	Use:     "save <collection> <document>",
	Short:   "Save a JSON document to the backend store",
	Example: `  nyra save notes today --data '{"text":"ship it"}'`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetString("data")
		if raw == "" {
			raw = inputText(cmd, nil)
		}
		var data map[string]any
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return fmt.Errorf("--data must be a JSON object: %w", err)
		}
		return runCapability(cmd, "Saving...", func(ctx context.Context) (transport.Envelope, error) {
			return app.Client.SaveData(ctx, args[0], args[1], data)
		})
	},
}

var getCmd = &cobra.Command{
	Use:   "get <collection> <document>",
	Short: "Load a document from the backend store",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCapability(cmd, "Loading...", func(ctx context.Context) (transport.Envelope, error) {
			return app.Client.GetData(ctx, args[0], args[1])
		})
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check backend liveness",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCapability(cmd, "Checking backend...", app.Client.Health)
	},
}

var rawCmd = &cobra.Command{
	Use:   "raw <operation> [json-body]",
	Short: "Call any backend operation with a hand-built body",
	Long: fmt.Sprintf(`Dispatch a registered operation with an arbitrary JSON body.

Operations: %s`, strings.Join(api.OperationNames(), ", ")),
	Example: `  nyra raw summarize '{"text":"...","type":"key-points"}'
  nyra raw analytics`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var body any
		if len(args) == 2 {
			if err := json.Unmarshal([]byte(args[1]), &body); err != nil {
				return fmt.Errorf("body must be valid JSON: %w", err)
			}
		}
		return runCapability(cmd, "Calling "+args[0]+"...", func(ctx context.Context) (transport.Envelope, error) {
			return app.Client.Call(ctx, args[0], body)
		})
	},
}

func init() {
	generateCmd.Flags().Float64("temperature", api.DefaultGenerateTemperature, "Sampling temperature")
	generateCmd.Flags().Int("max-tokens", 0, "Maximum tokens to generate (backend default when 0)")

	analyzeCmd.Flags().String("type", "dockerfile", "Configuration type: dockerfile, kubernetes, terraform, ...")

	multiAgentCmd.Flags().StringSlice("agents", nil, "Agent pipeline in order (default: analyst,writer,reviewer)")

	saveCmd.Flags().String("data", "", "Document body as a JSON object (default: read stdin)")

	rootCmd.AddCommand(generateCmd, analyzeCmd, multiAgentCmd, optimizeSQLCmd,
		analyticsCmd, saveCmd, getCmd, healthCmd, rawCmd)
}

// runCapability calls the backend with a spinner on stderr and prints the
// readable text of the response, or the whole payload with --json.
func runCapability(cmd *cobra.Command, loading string, call func(context.Context) (transport.Envelope, error)) error {
	var spinner *ui.Spinner
	if ui.IsStderrTTY() {
		spinner = ui.NewSpinnerTo(cmd.ErrOrStderr(), loading)
		spinner.Start()
	}

	env, err := call(cmd.Context())
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if raw, _ := cmd.Flags().GetBool("json"); raw {
		fmt.Fprintln(out, env.Indent())
		return nil
	}
	fmt.Fprintln(out, orchestrate.ExtractText(env))
	return nil
}
