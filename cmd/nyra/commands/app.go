package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/nyra-ai/nyra/internal/api"
	"github.com/nyra-ai/nyra/internal/clientid"
	"github.com/nyra-ai/nyra/internal/config"
	nlog "github.com/nyra-ai/nyra/internal/log"
	"github.com/nyra-ai/nyra/internal/metrics"
	"github.com/nyra-ai/nyra/internal/ondevice"
	"github.com/nyra-ai/nyra/internal/orchestrate"
	"github.com/nyra-ai/nyra/internal/transport"
	"github.com/nyra-ai/nyra/internal/ui"
)

const probeTimeout = 5 * time.Second

// App holds the services built from the resolved configuration.
type App struct {
	Config     *config.Config
	ConfigPath string
	Paths      *config.Paths
	ClientID   string

	Transport *transport.Client
	Client    *api.Client
	Probe     *ondevice.Probe
	History   *metrics.Store
	Journal   *metrics.Journal
}

// newApp resolves configuration (defaults, file, .env, environment, flags) and
// wires the client, the on-device probe and the interaction recorders.
func newApp(cmd *cobra.Command) (*App, error) {
	configPath, _ := cmd.Flags().GetString("config")

	var paths *config.Paths
	if configPath != "" {
		paths = config.PathsIn(filepath.Dir(configPath))
		paths.ConfigFile = configPath
	} else {
		p, err := config.GetPaths()
		if err != nil {
			return nil, err
		}
		paths = p
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, err
	}

	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configureLogging(cfg)
	ui.SetNoColor(cfg.NoColor)

	id, err := clientid.GetOrCreate(paths.ClientIDFile)
	if err != nil {
		logger := nlog.WithComponent("cli")
		logger.Warn().Err(err).Msg("client id unavailable")
	}

	tc := transport.New(transport.Config{
		BaseURL: cfg.BaseURL,
		Headers: cfg.Headers,
		Timeout: cfg.RequestTimeout(),
	})

	a := &App{
		Config:     cfg,
		ConfigPath: paths.ConfigFile,
		Paths:      paths,
		ClientID:   id,
		Transport:  tc,
		Client:     api.New(tc),
		Probe:      ondevice.NewProbe(newRuntime(cfg.OnDevice)),
		History:    metrics.NewStore(),
		Journal:    metrics.NewJournal(filepath.Join(paths.LogsDir, metrics.JournalFileName)),
	}

	if a.Probe.Available() {
		ctx, cancel := context.WithTimeout(cmd.Context(), probeTimeout)
		defer cancel()
		if err := a.Probe.Initialize(ctx); err != nil {
			logger := nlog.WithComponent("cli")
			logger.Info().Err(err).Str(nlog.FieldRuntime, cfg.OnDevice.Runtime).Msg("on-device runtime not ready")
		}
	}
	return a, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.BaseURL, _ = flags.GetString("base-url")
	}
	if flags.Changed("on-device") {
		cfg.OnDevice.Runtime, _ = flags.GetString("on-device")
	}
	if v, _ := flags.GetBool("verbose"); v {
		cfg.Verbose = true
	}
	if v, _ := flags.GetBool("no-color"); v {
		cfg.NoColor = true
	}
}

func configureLogging(cfg *config.Config) {
	level := cfg.LogLevel
	if cfg.Verbose {
		level = "debug"
	}
	nlog.Reconfigure(nlog.Config{
		Level:   level,
		Output:  os.Stderr,
		Service: "nyra",
		Pretty:  ui.IsStderrTTY(),
	})
}

func newRuntime(cfg config.OnDeviceConfig) ondevice.Runtime {
	switch cfg.Runtime {
	case config.RuntimeOllama:
		return ondevice.NewOllama(cfg.URL, cfg.Model, cfg.TimeoutSeconds)
	case config.RuntimeEcho:
		return ondevice.NewEcho()
	default:
		return nil
	}
}

// Recorder fans interactions out to the in-process history, the journal, the
// log and, when enabled, the backend.
func (a *App) Recorder() orchestrate.Recorder {
	rec := orchestrate.MultiRecorder{a.History, a.Journal, orchestrate.NewLogRecorder()}
	if a.Config.PersistInteractions {
		rec = append(rec, orchestrate.NewRemoteRecorder(a.Client))
	}
	return rec
}

// Handlers returns tool handlers rendering to display.
func (a *App) Handlers(display orchestrate.Display) *orchestrate.Handlers {
	return orchestrate.New(orchestrate.Deps{
		Cloud:    a.Client,
		Device:   a.Probe,
		Display:  display,
		Recorder: a.Recorder(),
		ClientID: a.ClientID,
	})
}

// RuntimeLabel describes the on-device runtime for headers.
func (a *App) RuntimeLabel() string {
	r := a.Probe.Report()
	if r.Runtime == "none" {
		return "disabled"
	}
	return fmt.Sprintf("%s (%s)", r.Runtime, r.State)
}

// Close releases background resources.
func (a *App) Close() {
	a.History.Stop()
}
