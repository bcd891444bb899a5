package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	nlog "github.com/nyra-ai/nyra/internal/log"
	"github.com/nyra-ai/nyra/internal/metrics"
	"github.com/nyra-ai/nyra/internal/ui"
)

const (
	statsInterval    = 30 * time.Second
	activityInterval = 15 * time.Second
	activityLimit    = 10
	usageBarWidth    = 30
	journalDebounce  = 250 * time.Millisecond
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Live usage statistics and recent activity",
	Long: `Show request totals, on-device versus cloud usage, per-tool usage and the
most recent interactions. Statistics refresh every 30 seconds and the activity
feed every 15 seconds until interrupted. Interactions recorded by other nyra
commands are picked up as soon as they are written.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		once, _ := cmd.Flags().GetBool("once")
		d := &dashboard{out: cmd.OutOrStdout(), clear: !once && ui.IsTTY()}
		return d.run(cmd.Context(), once)
	},
}

func init() {
	dashboardCmd.Flags().Bool("once", false, "Render a single frame and exit")
	rootCmd.AddCommand(dashboardCmd)
}

// dashboard redraws one frame from independently refreshed sections.
type dashboard struct {
	out   io.Writer
	clear bool

	mu        sync.Mutex
	backend   string
	analytics string
	stats     string
	activity  string
}

func (d *dashboard) run(ctx context.Context, once bool) error {
	d.checkBackend(ctx)
	d.refreshStats(ctx)
	d.refreshActivity()
	d.draw()
	if once {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return every(gctx, statsInterval, func() {
			d.refreshStats(gctx)
			d.draw()
		})
	})
	g.Go(func() error {
		return every(gctx, activityInterval, func() {
			d.refreshActivity()
			d.draw()
		})
	})
	g.Go(func() error {
		return d.watchJournal(gctx)
	})
	return g.Wait()
}

// watchJournal redraws the local sections whenever the journal changes. The
// directory is watched because the journal may not exist yet.
func (d *dashboard) watchJournal(ctx context.Context) error {
	logger := nlog.WithComponent("dashboard")
	path := app.Journal.Path()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn().Err(err).Msg("journal watcher unavailable, polling only")
		return nil
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("journal watcher unavailable, polling only")
		return nil
	}

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(journalDebounce, func() {
					if ctx.Err() != nil {
						return
					}
					d.refreshLocal()
					d.draw()
				})
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("journal watcher error")
		}
	}
}

// every calls fn on each tick until ctx is done. Cancellation is a clean exit.
func every(ctx context.Context, interval time.Duration, fn func()) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fn()
		}
	}
}

func (d *dashboard) checkBackend(ctx context.Context) {
	hctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	status := ui.Color(ui.Green, "connected")
	if _, err := app.Client.Health(hctx); err != nil {
		status = ui.Color(ui.Yellow, "unreachable ("+err.Error()+")")
	}

	d.mu.Lock()
	d.backend = status
	d.mu.Unlock()
}

// reload replaces the in-process history with the journal so interactions from
// other nyra invocations are counted.
func (d *dashboard) reload() {
	recs, err := metrics.ReadJournal(app.Journal.Path())
	if err != nil {
		logger := nlog.WithComponent("dashboard")
		logger.Warn().Err(err).Str("path", app.Journal.Path()).Msg("failed to read interaction journal")
		return
	}
	app.History.Load(recs)
}

func (d *dashboard) refreshStats(ctx context.Context) {
	line := backendAnalytics(ctx)
	d.mu.Lock()
	d.analytics = line
	d.mu.Unlock()

	d.reload()
	d.renderStats()
}

func (d *dashboard) refreshActivity() {
	d.reload()
	d.renderActivity()
}

// refreshLocal re-renders everything derived from the journal.
func (d *dashboard) refreshLocal() {
	d.reload()
	d.renderStats()
	d.renderActivity()
}

func (d *dashboard) renderStats() {
	var sb strings.Builder
	sb.WriteString(ui.RenderStats(app.History.Summary()))
	sb.WriteString("\n")
	sb.WriteString(ui.RenderToolUsage(app.History.ByTool(), usageBarWidth))

	d.mu.Lock()
	d.stats = sb.String()
	d.mu.Unlock()
}

func (d *dashboard) renderActivity() {
	feed := ui.RenderActivityFeed(app.History.Latest(activityLimit), time.Now())

	d.mu.Lock()
	d.activity = feed
	d.mu.Unlock()
}

// backendAnalytics summarizes the backend's 30-day totals; empty when unavailable.
func backendAnalytics(ctx context.Context) string {
	actx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	env, err := app.Client.Analytics(actx)
	if err != nil {
		return ""
	}
	days := gjson.GetBytes(env, "data")
	if !days.IsArray() {
		return ""
	}
	var total, succeeded int64
	for _, day := range days.Array() {
		total += day.Get("interactions").Int()
		succeeded += day.Get("successful_operations").Int()
	}
	return fmt.Sprintf("%s %d interactions, %d successful (last 30 days)",
		ui.Color(ui.Bold, "Backend:"), total, succeeded)
}

func (d *dashboard) draw() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.clear {
		fmt.Fprint(d.out, "\033[H\033[2J")
	}
	fmt.Fprintln(d.out, ui.Color(ui.Bold+ui.Cyan, "NYRA Dashboard"))
	fmt.Fprintf(d.out, "Backend %s  %s\n", app.Transport.BaseURL(), d.backend)
	fmt.Fprintf(d.out, "On-device %s\n\n", app.RuntimeLabel())
	fmt.Fprint(d.out, d.stats)
	if d.analytics != "" {
		fmt.Fprintln(d.out)
		fmt.Fprintln(d.out, d.analytics)
	}
	fmt.Fprintln(d.out)
	fmt.Fprint(d.out, d.activity)
	if d.clear {
		fmt.Fprintln(d.out)
		fmt.Fprintln(d.out, ui.RenderDim("Press Ctrl+C to exit"))
	}
}
