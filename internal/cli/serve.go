package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/matzehuels/postkit/internal/server"
	"github.com/matzehuels/postkit/pkg/config"
	"github.com/matzehuels/postkit/pkg/drafts"
	"github.com/matzehuels/postkit/pkg/editor"
	"github.com/matzehuels/postkit/pkg/presets"
)

type serveOpts struct {
	addr string
}

func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP editing API",
		Long: `Serve editing sessions over HTTP.

Expired drafts and idle sessions are purged on the [server] purge_schedule
(cron syntax, e.g. "@every 10m"). When [presets] path is set, the catalog is
reloaded whenever the file changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	addr := cfg.Server.Addr
	if opts.addr != "" {
		addr = opts.addr
	}

	src, stop, err := c.watchPresets(ctx, cfg)
	if err != nil {
		return err
	}
	defer stop()

	svc, st, err := c.openDrafts(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	sessions := editor.NewRegistry(c.editorOptions(cfg, src), cfg.DragOptions()...)

	if cfg.Server.PurgeSchedule != "" {
		sched, err := schedulePurge(cfg.Server.PurgeSchedule, c.Logger, purgeJob(ctx, c.Logger, svc, sessions, cfg.Server.SessionIdle.Duration))
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	srv := server.New(server.Config{
		Sessions: sessions,
		Drafts:   svc,
		Presets:  src,
		Width:    cfg.Post.Width,
		Logger:   c.Logger,
	})
	printInfo("Listening on %s", StyleHighlight.Render(addr))
	printDetail("store: %s", cfg.Store.Backend)
	return srv.ListenAndServe(ctx, addr)
}

// watchPresets returns the preset source for the server. A configured
// catalog file is watched for changes until stop is called.
func (c *CLI) watchPresets(ctx context.Context, cfg *config.Config) (presets.Source, func(), error) {
	if cfg.Presets.Path == "" {
		return presets.Default(), func() {}, nil
	}
	w, err := presets.Watch(cfg.Presets.Path, c.Logger, nil)
	if err != nil {
		return nil, nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Run(ctx); err != nil && ctx.Err() == nil {
			c.Logger.Warn("presets watcher stopped", "error", err)
		}
	}()
	c.Logger.Debug("watching presets", "path", cfg.Presets.Path)
	return w, func() {
		cancel()
		w.Close()
		<-done
	}, nil
}

// purgeJob removes expired drafts and sessions idle for longer than idle.
func purgeJob(ctx context.Context, logger *log.Logger, svc *drafts.Service, sessions *editor.Registry, idle time.Duration) func() {
	return func() {
		n, err := svc.Purge(ctx)
		if err != nil {
			logger.Warn("draft purge failed", "error", err)
		}
		closed := 0
		if idle > 0 {
			closed = sessions.PurgeIdle(idle)
		}
		if n > 0 || closed > 0 {
			logger.Info("purged", "drafts", n, "sessions", closed)
		}
	}
}

// schedulePurge registers job on a cron schedule. The scheduler is not
// started.
func schedulePurge(spec string, logger *log.Logger, job func()) (*cron.Cron, error) {
	sched := cron.New(cron.WithLogger(cronLogger{logger}))
	if _, err := sched.AddFunc(spec, job); err != nil {
		return nil, err
	}
	return sched, nil
}

// cronLogger adapts a charm logger to cron.Logger.
type cronLogger struct {
	l *log.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
