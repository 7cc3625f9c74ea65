package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/stevemurr/content-builder/generate"
	"github.com/stevemurr/content-builder/handler"
	"github.com/stevemurr/content-builder/logger"
	"github.com/stevemurr/content-builder/model"
	"github.com/stevemurr/content-builder/store"
)

const shutdownTimeout = 10 * time.Second

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Example: `  content-builder serve
  content-builder serve --backend sqlite --port 8080
  content-builder serve --export-schedule "@every 6h"`,
		Args: cobra.NoArgs,
		RunE: a.runServe,
	}
	f := cmd.Flags()
	f.String("host", "", "listen host (env HOST)")
	f.Int("port", 0, "listen port (env PORT)")
	f.String("export-dir", "", "root directory for exports (env EXPORT_DIR)")
	f.String("export-schedule", "", "cron spec for periodic export snapshots (env EXPORT_SCHEDULE)")
	for flag, key := range map[string]string{
		"host":            "server.host",
		"port":            "server.port",
		"export-dir":      "export.dir",
		"export-schedule": "export.schedule",
	} {
		mustBind(a.v.BindPFlag(key, f.Lookup(flag)))
	}
	return cmd
}

func (a *app) runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := a.cfg

	data, err := a.openData()
	if err != nil {
		return err
	}
	defer data.Close()

	var providers []generate.Provider
	if cfg.OpenAI.APIKey != "" {
		providers = append(providers, generate.NewOpenAIProvider(cfg.OpenAI.APIKey, cfg.OpenAI.Model))
	} else {
		a.log.Warn("OPENAI_API_KEY not set; content generation disabled")
	}

	if cfg.Log.Mode == "prod" || cfg.Log.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	h := handler.New(data, handler.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		ExportRoot:     cfg.Export.Dir,
		Generator:      generate.NewService(data, a.log, providers...),
	}, a.log)

	if cfg.Export.Schedule != "" {
		c := cron.New()
		if _, err := scheduleExports(ctx, c, cfg.Export.Schedule, cfg.Export.Dir, data, a.log); err != nil {
			return err
		}
		c.Start()
		defer func() { <-c.Stop().Done() }()
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server starting", "addr", srv.Addr, "backend", data.Backend().Name(),
			"origins", cfg.Server.AllowedOrigins)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	a.log.Info("server stopped")
	return nil
}

// scheduleExports registers a job on c that writes a snapshot into a fresh
// scheduled_<timestamp> directory under root on every tick of spec.
func scheduleExports(ctx context.Context, c *cron.Cron, spec, root string, data *store.DataManager, log *logger.Logger) (cron.EntryID, error) {
	log = log.With("job", "scheduled_export")
	id, err := c.AddFunc(spec, func() {
		dir := filepath.Join(root, "scheduled_"+model.Now().Format("20060102_150405"))
		if _, err := data.ExportAll(ctx, dir); err != nil {
			log.Error("scheduled export failed", "dir", dir, "error", err)
			return
		}
		log.Info("scheduled export written", "dir", dir)
	})
	if err != nil {
		return 0, fmt.Errorf("invalid export schedule %q: %w", spec, err)
	}
	log.Info("export schedule registered", "spec", spec, "root", root)
	return id, nil
}
