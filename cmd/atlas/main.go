// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/atlas"
	"github.com/poiesic/atlas/api"
	"github.com/poiesic/atlas/cognition"
	"github.com/poiesic/atlas/config"
	"github.com/poiesic/atlas/ingestion"
	"github.com/poiesic/atlas/metrics"
	"github.com/poiesic/atlas/scheduler"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
)

const configKey = "config"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "atlas",
		Usage: "Adaptive concept graph and interaction memory engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (default: search for atlas.yaml)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
			},
			&cli.BoolFlag{
				Name:  "in-memory",
				Usage: "Use a throwaway in-memory database",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API with background absorption and consolidation",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (overrides server.addr)",
					},
					&cli.BoolFlag{
						Name:  "no-learning",
						Usage: "Do not start background absorption and consolidation",
					},
				},
			},
			{
				Name:      "think",
				Usage:     "Answer a prompt and learn from it",
				ArgsUsage: "<prompt>",
				Action:    thinkCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "context",
						Usage: "Query context as key=value, repeatable",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the full response as JSON",
					},
				},
			},
			{
				Name:      "absorb",
				Usage:     "Absorb an absorption results file",
				ArgsUsage: "[file]",
				Action:    absorbCommand,
			},
			{
				Name:   "status",
				Usage:  "Print the thinking status",
				Action: statusCommand,
			},
			{
				Name:   "insights",
				Usage:  "Print top concepts and recent learning",
				Action: insightsCommand,
			},
			{
				Name:   "consolidate",
				Usage:  "Run one consolidation cycle",
				Action: consolidateCommand,
			},
			{
				Name:   "config",
				Usage:  "Print the effective configuration",
				Action: configCommand,
			},
		},
	}
}

// setupLogger loads the configuration and installs the default logger.
func setupLogger(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = strings.ToLower(c.String("log-level"))
	}
	if c.IsSet("db") {
		cfg.DB.Path = c.String("db")
	}
	if c.Bool("in-memory") {
		cfg.DB.InMemory = true
	}

	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", cfg.Log.Level)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

func loadedConfig(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[configKey].(*config.Config); ok {
		return cfg
	}
	return config.DefaultConfig()
}

// session is an open database plus the engine on top of it.
type session struct {
	db     *atlas.Database
	engine *atlas.Engine
}

func openSession(ctx context.Context, cfg *config.Config, opts ...atlas.Option) (*session, error) {
	var dbOpts []atlas.DatabaseOption
	if cfg.DB.InMemory {
		dbOpts = append(dbOpts, atlas.WithInMemory())
	}
	db, err := atlas.NewDatabase(cfg.DB.Path, dbOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	opts = append([]atlas.Option{
		atlas.WithGateway(db.NewGateway()),
		atlas.WithSavePoolSize(cfg.Save.PoolSize),
	}, opts...)
	engine, err := atlas.NewEngine(ctx, opts...)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to start engine: %w", err)
	}
	return &session{db: db, engine: engine}, nil
}

func (s *session) Close(ctx context.Context) error {
	return errors.Join(s.engine.Close(ctx), s.db.Close())
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func serveCommand(c *cli.Context) error {
	cfg := loadedConfig(c)
	if c.IsSet("addr") {
		cfg.Server.Addr = c.String("addr")
	}
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	source := ingestion.NewFileSource(cfg.Absorption.Path, logger)
	s, err := openSession(ctx, cfg,
		atlas.WithMetrics(m),
		atlas.WithBatchSource(source),
	)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.Close(closeCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	if !c.Bool("no-learning") {
		schedOpts := []scheduler.Option{
			scheduler.WithAbsorptionInterval(cfg.Absorption.Interval),
			scheduler.WithConsolidationInterval(cfg.Consolidation.Interval),
		}
		if cfg.Absorption.Watch {
			schedOpts = append(schedOpts, scheduler.WithWatcher(source))
		}
		sched, err := scheduler.New(s.engine, schedOpts...)
		if err != nil {
			return err
		}
		sched.Start(ctx)
		defer sched.Stop()
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewRouter(s.engine, m, reg, logger),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("atlas server starting", "addr", cfg.Server.Addr)
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
	case <-ctx.Done():
	}

	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("server stopped")
	return nil
}

func thinkCommand(c *cli.Context) error {
	prompt := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("a prompt is required")
	}
	queryContext, err := parseContext(c.StringSlice("context"))
	if err != nil {
		return err
	}

	s, err := openSession(c.Context, loadedConfig(c))
	if err != nil {
		return err
	}
	defer s.Close(c.Context)

	resp, err := s.engine.Think(c.Context, cognition.Query{Prompt: prompt, Context: queryContext})
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return printJSON(c, resp)
	}
	fmt.Fprintln(c.App.Writer, resp.Content)
	fmt.Fprintln(c.App.Writer)
	for _, line := range resp.Reasoning {
		fmt.Fprintf(c.App.Writer, "- %s\n", line)
	}
	return nil
}

// parseContext turns key=value pairs into a JSON object of string values.
func parseContext(pairs []string) (json.RawMessage, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid context %q: expected key=value", pair)
		}
		out[key] = value
	}
	return json.Marshal(out)
}

func absorbCommand(c *cli.Context) error {
	cfg := loadedConfig(c)
	path := cfg.Absorption.Path
	if c.Args().Present() {
		path = c.Args().First()
	}

	batch, err := ingestion.NewFileSource(path, slog.Default()).Latest(c.Context)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	s, err := openSession(c.Context, cfg)
	if err != nil {
		return err
	}
	defer s.Close(c.Context)

	summary, err := s.engine.Absorb(c.Context, batch)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Absorbed %d samples, skipped %d results, discovered %d concepts\n",
		summary.Absorbed, summary.Skipped, len(summary.Discovered))
	for _, name := range summary.Discovered {
		fmt.Fprintf(c.App.Writer, "  + %s\n", name)
	}
	fmt.Fprintf(c.App.Writer, "Intelligence level: %.1f\n", s.engine.Status().IntelligenceLevel)
	return nil
}

func statusCommand(c *cli.Context) error {
	s, err := openSession(c.Context, loadedConfig(c))
	if err != nil {
		return err
	}
	defer s.Close(c.Context)
	return printJSON(c, s.engine.Status())
}

func insightsCommand(c *cli.Context) error {
	s, err := openSession(c.Context, loadedConfig(c))
	if err != nil {
		return err
	}
	defer s.Close(c.Context)
	return printJSON(c, s.engine.CognitiveInsights())
}

func consolidateCommand(c *cli.Context) error {
	s, err := openSession(c.Context, loadedConfig(c))
	if err != nil {
		return err
	}
	defer s.Close(c.Context)

	report, err := s.engine.Consolidate(c.Context)
	if err != nil {
		return err
	}
	if report.SaveError != nil {
		return fmt.Errorf("consolidation save failed: %w", report.SaveError)
	}
	fmt.Fprintf(c.App.Writer, "Reinforced %d concepts, trimmed memory: %t\n", report.Reinforced, report.Trimmed)
	return nil
}

func configCommand(c *cli.Context) error {
	out, err := loadedConfig(c).YAML()
	if err != nil {
		return err
	}
	_, err = c.App.Writer.Write(out)
	return err
}
