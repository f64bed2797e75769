// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command hde loads a circuit design, runs it for a number of ticks and logs
// the state of the requested ports.
//
// Usage:
//
//	hde -design adder.yaml -ticks 8 -probe "3.O, 7.O"
//
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/db47h/hde"
	"github.com/db47h/hde/design"
	"github.com/db47h/hde/editor"
	"github.com/db47h/hde/hdelib"
	"github.com/db47h/hde/internal/config"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	var (
		cfgPath    = flag.String("config", "", "configuration `file` (TOML)")
		designPath = flag.String("design", "", "design `file` to load (YAML)")
		ticks      = flag.Int("ticks", -1, "number of ticks to run (default from config)")
		probes     = flag.String("probe", "", "comma separated list of `ports` to report, as in \"3.O, 4.P1\"")
		savePath   = flag.String("save", "", "save the design to `file` after running")
	)
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	if *ticks >= 0 {
		cfg.Simulation.Ticks = *ticks
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	if err := run(log, cfg, *designPath, *probes, *savePath); err != nil {
		log.Error("hde failed", zap.Error(err))
		log.Sync() //nolint:errcheck
		os.Exit(1)
	}
}

func run(log *zap.Logger, cfg *config.Config, designPath, probes, savePath string) error {
	if designPath == "" {
		return errors.New("no design file given")
	}
	eps, err := editor.ParseEndpoints(probes)
	if err != nil {
		return errors.Wrap(err, "probe")
	}
	doc, err := design.Load(designPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []editor.Option{
		editor.WithLogger(log),
		editor.WithWorkers(cfg.Simulation.Workers),
		editor.WithRegistry(registry(log, cfg.Simulation)),
	}
	var srv *http.Server
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		m, err := hde.NewMetrics(reg)
		if err != nil {
			return err
		}
		opts = append(opts, editor.WithMetrics(m))
		srv = serveMetrics(log, cfg.Metrics.Address, reg)
	}

	e := editor.New(hdelib.Builtin(), opts...)
	defer e.Close()
	if err := e.Load(doc); err != nil {
		return err
	}

	start := time.Now()
	for i := 0; i < cfg.Simulation.Ticks && ctx.Err() == nil; i++ {
		e.Tick()
	}
	log.Info("simulation done",
		zap.Uint64("ticks", e.Ticks()),
		zap.Int("nodes", e.Len()),
		zap.Duration("elapsed", time.Since(start)))

	for _, ep := range eps {
		s, err := e.State(ep)
		if err != nil {
			return err
		}
		log.Info("probe", zap.Stringer("port", ep), zap.Bool("state", s))
	}

	if savePath != "" {
		if err := design.Save(savePath, e.Save()); err != nil {
			return err
		}
		log.Info("design saved", zap.String("path", savePath))
	}

	if srv != nil {
		log.Info("serving metrics until interrupted", zap.String("address", cfg.Metrics.Address))
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	}
	return nil
}

// registry returns the process-wide registry unless the configuration asks
// for a different id bound.
func registry(log *zap.Logger, cfg config.SimulationConfig) *hde.Registry {
	if cfg.MaxIDs == hde.DefaultMaxIDs {
		return hde.Default()
	}
	return hde.NewRegistry(
		hde.WithMaxIDs(cfg.MaxIDs),
		hde.WithLogger(log.Named("registry")))
}

func serveMetrics(log *zap.Logger, addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server", zap.Error(err))
		}
	}()
	return srv
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
