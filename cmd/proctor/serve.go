package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/loykin/proctor"
)

func runServeCommand(flags *ServeFlags, args []string) error {
	configPath := flags.ConfigPath
	if len(args) > 0 {
		configPath = args[0]
	}
	if configPath == "" {
		return fmt.Errorf("config file required for serve command. Use --config=config.toml or provide as argument")
	}

	cfg, err := proctor.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	// If daemonize is requested, re-exec in the background and exit
	if flags.Daemonize {
		pidfile := ""
		if cfg.Server != nil {
			pidfile = cfg.Server.PidFile
		}
		return daemonize(pidfile, flags.LogFile)
	}

	logger, logCloser := cfg.LoggerConfig().New()
	defer func() { _ = logCloser.Close() }()
	slog.SetDefault(logger)

	reg := proctor.New(cfg.Root)
	reg.SetLogger(logger)
	reg.SetLocking(cfg.LockingEnabled())

	if dsn := cfg.HistoryDSN(); dsn != "" {
		sink, err := proctor.NewHistorySink(dsn)
		if err != nil {
			return fmt.Errorf("history sink: %w", err)
		}
		if closer, ok := sink.(io.Closer); ok {
			defer func() { _ = closer.Close() }()
		}
		reg.SetHistorySink(sink)
		logger.Info("history sink enabled")
	}

	if cfg.Server.PidFile != "" {
		if err := writePidFile(cfg.Server.PidFile, os.Getpid()); err != nil {
			return fmt.Errorf("write pid file: %w", err)
		}
		defer func() { _ = removePidFile(cfg.Server.PidFile) }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	var metricsSrv *http.Server
	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		if err := proctor.RegisterMetricsDefault(); err != nil {
			logger.Warn("metrics registration failed", "error", err)
		}
		if cfg.Metrics.Listen != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", proctor.MetricsHandler())
			metricsSrv = &http.Server{
				Addr:              cfg.Metrics.Listen,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       10 * time.Second,
				WriteTimeout:      10 * time.Second,
				IdleTimeout:       60 * time.Second,
			}
			group.Go(func() error {
				logger.Info("metrics server listening", "addr", metricsSrv.Addr)
				if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("metrics server: %w", err)
				}
				return nil
			})
		}
	}

	tlsCfg, err := proctor.SetupTLS(cfg.Server.TLS)
	if err != nil {
		return fmt.Errorf("tls setup: %w", err)
	}
	protocol := "HTTP"
	if tlsCfg != nil {
		protocol = "HTTPS"
	}

	apiSrv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           proctor.NewHandler(reg, cfg.Server.BasePath),
		TLSConfig:         tlsCfg,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	group.Go(func() error {
		logger.Info("registry server listening",
			"protocol", protocol, "addr", cfg.Server.Listen, "base_path", cfg.Server.BasePath, "root", cfg.Root)
		var err error
		if tlsCfg != nil {
			// Certificate paths live in TLSConfig.GetCertificate.
			err = apiSrv.ListenAndServeTLS("", "")
		} else {
			err = apiSrv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("registry server: %w", err)
		}
		return nil
	})

	// Shut both servers down once a signal arrives or either server fails
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(shutdownCtx)
		}
		return apiSrv.Shutdown(shutdownCtx)
	})

	err = group.Wait()
	logger.Info("shut down")
	return err
}
