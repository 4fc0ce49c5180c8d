package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/tender-optimizer/internal/bootstrap"
	"github.com/iwvelando/tender-optimizer/internal/config"
	"github.com/iwvelando/tender-optimizer/internal/server"
	"github.com/iwvelando/tender-optimizer/pkg/constants"
	"go.uber.org/zap"
)

var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	configLocation := flag.String("config", constants.DefaultServerConfigFile, "path to server configuration file")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	srvConf, err := server.LoadConfig(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	conf := config.Default()
	if srvConf.Optimizer != "" {
		conf, err = config.LoadConfiguration(srvConf.Optimizer)
		if err != nil {
			fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load optimizer configuration at %s\", \"error\": \"%v\"}\n", srvConf.Optimizer, err)
			os.Exit(1)
		}
	}

	// The server file's logging section wins over the optimizer file's.
	logging := conf.Logging
	if srvConf.Logging.Level != "" {
		logging.Level = srvConf.Logging.Level
	}
	if srvConf.Logging.Format != "" {
		logging.Format = srvConf.Logging.Format
	}
	if srvConf.Logging.OutputFile != "" {
		logging.OutputFile = srvConf.Logging.OutputFile
	}

	logger, err := bootstrap.InitializeLogger(logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	for _, warning := range conf.Warnings() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := bootstrap.NewServices(ctx, conf, logger)
	if err != nil {
		logger.Fatal("failed to initialize services",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	defer services.Close()

	srv := &http.Server{
		Addr:              srvConf.Address,
		Handler:           server.NewHandler(services.Service, logger, srvConf, conf.Optimizer.DefaultStrategy(), version),
		ReadHeaderTimeout: 5 * time.Second,
		ErrorLog:          zap.NewStdLog(logger),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("op", "main"),
			zap.String("address", srvConf.Address),
			zap.String("backend", services.Service.Backend()),
			zap.String("version", version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			logger.Error("server failed",
				zap.String("op", "main"),
				zap.Error(err),
			)
			return
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server", zap.String("op", "main"))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shut down server",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}

