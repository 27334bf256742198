package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"szuro.net/zts/internal/config"
	"szuro.net/zts/internal/input"
	"szuro.net/zts/internal/journal"
	"szuro.net/zts/internal/logger"
)

func printVersionInfo() {
	fmt.Printf("ZTS %s\n", config.Version)
	fmt.Printf("Git commit: %s\n", config.Commit)
	fmt.Printf("Compilation time: %s\n", config.BuildDate)
}

func openJournal(conf config.JournalConf) (journal.Journal, error) {
	if !conf.Enabled() {
		return nil, nil
	}
	j, err := journal.New(context.Background(), conf.Type, conf.DSN, conf.Table)
	if err != nil {
		return nil, err
	}
	logger.Info("Delivery journal enabled", slog.String("type", conf.Type))
	return j, nil
}

func main() {

	ztsPath := flag.String("c", "/etc/ztsd.yaml", "Path of config file")
	version := flag.Bool("v", false, "Show version info")
	flag.Parse()

	if *version {
		printVersionInfo()
		os.Exit(0)
	}

	ztsConfig, err := config.ParseZTSConfig(*ztsPath)
	if err != nil {
		logger.Error("Invalid configuration", slog.String("path", *ztsPath), slog.Any("error", err))
		os.Exit(1)
	}
	logger.SetLogLevel(ztsConfig.GetLogLevel())

	j, err := openJournal(ztsConfig.Journal)
	if err != nil {
		logger.Error("Failed to open delivery journal", slog.Any("error", err))
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	var inp input.Inputer

	switch ztsConfig.Mode {
	case config.FILE_MODE:
		inp, err = input.NewFileInput(ztsConfig, j)
	case config.HTTP_MODE:
		var hi *input.HTTPInput
		hi, err = input.NewHTTPInput(ztsConfig, j)
		if err == nil {
			hi.Register(mux)
			inp = hi
		}
	default:
		err = fmt.Errorf("unknown mode %q", ztsConfig.Mode)
	}
	if err != nil {
		logger.Error("Failed to create input", slog.String("mode", ztsConfig.Mode), slog.Any("error", err))
		os.Exit(1)
	}

	if err = inp.Prepare(); err != nil {
		logger.Error("Failed to prepare channels", slog.Any("error", err))
		os.Exit(1)
	}
	config.ZtsInfo.Set(1)

	listen := fmt.Sprintf("%s:%d", ztsConfig.Http.ListenAddress, ztsConfig.Http.ListenPort)
	server := &http.Server{Addr: listen, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", slog.String("listen", listen), slog.Any("error", err))
		}
	}()

	for isActive := inp.IsReady(); !isActive; {
		logger.Info("Input is not active, sleeping for ", slog.Duration("delay", input.DEFAULT_DELAY))
		time.Sleep(input.DEFAULT_DELAY)
		isActive = inp.IsReady()
	}

	logger.Info("Input is active", slog.String("mode", ztsConfig.Mode), slog.String("listen", listen))

	inp.Start()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)
	<-sig

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", slog.Any("error", err))
	}
	if err := inp.Stop(); err != nil {
		logger.Error("stopping failed", slog.Any("error", err))
	}
	if j != nil {
		j.Close()
	}
	logger.Info("Exiting...")
}
