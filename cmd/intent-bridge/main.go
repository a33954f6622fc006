// intent-bridge serves the TMF921 intent pipeline over HTTP.
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

	"github.com/prometheus/client_golang/prometheus"

	"github.com/thc1006/tmf921-intent-bridge/internal/config"
	"github.com/thc1006/tmf921-intent-bridge/internal/pipeline"
	"github.com/thc1006/tmf921-intent-bridge/internal/server"
	"github.com/thc1006/tmf921-intent-bridge/pkg/gst"
	"github.com/thc1006/tmf921-intent-bridge/pkg/llm"
	"github.com/thc1006/tmf921-intent-bridge/pkg/logging"
	"github.com/thc1006/tmf921-intent-bridge/pkg/metrics"
	"github.com/thc1006/tmf921-intent-bridge/pkg/rag"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "intent-bridge: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Logging, nil)

	registry, err := loadRegistry(cfg.GST.Path)
	if err != nil {
		return err
	}
	logger.Info("gst catalog loaded", "characteristics", registry.Len())

	client := llm.NewOllamaClient(cfg.LLM.Endpoint, cfg.LLM.Model,
		llm.WithMaxRetries(cfg.LLM.MaxRetries))
	if err := client.CheckConnection(context.Background()); err != nil {
		logger.Warn("llm backend unreachable at startup", "error", err)
	}

	retriever, cleanup, err := rag.NewRetriever(cfg.RAG, registry, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	recorder := metrics.NewRecorder(prometheus.DefaultRegisterer)
	p, err := pipeline.New(registry, client, retriever, recorder, logger, pipeline.Options{
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		TopK:        cfg.RAG.TopK,
		ExportICM:   cfg.ICM.Export,
	})
	if err != nil {
		return err
	}

	srv := server.New(p, client, logger, server.Config{
		Address:      cfg.Server.Address,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func loadRegistry(path string) (*gst.Registry, error) {
	if path == "" {
		return gst.Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read gst catalog: %w", err)
	}
	return gst.ParseGST(data)
}
