// intent-runner executes a batch translation experiment over a scenario
// corpus and writes checkpoints, paired Simple/ICM intent files and the
// metrics summary.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/thc1006/tmf921-intent-bridge/internal/config"
	"github.com/thc1006/tmf921-intent-bridge/internal/dataset"
	"github.com/thc1006/tmf921-intent-bridge/internal/pipeline"
	"github.com/thc1006/tmf921-intent-bridge/pkg/gst"
	"github.com/thc1006/tmf921-intent-bridge/pkg/llm"
	"github.com/thc1006/tmf921-intent-bridge/pkg/logging"
	"github.com/thc1006/tmf921-intent-bridge/pkg/rag"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config file")
		scenarios  = flag.String("scenarios", "scenarios.json", "scenario corpus (JSON array of strings)")
		experiment = flag.String("experiment", "zero_shot", "experiment name recorded in the summary")
		split      = flag.String("split", "", "run only one split: train, val or test")
		samples    = flag.Int("samples", 0, "run only n random samples (0 = all)")
		seed       = flag.Int64("seed", dataset.DefaultSeed, "shuffle seed for splits and sampling")
		useRAG     = flag.Bool("rag", false, "ground prompts with retrieval")
	)
	flag.Parse()

	if err := run(*configPath, *scenarios, *experiment, *split, *samples, *seed, *useRAG); err != nil {
		fmt.Fprintf(os.Stderr, "intent-runner: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, scenariosPath, experiment, split string, samples int, seed int64, useRAG bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg.Logging.Component = "runner"
	logger := logging.New(cfg.Logging, nil)

	registry := gst.Default()
	if cfg.GST.Path != "" {
		data, err := os.ReadFile(cfg.GST.Path)
		if err != nil {
			return fmt.Errorf("failed to read gst catalog: %w", err)
		}
		if registry, err = gst.ParseGST(data); err != nil {
			return err
		}
	}

	ds, err := dataset.Load(scenariosPath)
	if err != nil {
		return err
	}
	stats := ds.Analyze()
	logger.Info("corpus loaded",
		"scenarios", stats.Total,
		"avg_chars", int(stats.AvgChars),
	)

	batch, err := selectScenarios(ds, split, samples, seed)
	if err != nil {
		return err
	}

	client := llm.NewOllamaClient(cfg.LLM.Endpoint, cfg.LLM.Model,
		llm.WithMaxRetries(cfg.LLM.MaxRetries))
	if err := client.CheckConnection(context.Background()); err != nil {
		return fmt.Errorf("llm backend unreachable: %w", err)
	}

	var retriever rag.Retriever
	if useRAG {
		var cleanup func()
		retriever, cleanup, err = rag.NewRetriever(cfg.RAG, registry, logger)
		if err != nil {
			return err
		}
		defer cleanup()
	}

	p, err := pipeline.New(registry, client, retriever, nil, logger, pipeline.Options{
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		TopK:        cfg.RAG.TopK,
		ExportICM:   cfg.ICM.Export,
	})
	if err != nil {
		return err
	}

	outDir := filepath.Join(cfg.Output.Dir,
		fmt.Sprintf("%s_%s", experiment, time.Now().Format("20060102_150405")))
	runner := pipeline.NewRunner(p, outDir, experiment, cfg.LLM.Model,
		cfg.Output.CheckpointInterval, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	_, err = runner.Run(ctx, batch)
	return err
}

// selectScenarios narrows the corpus to the requested split or sample.
func selectScenarios(ds *dataset.Dataset, split string, samples int, seed int64) ([]string, error) {
	if samples > 0 {
		return ds.Samples(samples, seed), nil
	}
	if split == "" {
		return ds.Scenarios, nil
	}
	train, val, test, err := ds.Split(0.7, 0.15, 0.15, seed)
	if err != nil {
		return nil, err
	}
	switch split {
	case "train":
		return train, nil
	case "val":
		return val, nil
	case "test":
		return test, nil
	default:
		return nil, fmt.Errorf("unknown split %q", split)
	}
}
