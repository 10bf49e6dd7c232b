// Command shadowmine analyzes numeric sequences for golden-ratio
// structure: phi-spaced growth, Fibonacci likeness, geometric coherence
// and phi-spaced spectral coupling.
//
// Usage:
//
//	shadowmine analyze --input data.csv,more.json
//	shadowmine analyze --config config.yaml
//	shadowmine demo
//	shadowmine wizard
//	shadowmine serve --store ./wal/verdicts --listen :8080
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/kavikulu/shadowmine/config"
	"github.com/kavikulu/shadowmine/internal/domain"
	"github.com/kavikulu/shadowmine/internal/services/batch"
	"github.com/kavikulu/shadowmine/internal/services/dataset"
	"github.com/kavikulu/shadowmine/internal/services/report"
	"github.com/kavikulu/shadowmine/internal/setup"
	"github.com/kavikulu/shadowmine/internal/storage/results"
	"github.com/kavikulu/shadowmine/internal/web"
	"github.com/kavikulu/shadowmine/pkg/synth"
)

func main() {
	command := "analyze"
	args := os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		command = args[0]
		args = args[1:]
	}

	switch command {
	case "analyze":
		if err := runAnalyze(args); err != nil {
			log.Fatal(err)
		}
	case "demo":
		if err := runDemo(args); err != nil {
			log.Fatal(err)
		}
	case "wizard":
		if err := setup.RunTUI(); err != nil {
			log.Fatal(err)
		}
	case "serve":
		if err := runServe(args); err != nil {
			log.Fatal(err)
		}
	default:
		log.Fatalf("unknown command %q (expected analyze, demo, wizard or serve)", command)
	}
}

func runAnalyze(args []string) error {
	cfg, err := config.Get(args)
	if err != nil {
		return err
	}
	if len(cfg.Inputs) == 0 {
		return fmt.Errorf("no datasets provided, use --input or a yaml config")
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sequences, err := dataset.NewLoader(logger).LoadAll(ctx, cfg.Inputs)
	if err != nil {
		return err
	}

	return runPipeline(ctx, logger, cfg, sequences)
}

func runDemo(args []string) error {
	cfg, err := config.Get(args)
	if err != nil {
		return err
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return runPipeline(ctx, logger, cfg, demoSequences())
}

// demoSequences bundles generated inputs with known structure: the phi
// family should come back significant, the noise control should not.
func demoSequences() []domain.NamedSequence {
	return []domain.NamedSequence{
		{Name: "phi_decay", Values: synth.PhiDecay(144, 32)},
		{Name: "phi_decay_noisy", Values: synth.WithNoise(synth.PhiDecay(144, 32), 0.01, 7)},
		{Name: "fibonacci", Values: synth.Fibonacci(1, 16)},
		{Name: "uniform_noise", Values: synth.Noise(1, 100, 32, 7)},
		{Name: "phi_tones", Values: synth.Tones(64, 8.0/64, 13.0/64)},
	}
}

func runServe(args []string) error {
	cfg, err := config.Get(args)
	if err != nil {
		return err
	}
	if cfg.StoreDir == "" {
		cfg.StoreDir = results.DefaultDir
	}
	if cfg.Listen == "" {
		cfg.Listen = ":8080"
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := results.NewWALStore(cfg.StoreDir)
	if err != nil {
		return err
	}
	defer store.Close()

	logger.Info("verdict dashboard listening", zap.String("addr", cfg.Listen), zap.String("store", cfg.StoreDir))
	return web.NewServer(logger, cfg.Listen, store).Start(ctx)
}

func runPipeline(ctx context.Context, logger *zap.Logger, cfg config.Config, sequences []domain.NamedSequence) error {
	var store *results.WALStore
	if cfg.StoreDir != "" {
		var err error
		store, err = results.NewWALStore(cfg.StoreDir)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	var analyzer *batch.Analyzer
	if store != nil {
		analyzer = batch.NewAnalyzer(logger, cfg, store)
	} else {
		analyzer = batch.NewAnalyzer(logger, cfg, nil)
	}

	serving := false
	if cfg.Listen != "" {
		if store == nil {
			logger.Warn("verdict dashboard needs a store, use --store", zap.String("listen", cfg.Listen))
		} else {
			server := web.NewServer(logger, cfg.Listen, store)
			go func() {
				if err := server.Start(ctx); err != nil {
					logger.Error("verdict stream server stopped", zap.Error(err))
				}
			}()
			logger.Info("verdict dashboard listening", zap.String("addr", cfg.Listen))
			serving = true
		}
	}

	runReport, err := analyzer.Run(ctx, sequences)
	if err != nil {
		return err
	}

	if err := report.NewRenderer(os.Stdout, cfg.JSON).Render(runReport); err != nil {
		return err
	}

	if serving {
		logger.Info("dashboard still serving, press ctrl-c to stop")
		<-ctx.Done()
	}
	return nil
}
