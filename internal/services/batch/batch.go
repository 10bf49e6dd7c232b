package batch

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kavikulu/shadowmine/config"
	"github.com/kavikulu/shadowmine/internal/domain"
	"github.com/kavikulu/shadowmine/pkg/pattern"
)

// verdictSink receives verdict events as they are produced.
type verdictSink interface {
	Save(event domain.VerdictEvent) error
}

// Analyzer runs the configured detectors over named sequences
// concurrently, one worker per sequence, capturing per-sequence errors
// without stopping the run.
type Analyzer struct {
	l    *zap.Logger
	cfg  config.Config
	sink verdictSink
}

// NewAnalyzer creates an Analyzer. The sink may be nil, which disables
// verdict persistence.
func NewAnalyzer(l *zap.Logger, cfg config.Config, sink verdictSink) *Analyzer {
	return &Analyzer{l: l, cfg: cfg, sink: sink}
}

// Run analyzes every sequence with the configured detectors and, when
// cross-coupling is selected, every distinct sequence pair. Detector
// errors are captured in the report; Run itself fails only when the
// context is canceled.
func (a *Analyzer) Run(ctx context.Context, sequences []domain.NamedSequence) (domain.RunReport, error) {
	report := domain.RunReport{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
		Sequences: make([]domain.SequenceReport, len(sequences)),
	}

	a.l.Info("analysis started",
		zap.String("run_id", report.RunID),
		zap.Int("sequences", len(sequences)),
		zap.Int("detectors", len(a.cfg.Detectors)))

	workers := a.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, seq := range sequences {
		g.Go(func() error {
			report.Sequences[i] = a.analyzeSequence(gctx, report.RunID, seq)
			return nil
		})
	}
	_ = g.Wait()

	if a.wantsCrossCoupling() {
		report.Pairs = a.analyzePairs(ctx, report.RunID, sequences, workers)
	}

	report.Elapsed = time.Since(report.StartedAt)

	if err := ctx.Err(); err != nil {
		return report, err
	}

	a.l.Info("analysis finished",
		zap.String("run_id", report.RunID),
		zap.Duration("elapsed", report.Elapsed),
		zap.Int("significant", report.SignificantCount()),
		zap.Int("failed", report.FailedCount()))

	return report, nil
}

func (a *Analyzer) analyzeSequence(ctx context.Context, runID string, seq domain.NamedSequence) domain.SequenceReport {
	out := domain.SequenceReport{Sequence: seq.Name}

	var errs []string
	for _, kind := range a.cfg.Detectors {
		if kind == pattern.KindCrossCoupling {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err.Error())
			break
		}

		res, err := a.detect(kind, seq.Values)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}

		out.Verdicts = append(out.Verdicts, res)
		a.publish(domain.NewVerdictEvent(time.Now(), runID, seq.Name, res))
	}
	out.Err = strings.Join(errs, "; ")

	return out
}

func (a *Analyzer) analyzePairs(ctx context.Context, runID string, sequences []domain.NamedSequence, workers int) []domain.PairReport {
	var pairs []domain.PairReport
	for i := 0; i < len(sequences); i++ {
		for j := i + 1; j < len(sequences); j++ {
			pairs = append(pairs, domain.PairReport{A: sequences[i].Name, B: sequences[j].Name})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	idx := 0
	for i := 0; i < len(sequences); i++ {
		for j := i + 1; j < len(sequences); j++ {
			p, a1, b := idx, sequences[i], sequences[j]
			idx++
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					pairs[p].Err = err.Error()
					return nil
				}

				res, err := pattern.DetectCrossCoupling(a1.Values, b.Values, a.cfg.Coupling)
				if err != nil {
					pairs[p].Err = err.Error()
					return nil
				}

				pairs[p].Verdict = res
				a.publish(domain.NewVerdictEvent(time.Now(), runID, fmt.Sprintf("%s|%s", a1.Name, b.Name), res))
				return nil
			})
		}
	}
	_ = g.Wait()

	return pairs
}

func (a *Analyzer) detect(kind pattern.Kind, values []float64) (pattern.Result, error) {
	switch kind {
	case pattern.KindPhiRatio:
		return pattern.DetectPhiRatios(values, a.cfg.Phi)
	case pattern.KindFibonacci:
		return pattern.DetectFibonacci(values, a.cfg.Fibonacci)
	case pattern.KindCoherence:
		return pattern.ScoreCoherence(values, a.cfg.Coherence)
	case pattern.KindFieldCoupling:
		return pattern.DetectFieldCoupling(values, a.cfg.Coupling)
	default:
		return pattern.Result{}, fmt.Errorf("unsupported detector %q", kind)
	}
}

func (a *Analyzer) wantsCrossCoupling() bool {
	for _, kind := range a.cfg.Detectors {
		if kind == pattern.KindCrossCoupling {
			return true
		}
	}
	return false
}

// publish hands the event to the sink; storage failures are logged and
// do not interrupt analysis.
func (a *Analyzer) publish(event domain.VerdictEvent) {
	if a.sink == nil {
		return
	}
	if err := a.sink.Save(event); err != nil {
		a.l.Error("failed to save verdict event", zap.Error(err))
	}
}
