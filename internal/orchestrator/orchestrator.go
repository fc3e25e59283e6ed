package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "github.com/anime-shed/doc-extractor-go/internal/errors"
	"github.com/anime-shed/doc-extractor-go/internal/logger"
	"github.com/anime-shed/doc-extractor-go/internal/profile"
	"github.com/anime-shed/doc-extractor-go/internal/recognition"
	"github.com/anime-shed/doc-extractor-go/pkg/models"
)

// LowConfidenceCutoff is the per-token score below which a token counts
// toward an attempt's low-confidence total.
const LowConfidenceCutoff = 60.0

// Strategy names one extraction attempt and the segmentation-mode override
// it applies on top of the document profile.
type Strategy struct {
	Name         string
	Segmentation profile.SegmentationMode
}

// DefaultStrategies returns the ordered fallback chain for a profile: the
// profile's own segmentation first, then progressively more permissive
// modes.
func DefaultStrategies(p profile.DocumentProfile) []Strategy {
	strategies := []Strategy{{Name: "default", Segmentation: p.SegmentationMode}}
	if p.SegmentationMode != profile.SegmentSparseText {
		strategies = append(strategies, Strategy{Name: "sparse-text", Segmentation: profile.SegmentSparseText})
	}
	if p.SegmentationMode != profile.SegmentSingleBlock {
		strategies = append(strategies, Strategy{Name: "single-block", Segmentation: profile.SegmentSingleBlock})
	}
	return strategies
}

// Attempt is the outcome of one successful strategy run.
type Attempt struct {
	Strategy            string
	Text                string
	Confidences         []float64
	AvgConfidence       float64
	MinConfidence       float64
	MaxConfidence       float64
	LowConfidenceTokens int
}

// Outcome is the selected winner plus the per-strategy metadata of every
// attempt that ran.
type Outcome struct {
	Winner       Attempt
	EarlyStopped bool
	Attempts     []models.AttemptOutcome
}

// Options configure one orchestrator run.
type Options struct {
	// Parallel dispatches all strategies onto a bounded worker pool
	// instead of running them in order with early stopping.
	Parallel bool
	// MaxWorkers bounds the pool in parallel mode.
	MaxWorkers int
	// ConfidenceThreshold is the average confidence at which sequential
	// mode stops early.
	ConfidenceThreshold float64
	// AttemptTimeout bounds each individual recognition call.
	AttemptTimeout time.Duration
}

// Orchestrator runs the multi-strategy extraction state machine:
// Init -> AttemptK -> (EarlyStop | NextAttempt | Exhausted) -> Selected.
// All fallback control flow lives here; the recognition engine performs no
// retries of its own.
type Orchestrator struct {
	engine recognition.Engine
	opts   Options
}

// New creates an orchestrator over the given engine.
func New(engine recognition.Engine, opts Options) *Orchestrator {
	if opts.ConfidenceThreshold <= 0 {
		opts.ConfidenceThreshold = 90.0
	}
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 3
	}
	return &Orchestrator{engine: engine, opts: opts}
}

type runState int

const (
	stateInit runState = iota
	stateAttempt
	stateEarlyStop
	stateNextAttempt
	stateExhausted
	stateSelected
)

// Run executes the strategy chain over img and selects the best attempt.
// Strategy-level failures are absorbed and recorded; the returned error is
// non-nil only when every strategy failed or produced empty text.
func (o *Orchestrator) Run(ctx context.Context, img image.Image, prof profile.DocumentProfile, strategies []Strategy) (Outcome, error) {
	if len(strategies) == 0 {
		strategies = DefaultStrategies(prof)
	}
	if o.opts.Parallel {
		return o.runParallel(ctx, img, prof, strategies)
	}
	return o.runSequential(ctx, img, prof, strategies)
}

func (o *Orchestrator) runSequential(ctx context.Context, img image.Image, prof profile.DocumentProfile, strategies []Strategy) (Outcome, error) {
	var (
		completed []Attempt
		meta      []models.AttemptOutcome
		next      int
		winner    Attempt
		stopped   bool
	)

	state := stateInit
	for state != stateSelected {
		switch state {
		case stateInit:
			state = stateAttempt

		case stateAttempt:
			strat := strategies[next]
			attempt, err := o.attempt(ctx, img, prof, strat)
			meta = append(meta, outcomeMeta(strat.Name, attempt, err))
			if err != nil {
				o.logStrategyFailure(strat.Name, err)
				state = stateNextAttempt
				break
			}
			completed = append(completed, attempt)
			if attempt.AvgConfidence >= o.opts.ConfidenceThreshold {
				winner = attempt
				state = stateEarlyStop
				break
			}
			state = stateNextAttempt

		case stateEarlyStop:
			stopped = true
			state = stateSelected

		case stateNextAttempt:
			next++
			if next >= len(strategies) {
				state = stateExhausted
				break
			}
			state = stateAttempt

		case stateExhausted:
			best, ok := selectBest(completed)
			if !ok {
				return Outcome{Attempts: meta}, o.totalFailure(meta)
			}
			winner = best
			state = stateSelected
		}
	}

	return Outcome{Winner: winner, EarlyStopped: stopped, Attempts: meta}, nil
}

func (o *Orchestrator) runParallel(ctx context.Context, img image.Image, prof profile.DocumentProfile, strategies []Strategy) (Outcome, error) {
	pool := NewWorkerPool(o.opts.MaxWorkers)
	pool.Start()
	defer pool.Close()

	var mu sync.Mutex
	completed := make([]Attempt, 0, len(strategies))
	meta := make([]models.AttemptOutcome, len(strategies))

	for i, strat := range strategies {
		i, strat := i, strat
		pool.Submit(func() {
			attempt, err := o.attempt(ctx, img, prof, strat)
			mu.Lock()
			defer mu.Unlock()
			meta[i] = outcomeMeta(strat.Name, attempt, err)
			if err != nil {
				o.logStrategyFailure(strat.Name, err)
				return
			}
			completed = append(completed, attempt)
		})
	}
	pool.Wait()

	best, ok := selectBest(completed)
	if !ok {
		return Outcome{Attempts: meta}, o.totalFailure(meta)
	}
	return Outcome{Winner: best, Attempts: meta}, nil
}

// attempt runs one strategy under its own deadline and reduces the raw
// engine result to an Attempt. An empty text result is an error so that
// selection never crowns a blank winner.
func (o *Orchestrator) attempt(ctx context.Context, img image.Image, prof profile.DocumentProfile, strat Strategy) (Attempt, error) {
	attemptCtx := ctx
	if o.opts.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, o.opts.AttemptTimeout)
		defer cancel()
	}

	res, err := o.engine.Extract(attemptCtx, img, recognition.Request{
		Languages:        prof.Languages,
		SegmentationMode: strat.Segmentation,
		EngineMode:       prof.EngineMode,
		Whitelist:        prof.Whitelist,
	})
	if err != nil {
		return Attempt{Strategy: strat.Name}, err
	}
	if strings.TrimSpace(res.Text) == "" {
		return Attempt{Strategy: strat.Name}, fmt.Errorf("strategy %q returned empty text", strat.Name)
	}
	return reduce(strat.Name, res), nil
}

func reduce(strategy string, res recognition.Result) Attempt {
	a := Attempt{
		Strategy:    strategy,
		Text:        res.Text,
		Confidences: res.Confidences(),
	}
	if len(a.Confidences) == 0 {
		return a
	}

	a.MinConfidence = a.Confidences[0]
	a.MaxConfidence = a.Confidences[0]
	var sum float64
	for _, c := range a.Confidences {
		sum += c
		if c < a.MinConfidence {
			a.MinConfidence = c
		}
		if c > a.MaxConfidence {
			a.MaxConfidence = c
		}
		if c < LowConfidenceCutoff {
			a.LowConfidenceTokens++
		}
	}
	a.AvgConfidence = sum / float64(len(a.Confidences))
	return a
}

// selectBest picks the attempt with the highest (average confidence,
// text length) tuple: confidence first, text length breaking ties in
// favor of more extracted content.
func selectBest(attempts []Attempt) (Attempt, bool) {
	if len(attempts) == 0 {
		return Attempt{}, false
	}
	best := attempts[0]
	for _, a := range attempts[1:] {
		if a.AvgConfidence > best.AvgConfidence ||
			(a.AvgConfidence == best.AvgConfidence && len(a.Text) > len(best.Text)) {
			best = a
		}
	}
	return best, true
}

// totalFailure classifies an all-strategies-failed run. The resulting
// error names every attempted strategy and why it failed.
func (o *Orchestrator) totalFailure(meta []models.AttemptOutcome) error {
	allTimeout := len(meta) > 0
	allUnavailable := len(meta) > 0
	var parts []string
	for _, m := range meta {
		parts = append(parts, fmt.Sprintf("%s: %s", m.Strategy, m.Error))
		if m.Error != recognition.ErrTimeout.Error() {
			allTimeout = false
		}
		if !strings.Contains(m.Error, recognition.ErrUnavailable.Error()) {
			allUnavailable = false
		}
	}
	detail := strings.Join(parts, "; ")

	switch {
	case allTimeout:
		return apperrors.NewRecognitionTimeoutError(
			"every extraction strategy timed out ("+detail+")", recognition.ErrTimeout)
	case allUnavailable:
		return apperrors.NewRecognitionUnavailableError(
			"recognition engine unavailable for every strategy ("+detail+")", recognition.ErrUnavailable)
	default:
		return apperrors.NewExtractionFailedError(
			"all extraction strategies exhausted ("+detail+")", nil)
	}
}

func outcomeMeta(strategy string, attempt Attempt, err error) models.AttemptOutcome {
	if err != nil {
		msg := err.Error()
		if errors.Is(err, recognition.ErrTimeout) {
			msg = recognition.ErrTimeout.Error()
		}
		return models.AttemptOutcome{Strategy: strategy, Succeeded: false, Error: msg}
	}
	return models.AttemptOutcome{
		Strategy:      strategy,
		Succeeded:     true,
		AvgConfidence: attempt.AvgConfidence,
		TextLength:    len(attempt.Text),
	}
}

func (o *Orchestrator) logStrategyFailure(strategy string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"strategy": strategy,
	}).Warn("Extraction strategy failed")
}
