package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/doc-extractor-go/internal/cache"
	"github.com/anime-shed/doc-extractor-go/internal/config"
	apperrors "github.com/anime-shed/doc-extractor-go/internal/errors"
	"github.com/anime-shed/doc-extractor-go/internal/logger"
	"github.com/anime-shed/doc-extractor-go/internal/observer"
	"github.com/anime-shed/doc-extractor-go/internal/orchestrator"
	"github.com/anime-shed/doc-extractor-go/internal/preprocess"
	"github.com/anime-shed/doc-extractor-go/internal/profile"
	"github.com/anime-shed/doc-extractor-go/internal/quality"
	"github.com/anime-shed/doc-extractor-go/internal/recognition"
	"github.com/anime-shed/doc-extractor-go/internal/region"
	"github.com/anime-shed/doc-extractor-go/internal/storage"
	"github.com/anime-shed/doc-extractor-go/internal/textproc"
	"github.com/anime-shed/doc-extractor-go/internal/tile"
	"github.com/anime-shed/doc-extractor-go/pkg/models"
)

// Request carries the per-call options of one extraction.
type Request struct {
	DocumentKind string
	// Parallel runs all strategies concurrently instead of sequentially
	// with early stopping.
	Parallel bool
	// UseRegions enables region-of-interest detection for sparse documents.
	UseRegions bool
	// ExpectedText, when set, adds an accuracy report to the result.
	ExpectedText string
}

// ExtractionService is the pipeline entry point behind the HTTP surface.
type ExtractionService interface {
	ExtractFromBytes(ctx context.Context, imageBytes []byte, req Request) (*models.ExtractionResult, error)
	ExtractFromStore(ctx context.Context, ref string, req Request) (*models.ExtractionResult, error)
}

type extractionService struct {
	registry     *profile.Registry
	assessor     *quality.Assessor
	preprocessor *preprocess.Preprocessor
	engine       recognition.Engine
	detector     *region.Detector
	tiles        *tile.Processor
	corrector    *textproc.Corrector
	cache        *cache.ResultCache
	store        storage.DocumentStore
	publisher    observer.Subject
	cfg          *config.Config
}

// NewExtractionService assembles the pipeline from its collaborators.
func NewExtractionService(
	registry *profile.Registry,
	assessor *quality.Assessor,
	preprocessor *preprocess.Preprocessor,
	engine recognition.Engine,
	detector *region.Detector,
	tiles *tile.Processor,
	corrector *textproc.Corrector,
	resultCache *cache.ResultCache,
	store storage.DocumentStore,
	publisher observer.Subject,
	cfg *config.Config,
) ExtractionService {
	return &extractionService{
		registry:     registry,
		assessor:     assessor,
		preprocessor: preprocessor,
		engine:       engine,
		detector:     detector,
		tiles:        tiles,
		corrector:    corrector,
		cache:        resultCache,
		store:        store,
		publisher:    publisher,
		cfg:          cfg,
	}
}

// ExtractFromStore resolves ref through the document store and extracts
// from the file it yields. The file is only read, never retained.
func (s *extractionService) ExtractFromStore(ctx context.Context, ref string, req Request) (*models.ExtractionResult, error) {
	var result *models.ExtractionResult
	err := s.store.WithLocalPath(ctx, ref, func(path string) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return apperrors.NewStorageError("failed to read stored document", err)
		}
		result, err = s.ExtractFromBytes(ctx, data, req)
		return err
	})
	return result, err
}

// ExtractFromBytes runs the full pipeline over one image: profile
// resolution, cache lookup, quality gate, preprocessing, orchestrated
// recognition on the direct, tiled or region path, text correction, and
// result assembly.
func (s *extractionService) ExtractFromBytes(ctx context.Context, imageBytes []byte, req Request) (*models.ExtractionResult, error) {
	start := time.Now()
	prof := s.registry.Resolve(req.DocumentKind)

	s.notify(ctx, observer.ExtractionEvent{
		EventType:    observer.ExtractionStarted,
		Timestamp:    start,
		DocumentKind: prof.Kind,
	})

	key := cache.NewKey(imageBytes, requestFingerprint(prof, req))
	if cached, ok := s.cache.Get(key); ok {
		cached.FromCache = true
		s.notify(ctx, observer.ExtractionEvent{
			EventType:      observer.CacheHit,
			Timestamp:      time.Now(),
			DocumentKind:   prof.Kind,
			FromCache:      true,
			Success:        true,
			ProcessingTime: time.Since(start),
		})
		return &cached, nil
	}

	result, err := s.extract(ctx, imageBytes, prof, req, start)
	if err != nil {
		s.notify(ctx, observer.ExtractionEvent{
			EventType:      observer.ExtractionFailed,
			Timestamp:      time.Now(),
			DocumentKind:   prof.Kind,
			ProcessingTime: time.Since(start),
			ErrorMessage:   err.Error(),
		})
		return nil, err
	}

	// An abandoned request must never publish a partial result.
	if ctx.Err() == nil {
		s.cache.Put(key, *result)
	}

	s.notify(ctx, observer.ExtractionEvent{
		EventType:      observer.ExtractionCompleted,
		Timestamp:      time.Now(),
		DocumentKind:   prof.Kind,
		StrategyUsed:   result.StrategyUsed,
		ProcessingTime: time.Since(start),
		Success:        true,
	})
	return result, nil
}

func (s *extractionService) extract(ctx context.Context, imageBytes []byte, prof profile.DocumentProfile, req Request, start time.Time) (*models.ExtractionResult, error) {
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, apperrors.NewValidationError("image could not be decoded", err)
	}

	report := s.assessor.Assess(img)
	pcfg := prof.Preprocessing
	if !report.Passed {
		s.notify(ctx, observer.ExtractionEvent{
			EventType:    observer.QualityRejected,
			Timestamp:    time.Now(),
			DocumentKind: prof.Kind,
			Metadata: map[string]interface{}{
				"blur_score":     report.BlurScore,
				"contrast_score": report.ContrastScore,
			},
		})
		// Advisory only; auto-correct the preprocessing config and proceed.
		correction := s.assessor.SuggestCorrection(report)
		if correction.ForceBackgroundRemoval {
			pcfg.BackgroundRemoval = true
		}
		if correction.UpscaleToMinDimension && pcfg.MinDimensionPx <= 0 {
			pcfg.MinDimensionPx = 600
		}
	}

	prepared := s.preprocessor.Process(ctx, img, pcfg)
	orch := orchestrator.New(s.engine, orchestrator.Options{
		Parallel:            req.Parallel,
		MaxWorkers:          s.cfg.MaxWorkers,
		ConfidenceThreshold: s.cfg.ConfidenceThreshold,
		AttemptTimeout:      s.cfg.RecognitionTimeout,
	})

	var (
		text        string
		confidences []float64
		result      = &models.ExtractionResult{
			DocumentKind: prof.Kind,
			Quality:      report,
		}
	)

	if req.UseRegions {
		text, confidences, err = s.extractRegions(ctx, prepared, prof, orch, result)
	} else {
		text, confidences, err = s.extractTiled(ctx, prepared, prof, orch, result)
	}
	if err != nil {
		return nil, err
	}

	result.Text = s.corrector.Correct(text)
	result.Confidence = summarize(confidences)
	result.DetectedLanguage = textproc.DetectLanguage(result.Text, defaultLanguage(prof))
	if req.ExpectedText != "" {
		accuracy := textproc.ScoreAccuracy(result.Text, req.ExpectedText)
		result.Accuracy = &accuracy
	}
	result.Timestamp = time.Now()
	result.ProcessingTimeSec = time.Since(start).Seconds()
	return result, nil
}

// extractRegions crops each detected text region and orchestrates it
// independently, joining the texts in scan order. No regions found falls
// back to the tiled path rather than returning nothing.
func (s *extractionService) extractRegions(ctx context.Context, img image.Image, prof profile.DocumentProfile, orch *orchestrator.Orchestrator, result *models.ExtractionResult) (string, []float64, error) {
	regions := s.detector.Detect(quality.Grayscale(img))
	if len(regions) == 0 {
		logger.Debug("No text regions detected, falling back to full-image extraction")
		return s.extractTiled(ctx, img, prof, orch, result)
	}

	count := len(regions)
	result.RegionCount = &count
	result.StrategyUsed = "regions"

	var (
		texts       []string
		confidences []float64
		failures    int
		lastErr     error
	)
	for _, r := range regions {
		sub := imaging.Crop(img, r.Bounds)
		outcome, err := orch.Run(ctx, sub, prof, nil)
		result.Attempts = append(result.Attempts, outcome.Attempts...)
		if err != nil {
			failures++
			lastErr = err
			logger.WithError(err).WithFields(logrus.Fields{
				"region": r.Bounds.String(),
			}).Warn("Region extraction failed")
			continue
		}
		texts = append(texts, outcome.Winner.Text)
		confidences = append(confidences, outcome.Winner.Confidences...)
	}

	if len(texts) == 0 {
		if lastErr != nil {
			return "", nil, lastErr
		}
		return "", nil, apperrors.NewExtractionFailedError(
			fmt.Sprintf("no text extracted from any of %d regions", count), nil)
	}
	if failures > 0 {
		logger.WithFields(logrus.Fields{"failed": failures, "total": count}).
			Warn("Some regions produced no text")
	}
	return strings.Join(texts, "\n"), confidences, nil
}

// extractTiled hands the image to the tile processor, which bypasses
// tiling entirely below the direct-processing threshold.
func (s *extractionService) extractTiled(ctx context.Context, img image.Image, prof profile.DocumentProfile, orch *orchestrator.Orchestrator, result *models.ExtractionResult) (string, []float64, error) {
	stitched, err := s.tiles.Process(ctx, img, func(ctx context.Context, sub image.Image) (orchestrator.Outcome, error) {
		return orch.Run(ctx, sub, prof, nil)
	})
	if err != nil {
		return "", nil, err
	}

	var confidences []float64
	for _, outcome := range stitched.Outcomes {
		result.Attempts = append(result.Attempts, outcome.Attempts...)
		confidences = append(confidences, outcome.Winner.Confidences...)
	}

	if stitched.Direct {
		outcome := stitched.Outcomes[0]
		result.StrategyUsed = outcome.Winner.Strategy
		result.EarlyStopped = outcome.EarlyStopped
	} else {
		result.StrategyUsed = "tiled"
		count := stitched.TileCount
		result.TileCount = &count
		if len(stitched.Outcomes) == 0 {
			return "", nil, apperrors.NewExtractionFailedError(
				fmt.Sprintf("no text extracted from any of %d tiles", count), nil)
		}
	}
	return stitched.Text, confidences, nil
}

func (s *extractionService) notify(ctx context.Context, event observer.ExtractionEvent) {
	if s.publisher != nil {
		s.publisher.NotifyObservers(ctx, event)
	}
}

// requestFingerprint extends the profile fingerprint with the per-request
// options that change the produced result, so cached entries are only
// served to equivalent requests.
func requestFingerprint(prof profile.DocumentProfile, req Request) string {
	return fmt.Sprintf("%s|parallel=%t|regions=%t|expected=%s",
		prof.Fingerprint(), req.Parallel, req.UseRegions, req.ExpectedText)
}

func summarize(confidences []float64) models.ConfidenceSummary {
	var sum models.ConfidenceSummary
	if len(confidences) == 0 {
		return sum
	}
	sum.Min = confidences[0]
	sum.Max = confidences[0]
	var total float64
	for _, c := range confidences {
		total += c
		if c < sum.Min {
			sum.Min = c
		}
		if c > sum.Max {
			sum.Max = c
		}
		if c < orchestrator.LowConfidenceCutoff {
			sum.LowConfidenceCount++
		}
	}
	sum.Average = total / float64(len(confidences))
	return sum
}

func defaultLanguage(prof profile.DocumentProfile) string {
	if len(prof.Languages) > 0 {
		return prof.Languages[0]
	}
	return "eng"
}
