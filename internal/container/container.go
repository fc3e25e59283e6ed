package container

import (
	"fmt"
	"net/http"

	"github.com/anime-shed/doc-extractor-go/internal/cache"
	"github.com/anime-shed/doc-extractor-go/internal/config"
	"github.com/anime-shed/doc-extractor-go/internal/logger"
	"github.com/anime-shed/doc-extractor-go/internal/observer"
	"github.com/anime-shed/doc-extractor-go/internal/preprocess"
	"github.com/anime-shed/doc-extractor-go/internal/profile"
	"github.com/anime-shed/doc-extractor-go/internal/quality"
	"github.com/anime-shed/doc-extractor-go/internal/recognition"
	"github.com/anime-shed/doc-extractor-go/internal/region"
	"github.com/anime-shed/doc-extractor-go/internal/service"
	"github.com/anime-shed/doc-extractor-go/internal/storage"
	"github.com/anime-shed/doc-extractor-go/internal/textproc"
	"github.com/anime-shed/doc-extractor-go/internal/tile"
	"github.com/anime-shed/doc-extractor-go/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	config      *config.Config
	resultCache *cache.ResultCache
	service     service.ExtractionService
	handler     http.Handler
}

// NewContainer builds the full dependency graph once at process start.
func NewContainer(cfg *config.Config) (*Container, error) {
	registry := profile.NewDefaultRegistry()
	assessor := quality.NewAssessor()
	preprocessor := preprocess.NewPreprocessor(preprocess.NoopMatter{})
	engine := recognition.NewTesseractEngine()
	detector := region.NewDetector(nil, cfg.MinRegionArea)
	tiles := tile.NewProcessor(cfg.TileSize, cfg.TileOverlapPx, cfg.DirectMaxDimension)
	corrector := textproc.NewCorrector()

	resultCache := cache.New(cfg.CacheTTL)
	resultCache.StartSweeper(cfg.CacheSweepInterval)

	store, err := newDocumentStore(cfg)
	if err != nil {
		return nil, err
	}

	metrics := observer.NewMetricsObserver()
	publisher := observer.NewEventPublisher()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	publisher.Subscribe(metrics)

	svc := service.NewExtractionService(
		registry, assessor, preprocessor, engine, detector, tiles,
		corrector, resultCache, store, publisher, cfg,
	)
	handler := transport.NewHandler(svc, resultCache, metrics, cfg)

	return &Container{
		config:      cfg,
		resultCache: resultCache,
		service:     svc,
		handler:     handler,
	}, nil
}

func newDocumentStore(cfg *config.Config) (storage.DocumentStore, error) {
	switch cfg.Backend {
	case config.StorageAzure:
		return storage.NewAzureStore(cfg.AzureAccount, cfg.AzureKey, cfg.AzureContainer)
	case config.StorageLocal:
		return storage.NewLocalStore(cfg.LocalStorageRoot)
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.Backend)
	}
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close stops background workers owned by the container.
func (c *Container) Close() {
	c.resultCache.Stop()
}
