package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/doc-extractor-go/internal/cache"
	"github.com/anime-shed/doc-extractor-go/internal/config"
	apperrors "github.com/anime-shed/doc-extractor-go/internal/errors"
	"github.com/anime-shed/doc-extractor-go/internal/logger"
	"github.com/anime-shed/doc-extractor-go/internal/observer"
	"github.com/anime-shed/doc-extractor-go/internal/service"
)

// BlobExtractionRequest is the JSON body of POST /extract/blob.
type BlobExtractionRequest struct {
	Ref          string `json:"ref" binding:"required"`
	DocumentKind string `json:"document_kind,omitempty"`
	Parallel     bool   `json:"parallel,omitempty"`
	Regions      bool   `json:"regions,omitempty"`
	ExpectedText string `json:"expected_text,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// NewHandler builds the HTTP surface: the extraction endpoints, health
// check, and the cache admin endpoints.
func NewHandler(svc service.ExtractionService, resultCache *cache.ResultCache, metrics *observer.MetricsObserver, cfg *config.Config) http.Handler {
	r := gin.Default()

	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", healthCheck)
	r.POST("/extract", extractUpload(svc, cfg))
	r.POST("/extract/blob", extractBlob(svc, cfg))

	admin := r.Group("/admin")
	admin.GET("/cache/stats", cacheStats(resultCache, metrics))
	admin.POST("/cache/clear", cacheClear(resultCache))

	return r
}

// extractUpload handles multipart uploads: an "image" file part plus
// optional form fields for document kind and extraction options.
func extractUpload(svc service.ExtractionService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"ip":     c.ClientIP(),
		}).Info("Processing extraction request")

		fileHeader, err := c.FormFile("image")
		if err != nil {
			respondError(c, http.StatusBadRequest, "missing image file", err)
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			respondError(c, http.StatusBadRequest, "failed to open uploaded file", err)
			return
		}
		defer file.Close()

		imageBytes, err := io.ReadAll(file)
		if err != nil {
			respondError(c, http.StatusBadRequest, "failed to read uploaded file", err)
			return
		}

		req := service.Request{
			DocumentKind: c.PostForm("document_kind"),
			Parallel:     c.PostForm("parallel") == "true",
			UseRegions:   c.PostForm("regions") == "true",
			ExpectedText: c.PostForm("expected_text"),
		}

		result, err := svc.ExtractFromBytes(ctx, imageBytes, req)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "extraction failed", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"document_kind":      result.DocumentKind,
			"strategy_used":      result.StrategyUsed,
			"from_cache":         result.FromCache,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Extraction completed successfully")

		c.JSON(http.StatusOK, result)
	}
}

// extractBlob extracts from a document already in the configured store.
func extractBlob(svc service.ExtractionService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req BlobExtractionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		result, err := svc.ExtractFromStore(ctx, req.Ref, service.Request{
			DocumentKind: req.DocumentKind,
			Parallel:     req.Parallel,
			UseRegions:   req.Regions,
			ExpectedText: req.ExpectedText,
		})
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "extraction failed", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"ref":                req.Ref,
			"strategy_used":      result.StrategyUsed,
			"from_cache":         result.FromCache,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Blob extraction completed successfully")

		c.JSON(http.StatusOK, result)
	}
}

func cacheStats(resultCache *cache.ResultCache, metrics *observer.MetricsObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := gin.H{"cache": resultCache.Stats()}
		if metrics != nil {
			response["extraction_metrics"] = metrics.GetMetrics()
		}
		c.JSON(http.StatusOK, response)
	}
}

func cacheClear(resultCache *cache.ResultCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var maxAge time.Duration
		if raw := c.Query("max_age"); raw != "" {
			parsed, err := time.ParseDuration(raw)
			if err != nil || parsed < 0 {
				respondError(c, http.StatusBadRequest, "invalid max_age", err)
				return
			}
			maxAge = parsed
		}
		removed := resultCache.Clear(maxAge)
		c.JSON(http.StatusOK, gin.H{"removed": removed})
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err), "request processing failed", err)
		}
	}
}

func determineStatusCode(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
