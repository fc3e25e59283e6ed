package recognition

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/anime-shed/doc-extractor-go/internal/profile"
)

// TesseractEngine implements Engine using the gosseract client. Each call
// builds and tears down its own client, so concurrent calls never share
// engine state.
type TesseractEngine struct {
	clientFactory func() *gosseract.Client
}

// NewTesseractEngine constructs a Tesseract-backed recognition engine.
func NewTesseractEngine() *TesseractEngine {
	return &TesseractEngine{clientFactory: gosseract.NewClient}
}

// Extract runs one recognition pass. The call is executed on its own
// goroutine so the ctx deadline is honored even while the engine is busy;
// a timed-out call is abandoned, never joined.
func (e *TesseractEngine) Extract(ctx context.Context, img image.Image, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, classifyCtxErr(err)
	}

	type outcome struct {
		res Result
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		res, err := e.extract(img, req)
		done <- outcome{res, err}
	}()

	select {
	case <-ctx.Done():
		return Result{}, classifyCtxErr(ctx.Err())
	case o := <-done:
		return o.res, o.err
	}
}

func (e *TesseractEngine) extract(img image.Image, req Request) (Result, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Result{}, fmt.Errorf("encode image: %w", err)
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		return Result{}, fmt.Errorf("%w: set image: %v", ErrUnavailable, err)
	}
	if len(req.Languages) > 0 {
		if err := c.SetLanguage(req.Languages...); err != nil {
			return Result{}, fmt.Errorf("%w: set languages: %v", ErrUnavailable, err)
		}
	}
	if err := c.SetPageSegMode(pageSegMode(req.SegmentationMode)); err != nil {
		return Result{}, fmt.Errorf("%w: set page seg mode: %v", ErrUnavailable, err)
	}
	if req.Whitelist != "" {
		if err := c.SetWhitelist(req.Whitelist); err != nil {
			return Result{}, fmt.Errorf("%w: set whitelist: %v", ErrUnavailable, err)
		}
	}
	if v, ok := engineModeVariable(req.EngineMode); ok {
		if err := c.SetVariable(gosseract.SettableVariable("tessedit_ocr_engine_mode"), v); err != nil {
			return Result{}, fmt.Errorf("%w: set engine mode: %v", ErrUnavailable, err)
		}
	}

	text, err := c.Text()
	if err != nil {
		return Result{}, fmt.Errorf("%w: recognize: %v", ErrUnavailable, err)
	}

	return Result{
		Text:   strings.TrimSpace(text),
		Tokens: extractTokens(c),
	}, nil
}

// extractTokens reads per-word confidences from the word-level bounding
// boxes. A box error leaves the token list empty rather than failing the
// whole extraction.
func extractTokens(c *gosseract.Client) []Token {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return nil
	}
	tokens := make([]Token, 0, len(boxes))
	for _, b := range boxes {
		word := strings.TrimSpace(b.Word)
		if word == "" {
			continue
		}
		tokens = append(tokens, Token{Text: word, Confidence: b.Confidence})
	}
	return tokens
}

func pageSegMode(m profile.SegmentationMode) gosseract.PageSegMode {
	switch m {
	case profile.SegmentSparseText:
		return gosseract.PSM_SPARSE_TEXT
	case profile.SegmentSingleBlock:
		return gosseract.PSM_SINGLE_BLOCK
	case profile.SegmentSingleLine:
		return gosseract.PSM_SINGLE_LINE
	case profile.SegmentSingleColumn:
		return gosseract.PSM_SINGLE_COLUMN
	default:
		return gosseract.PSM_AUTO
	}
}

func engineModeVariable(m profile.EngineMode) (string, bool) {
	switch m {
	case profile.EngineLegacy:
		return "0", true
	case profile.EngineNeural:
		return "1", true
	default:
		return "", false
	}
}

func classifyCtxErr(err error) error {
	if err == context.DeadlineExceeded {
		return ErrTimeout
	}
	return err
}
