package preprocess

import (
	"context"
	"image"
)

// Matter is the external image-matting capability: it separates the
// document foreground from the background. Any failure must degrade
// gracefully to the original image; the preprocessor never aborts on a
// matting error.
type Matter interface {
	RemoveBackground(ctx context.Context, img image.Image) (image.Image, error)
}

// NoopMatter returns the input unchanged. Used when no matting service is
// configured.
type NoopMatter struct{}

func (NoopMatter) RemoveBackground(_ context.Context, img image.Image) (image.Image, error) {
	return img, nil
}
