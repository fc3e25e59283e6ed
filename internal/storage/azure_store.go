package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	apperrors "github.com/anime-shed/doc-extractor-go/internal/errors"
)

type azureStore struct {
	client    *azblob.Client
	container string
}

// NewAzureStore creates a DocumentStore over an Azure blob container.
func NewAzureStore(accountName, accountKey, container string) (DocumentStore, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, apperrors.NewStorageError("invalid azure credentials", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to create azure client", err)
	}

	return &azureStore{client: client, container: container}, nil
}

// WithLocalPath downloads the blob named by ref to a temp file, invokes
// fn with its path, and removes the file afterwards. ref may be a bare
// blob name or a full blob URL with container path and ?blob= query.
func (s *azureStore) WithLocalPath(ctx context.Context, ref string, fn func(path string) error) error {
	container, blobName, err := s.resolve(ref)
	if err != nil {
		return err
	}

	resp, err := s.client.DownloadStream(ctx, container, blobName, nil)
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("download failed for blob %q", blobName), err)
	}
	defer resp.Body.Close()

	tmp, err := os.CreateTemp("", "doc-extract-*")
	if err != nil {
		return apperrors.NewStorageError("failed to create temp file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return apperrors.NewStorageError("failed to spool blob to disk", err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.NewStorageError("failed to flush temp file", err)
	}

	return fn(tmp.Name())
}

func (s *azureStore) resolve(ref string) (container, blob string, err error) {
	parsed, err := url.Parse(ref)
	if err != nil || parsed.Scheme == "" {
		// Bare blob name within the configured container.
		if ref == "" {
			return "", "", apperrors.NewValidationError("empty document reference", nil)
		}
		return s.container, ref, nil
	}

	if len(parsed.Path) < 2 {
		return "", "", apperrors.NewValidationError("blob URL missing container path", nil)
	}
	container = parsed.Path[1:]
	blob = parsed.Query().Get("blob")
	if blob == "" {
		return "", "", apperrors.NewValidationError("blob URL missing blob query parameter", nil)
	}
	return container, blob, nil
}
