package storage

import "context"

// DocumentStore gives callers scoped access to a stored document as a
// local file, regardless of where the document actually lives. The path
// passed to fn is only valid for the duration of the call.
type DocumentStore interface {
	WithLocalPath(ctx context.Context, ref string, fn func(path string) error) error
}
