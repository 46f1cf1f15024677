package documents

import (
	"context"
	"io"
)

// BlobStore port (opaque put)
type BlobStore interface {
	Put(ctx context.Context, r io.Reader, size int64, name, contentType string) (Locator, error)
}

// BlobReader port, reads back what BlobStore stored
type BlobReader interface {
	Open(ctx context.Context, loc Locator) (io.ReadCloser, error)
}

// Extractor port (document understanding / OCR)
type Extractor interface {
	Extract(ctx context.Context, loc Locator, mimeType string) (string, error)
}

// Translator port. The result has the same length and order as texts.
type Translator interface {
	Translate(ctx context.Context, texts []string, target string) ([]string, error)
}
