// Package extraction picks how a stored document becomes text.
package extraction

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"k8s.io/klog/v2"

	"github.com/lexplain/docanalyzer/internal/domain/documents"
)

// maxTextBytes bounds plain-text documents read straight from storage.
const maxTextBytes = 10 << 20

// Router reads text/* documents straight from the blob store and sends everything else to
// the document understanding service.
type Router struct {
	Blobs    documents.BlobReader
	Document documents.Extractor
}

func NewRouter(blobs documents.BlobReader, document documents.Extractor) *Router {
	return &Router{Blobs: blobs, Document: document}
}

func (r *Router) Extract(ctx context.Context, loc documents.Locator, mimeType string) (string, error) {
	if isPlainText(mimeType) {
		klog.V(6).Infof("[Extraction] reading %s directly (%s)", loc, mimeType)
		return r.readText(ctx, loc)
	}
	return r.Document.Extract(ctx, loc, mimeType)
}

func (r *Router) readText(ctx context.Context, loc documents.Locator) (string, error) {
	rc, err := r.Blobs.Open(ctx, loc)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxTextBytes+1))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", loc, err)
	}
	if len(data) > maxTextBytes {
		return "", fmt.Errorf("%s exceeds %d bytes", loc, maxTextBytes)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8 text", documents.ErrUnsupportedMediaType, loc)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("%s is empty", loc)
	}
	return text, nil
}

func isPlainText(mimeType string) bool {
	base, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(mimeType)), ";")
	return strings.HasPrefix(strings.TrimSpace(base), "text/")
}
