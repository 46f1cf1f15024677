// Package docai turns stored documents into text with a Document AI processor.
package docai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"k8s.io/klog/v2"

	"github.com/lexplain/docanalyzer/internal/domain/documents"
)

// Client wraps the REST client of one Document AI processor.
type Client struct {
	API       *documentai.DocumentProcessorClient
	Processor string // projects/{p}/locations/{l}/processors/{id}
	// Inline forces rawDocument requests, needed when the blob store is not GCS.
	Inline bool
	Blobs  documents.BlobReader
}

// New builds a client authenticated with Application Default Credentials unless opts say
// otherwise. An empty endpoint selects the regional endpoint for location.
func New(ctx context.Context, project, location, processor, endpoint string, inline bool, blobs documents.BlobReader, opts ...option.ClientOption) (*Client, error) {
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s-documentai.googleapis.com", location)
	}
	opts = append([]option.ClientOption{option.WithEndpoint(endpoint)}, opts...)
	api, err := documentai.NewDocumentProcessorRESTClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("document ai client: %w", err)
	}
	return &Client{
		API:       api,
		Processor: fmt.Sprintf("projects/%s/locations/%s/processors/%s", project, location, processor),
		Inline:    inline,
		Blobs:     blobs,
	}, nil
}

func (c *Client) Close() error {
	return c.API.Close()
}

func (c *Client) Extract(ctx context.Context, loc documents.Locator, mimeType string) (string, error) {
	req := &documentaipb.ProcessRequest{Name: c.Processor, SkipHumanReview: true}
	if !c.Inline && strings.HasPrefix(string(loc), "gs://") {
		req.Source = &documentaipb.ProcessRequest_GcsDocument{
			GcsDocument: &documentaipb.GcsDocument{GcsUri: string(loc), MimeType: mimeType},
		}
	} else {
		content, err := c.readInline(ctx, loc)
		if err != nil {
			return "", err
		}
		req.Source = &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{Content: content, MimeType: mimeType},
		}
	}

	klog.V(6).Infof("[DocAI] process %s as %s (inline=%v)", loc, mimeType, req.GetRawDocument() != nil)
	resp, err := c.API.ProcessDocument(ctx, req)
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusBadRequest &&
			strings.Contains(strings.ToLower(apiErr.Message), "mime") {
			return "", fmt.Errorf("%w: %s", documents.ErrUnsupportedMediaType, apiErr.Message)
		}
		return "", fmt.Errorf("document ai process: %w", err)
	}
	text := resp.GetDocument().GetText()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("document ai found no text in %s", loc)
	}
	return text, nil
}

func (c *Client) readInline(ctx context.Context, loc documents.Locator) ([]byte, error) {
	if c.Blobs == nil {
		return nil, fmt.Errorf("cannot read %s: no blob reader configured", loc)
	}
	rc, err := c.Blobs.Open(ctx, loc)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", loc, err)
	}
	return data, nil
}
