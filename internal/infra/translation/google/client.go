// Package google translates texts with the Cloud Translation v2 API.
package google

import (
	"context"
	"fmt"
	"html"
	"unicode/utf8"

	"cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
	"k8s.io/klog/v2"

	"github.com/lexplain/docanalyzer/internal/domain/documents"
)

const (
	// the v2 API accepts at most 128 segments per request
	maxSegments = 128
	// recommended upper bound for the characters in one request
	maxBatchChars = 5000
)

type Client struct {
	API *translate.Client
}

// New builds a client authenticated with Application Default Credentials unless opts say
// otherwise. An empty endpoint keeps the SDK default.
func New(ctx context.Context, endpoint string, opts ...option.ClientOption) (*Client, error) {
	if endpoint != "" {
		opts = append([]option.ClientOption{option.WithEndpoint(endpoint)}, opts...)
	}
	api, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("translate client: %w", err)
	}
	return &Client{API: api}, nil
}

func (c *Client) Close() error {
	return c.API.Close()
}

// Translate sends texts in batches and returns translations in input order.
func (c *Client) Translate(ctx context.Context, texts []string, target string) ([]string, error) {
	tag, err := language.Parse(target)
	if err != nil {
		return nil, documents.Invalid("unsupported target language %q", target)
	}

	out := make([]string, 0, len(texts))
	for _, batch := range batches(texts) {
		klog.V(6).Infof("[Translate] %d segments -> %s", len(batch), tag)
		res, err := c.API.Translate(ctx, batch, tag, &translate.Options{Format: translate.Text})
		if err != nil {
			return nil, fmt.Errorf("translate: %w", err)
		}
		if len(res) != len(batch) {
			return nil, fmt.Errorf("translate returned %d results for %d texts", len(res), len(batch))
		}
		for _, t := range res {
			// format=text should come back unescaped, older deployments still escape entities
			out = append(out, html.UnescapeString(t.Text))
		}
	}
	return out, nil
}

// batches splits texts by segment count and total characters. A single text longer than the
// character budget travels alone.
func batches(texts []string) [][]string {
	var out [][]string
	var cur []string
	chars := 0
	for _, t := range texts {
		n := utf8.RuneCountInString(t)
		if len(cur) > 0 && (len(cur) == maxSegments || chars+n > maxBatchChars) {
			out = append(out, cur)
			cur, chars = nil, 0
		}
		cur = append(cur, t)
		chars += n
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}
