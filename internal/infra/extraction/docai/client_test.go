package docai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/lexplain/docanalyzer/internal/domain/documents"
)

type memBlobs map[documents.Locator]string

func (m memBlobs) Open(_ context.Context, loc documents.Locator) (io.ReadCloser, error) {
	s, ok := m[loc]
	if !ok {
		return nil, documents.Invalid("missing %s", loc)
	}
	return io.NopCloser(strings.NewReader(s)), nil
}

// processBody mirrors the JSON form of a ProcessRequest.
type processBody struct {
	Name        string `json:"name"`
	GcsDocument *struct {
		GcsURI   string `json:"gcsUri"`
		MimeType string `json:"mimeType"`
	} `json:"gcsDocument"`
	RawDocument *struct {
		Content  string `json:"content"`
		MimeType string `json:"mimeType"`
	} `json:"rawDocument"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc, inline bool, blobs documents.BlobReader) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(context.Background(), "p", "us", "proc", srv.URL, inline, blobs, option.WithoutAuthentication())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestExtractGCSDocument(t *testing.T) {
	var got processBody
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/projects/p/locations/us/processors/proc:process", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"document":{"text":"Clause 1: Term. Clause 2: Fees."}}`))
	}, false, nil)

	text, err := c.Extract(context.Background(), "gs://b/doc.pdf", "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "Clause 1: Term. Clause 2: Fees.", text)

	require.NotNil(t, got.GcsDocument)
	assert.Nil(t, got.RawDocument)
	assert.Equal(t, "gs://b/doc.pdf", got.GcsDocument.GcsURI)
	assert.Equal(t, "application/pdf", got.GcsDocument.MimeType)
}

func TestExtractInlineReadsBlob(t *testing.T) {
	var got processBody
	blobs := memBlobs{"s3://b/scan.png": "PNGDATA"}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"document":{"text":"scanned"}}`))
	}, false, blobs)

	text, err := c.Extract(context.Background(), "s3://b/scan.png", "image/png")
	require.NoError(t, err)
	assert.Equal(t, "scanned", text)
	require.NotNil(t, got.RawDocument)
	raw, err := base64.StdEncoding.DecodeString(got.RawDocument.Content)
	require.NoError(t, err)
	assert.Equal(t, "PNGDATA", string(raw))
	assert.Equal(t, "image/png", got.RawDocument.MimeType)
}

func TestExtractErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"Unsupported input file format: mime type text/x-foo","status":"INVALID_ARGUMENT"}}`))
	}, false, nil)
	_, err := c.Extract(context.Background(), "gs://b/doc.foo", "text/x-foo")
	assert.ErrorIs(t, err, documents.ErrUnsupportedMediaType)

	c = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":404,"message":"processor not found","status":"NOT_FOUND"}}`))
	}, false, nil)
	_, err = c.Extract(context.Background(), "gs://b/doc.pdf", "application/pdf")
	require.Error(t, err)
	assert.NotErrorIs(t, err, documents.ErrUnsupportedMediaType)

	c = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"document":{"text":"  "}}`))
	}, false, nil)
	_, err = c.Extract(context.Background(), "gs://b/blank.pdf", "application/pdf")
	assert.Error(t, err)

	c = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected without a blob reader")
	}, true, nil)
	_, err = c.Extract(context.Background(), "gs://b/doc.pdf", "application/pdf")
	assert.Error(t, err)
}
