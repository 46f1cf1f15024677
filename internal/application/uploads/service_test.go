package uploads

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexplain/docanalyzer/internal/application"
	"github.com/lexplain/docanalyzer/internal/domain/documents"
)

type memStore struct {
	name        string
	contentType string
	body        string
	err         error
}

func (m *memStore) Put(_ context.Context, r io.Reader, _ int64, name, contentType string) (documents.Locator, error) {
	if m.err != nil {
		return "", m.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.name, m.contentType, m.body = name, contentType, string(b)
	return documents.Locator("gs://docs/" + name), nil
}

const docxType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

var allowed = []string{"application/pdf", docxType, "text/plain", "image/png"}

func newService(store *memStore) *Service {
	day := time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC)
	return NewService(store, application.FixedClock(day), allowed)
}

func TestUploadStoresUnderDatedKey(t *testing.T) {
	store := &memStore{}
	res, err := newService(store).Upload(context.Background(), UploadCommand{
		Filename:    "Lease Agreement.PDF",
		ContentType: "application/pdf",
		Size:        8,
		Body:        strings.NewReader("%PDF-1.7"),
	})
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^uploads/2024/03/09/[0-9a-f-]{36}\.pdf$`), store.name)
	assert.Equal(t, documents.Locator("gs://docs/"+store.name), res.Locator)
	assert.Equal(t, "application/pdf", res.MimeType)
	assert.Equal(t, "%PDF-1.7", store.body)
}

func TestUploadResolvesType(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		header   string
		body     string
		want     string
	}{
		{"header with params", "a.txt", "text/plain; charset=utf-8", "hi", "text/plain"},
		{"octet stream falls back to extension", "scan.png", "application/octet-stream", "x", "image/png"},
		{"docx sent as octet stream", "Lease.DOCX", "application/octet-stream", "PK\x03\x04word/document.xml", docxType},
		{"docx header", "lease.docx", docxType, "PK\x03\x04", docxType},
		{"sniffed pdf", "noext", "", "%PDF-1.4 body", "application/pdf"},
		{"sniffed text", "notes", "", "plain words", "text/plain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memStore{}
			res, err := newService(store).Upload(context.Background(), UploadCommand{
				Filename: tt.filename, ContentType: tt.header, Size: int64(len(tt.body)), Body: strings.NewReader(tt.body),
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.MimeType)
			assert.Equal(t, tt.body, store.body)
		})
	}
}

func TestUploadRejects(t *testing.T) {
	store := &memStore{}
	svc := newService(store)

	_, err := svc.Upload(context.Background(), UploadCommand{Filename: "", Size: 1, Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, documents.ErrInvalidInput)

	_, err = svc.Upload(context.Background(), UploadCommand{Filename: "a.pdf", Size: 0, Body: strings.NewReader("")})
	assert.ErrorIs(t, err, documents.ErrInvalidInput)

	_, err = svc.Upload(context.Background(), UploadCommand{
		Filename: "run.exe", ContentType: "application/x-msdownload", Size: 2, Body: strings.NewReader("MZ"),
	})
	var verr *documents.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "Unsupported file type")
	assert.Empty(t, store.name)
}

func TestUploadStoreFailure(t *testing.T) {
	_, err := newService(&memStore{err: errors.New("bucket gone")}).Upload(context.Background(), UploadCommand{
		Filename: "a.txt", ContentType: "text/plain", Size: 1, Body: strings.NewReader("x"),
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, documents.ErrInvalidInput)
}
